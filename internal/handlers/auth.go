package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/internal/validation"
	"github.com/nfrund/gatehouse/internal/view"
	"github.com/nfrund/gatehouse/web/src/templates/layouts"
	"github.com/nfrund/gatehouse/web/src/templates/pages"
)

const (
	landingPath = "/landing"
	resetPath   = "/reset-password"

	msgLoginFailed     = "Login failed"
	msgSignupFailed    = "Signup failed"
	msgResetFailed     = "Could not send reset email."
	msgEmailRequired   = "Please enter your email."
	msgResetSent       = "Reset link sent. Check your inbox (and spam)."
	msgAccountCreated  = "Account created."
	msgPasswordsDiffer = "Passwords do not match."
	msgResetDone       = "Your password has been reset. You can now log in."
	msgResetLinkNeeded = "A valid reset link is required to change your password."
)

// AuthHandler serves the auth view and its submissions.
type AuthHandler struct {
	gateway      Gateway
	awaitTimeout time.Duration
	now          func() time.Time
}

// NewAuthHandler creates a new AuthHandler. awaitTimeout bounds how long a
// submit waits for the session-change notification before redirecting.
func NewAuthHandler(gateway Gateway, awaitTimeout time.Duration) *AuthHandler {
	return &AuthHandler{
		gateway:      gateway,
		awaitTimeout: awaitTimeout,
		now:          time.Now,
	}
}

// LoginGet renders the auth view (GET /login). A browser that is already
// signed in is sent to the landing page; ?forgot=1 opens the reset dialog.
func (h *AuthHandler) LoginGet(c echo.Context) error {
	ctx := c.Request().Context()
	if h.gateway.CurrentSession(ctx, middleware.SessionIDFrom(c)).Present {
		return c.Redirect(http.StatusSeeOther, landingPath)
	}

	email := view.PopFormEmail(c)
	form := validation.NewFormState(email, "")
	forgot := pages.ForgotData{
		Open:  c.QueryParam("forgot") == "1",
		Email: email,
	}
	return h.renderLogin(c, http.StatusOK, form, forgot)
}

// LoginPost handles the login submit (POST /login).
func (h *AuthHandler) LoginPost(c echo.Context) error {
	return h.submit(c, msgLoginFailed, h.gateway.Login, "")
}

// SignupPost handles the create-account submit (POST /signup). The provider
// signs the new account in, so success lands on the landing page too.
func (h *AuthHandler) SignupPost(c echo.Context) error {
	return h.submit(c, msgSignupFailed, h.gateway.Signup, msgAccountCreated)
}

type credentialCall func(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error)

func (h *AuthHandler) submit(c echo.Context, fallback string, call credentialCall, successMsg string) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req validation.CredentialsForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	req.Trim()

	form := validation.NewFormState(req.Email, req.Password)
	form.TouchAll()
	if err := c.Validate(&req); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		return h.renderLogin(c, http.StatusUnprocessableEntity, form, pages.ForgotData{})
	}

	creds := req.Credentials()
	sid := middleware.SessionIDFrom(c)
	if _, err := call(ctx, sid, creds); err != nil {
		view.SetFlashError(c, domain.UserMessage(err, fallback))
		view.SetFormEmail(c, creds.Email)
		return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
	}

	h.await(ctx, sid, true)
	if successMsg != "" {
		view.SetFlashSuccess(c, successMsg)
	}
	logger.Info("Signed in", "email", creds.Email)
	return c.Redirect(http.StatusSeeOther, landingPath)
}

// ValidatePost re-validates the credentials form on field interaction
// (POST /login/validate) and returns the out-of-band error partial.
func (h *AuthHandler) ValidatePost(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}

	form := validation.NewFormState(req.Email, req.Password)
	for _, field := range req.Touched {
		form.Touch(field)
	}
	form.Touch(req.Field)
	return c.Render(http.StatusOK, "", pages.ValidationPartial(form))
}

// ForgotPasswordPost sends a reset link (POST /forgot-password). htmx
// requests get the dialog back; plain posts get the whole auth view with the
// dialog open.
func (h *AuthHandler) ForgotPasswordPost(c echo.Context) error {
	var req ForgotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}

	dialog := pages.ForgotData{Open: true, Email: req.normalized()}
	status := http.StatusOK
	switch {
	case dialog.Email == "":
		dialog.Error = msgEmailRequired
		status = http.StatusUnprocessableEntity
	default:
		if err := h.gateway.RequestPasswordReset(c.Request().Context(), dialog.Email); err != nil {
			dialog.Error = domain.UserMessage(err, msgResetFailed)
			status = http.StatusUnprocessableEntity
		} else {
			dialog.Success = msgResetSent
		}
	}

	if c.Request().Header.Get("HX-Request") == "true" {
		// htmx does not swap 4xx responses by default.
		return c.Render(http.StatusOK, "", pages.ForgotDialog(dialog))
	}
	return h.renderLogin(c, status, validation.NewFormState(dialog.Email, ""), dialog)
}

// ResetPasswordGet renders the new-password form for the code in the
// emailed link (GET /reset-password?code=...).
func (h *AuthHandler) ResetPasswordGet(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		view.SetFlashError(c, msgResetLinkNeeded)
		return c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?forgot=1")
	}
	page := pages.ResetPassword(pages.ResetPasswordData{Code: code})
	return c.Render(http.StatusOK, "", layouts.Base("Reset Password", view.GetFlashData(c), page))
}

// ResetPasswordPost sets the new password (POST /reset-password).
func (h *AuthHandler) ResetPasswordPost(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form submission")
	}
	if req.Code == "" {
		view.SetFlashError(c, msgResetLinkNeeded)
		return c.Redirect(http.StatusSeeOther, middleware.LoginPath+"?forgot=1")
	}
	back := resetPath + "?" + url.Values{"code": {req.Code}}.Encode()

	if req.Password != req.PasswordConfirm {
		view.SetFlashError(c, msgPasswordsDiffer)
		return c.Redirect(http.StatusSeeOther, back)
	}
	if err := c.Validate(&validation.ResetForm{Code: req.Code, NewPassword: req.Password}); err != nil {
		view.SetFlashError(c, domain.UserMessage(err, validation.PasswordMessage))
		return c.Redirect(http.StatusSeeOther, back)
	}

	if err := h.gateway.ConfirmPasswordReset(c.Request().Context(), req.Code, req.Password); err != nil {
		view.SetFlashError(c, domain.UserMessage(err, msgResetFailed))
		return c.Redirect(http.StatusSeeOther, back)
	}

	view.SetFlashSuccess(c, msgResetDone)
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, form *validation.FormState, forgot pages.ForgotData) error {
	data := pages.LoginData{
		Form:   form,
		Forgot: forgot,
		Year:   h.now().Year(),
	}
	return c.Render(status, "", layouts.Base("Login", view.GetFlashData(c), pages.Login(data)))
}

// await waits for the session-change notification so the next navigation
// sees the new state. A timeout is logged, not surfaced: the guard decides
// on the next request.
func (h *AuthHandler) await(ctx context.Context, sid string, present bool) {
	waitCtx, cancel := context.WithTimeout(ctx, h.awaitTimeout)
	defer cancel()
	if _, err := h.gateway.Await(waitCtx, sid, present); err != nil {
		middleware.FromContext(ctx).Warn("Session notification did not arrive in time", "present", present, "error", err)
	}
}
