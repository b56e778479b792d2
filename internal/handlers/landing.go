package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/landing"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/internal/view"
	"github.com/nfrund/gatehouse/web/src/templates/layouts"
	"github.com/nfrund/gatehouse/web/src/templates/pages"
)

const (
	menuToggle = "toggle"
	menuClose  = "close"

	msgLoggedOut    = "You have been logged out."
	msgLogoutFailed = "Sign-out did not complete at the identity service."
)

// UserSource lists the rows of the team table.
type UserSource interface {
	Users(ctx context.Context) []domain.UserRow
}

// LandingHandler serves the guarded landing page.
type LandingHandler struct {
	gateway      Gateway
	content      *landing.Content
	users        UserSource
	awaitTimeout time.Duration
	now          func() time.Time
}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler(gateway Gateway, content *landing.Content, users UserSource, awaitTimeout time.Duration) *LandingHandler {
	return &LandingHandler{
		gateway:      gateway,
		content:      content,
		users:        users,
		awaitTimeout: awaitTimeout,
		now:          time.Now,
	}
}

// Landing renders the landing page (GET /landing).
func (h *LandingHandler) Landing(c echo.Context) error {
	page := h.page(c)
	return c.Render(http.StatusOK, "", layouts.Base(h.content.Brand, view.GetFlashData(c), pages.Landing(page)))
}

// Menu toggles or closes the navbar menu (POST /landing/menu) and returns
// the navbar partial.
func (h *LandingHandler) Menu(c echo.Context) error {
	var req MenuRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid menu action")
	}

	page := h.page(c)
	page.MenuOpen = req.MenuOpen
	switch req.Action {
	case menuToggle:
		page.ToggleMenu()
	case menuClose:
		page.CloseMenu()
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid menu action")
	}
	return c.Render(http.StatusOK, "", pages.Navbar(page))
}

// Logout signs the session out (POST /logout). The local session is
// cleared even when the provider call fails.
func (h *LandingHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	sid := middleware.SessionIDFrom(c)

	if err := h.gateway.Logout(ctx, sid); err != nil {
		logger.Error("Logout did not complete cleanly", "error", err)
		view.SetFlashError(c, domain.UserMessage(err, msgLogoutFailed))
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.awaitTimeout)
	defer cancel()
	if _, err := h.gateway.Await(waitCtx, sid, false); err != nil {
		logger.Warn("Session notification did not arrive in time", "present", false, "error", err)
	}

	view.SetFlashSuccess(c, msgLoggedOut)
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (h *LandingHandler) page(c echo.Context) landing.Page {
	var email string
	if st, ok := middleware.CurrentState(c); ok {
		email = st.Email
	}
	return landing.NewPage(h.content, email, h.users.Users(c.Request().Context()), h.now())
}
