package pages

import (
	"bytes"
	"testing"
	"time"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/landing"
	"github.com/nfrund/gatehouse/internal/session"
	"github.com/nfrund/gatehouse/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cmp "maragu.dev/gomponents"
)

func render(t *testing.T, node cmp.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, node.Render(&buf))
	return buf.String()
}

func testPage(t *testing.T, email string) landing.Page {
	t.Helper()
	content, err := landing.Load()
	require.NoError(t, err)
	users := []domain.UserRow{{ID: 1, Name: "Jordan Lee", Email: "jordan@example.com", Role: "admin", Status: "active"}}
	return landing.NewPage(content, email, users, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
}

func TestCredentialsForm(t *testing.T) {
	t.Run("untouched form shows no errors but blocks submit", func(t *testing.T) {
		out := render(t, CredentialsForm(validation.NewFormState("", "")))

		assert.NotContains(t, out, validation.EmailMessage)
		assert.Contains(t, out, `<button type="submit" disabled>Login</button>`)
		assert.Contains(t, out, `formaction="/signup"`)
	})

	t.Run("submitting relabels the button", func(t *testing.T) {
		form := validation.NewFormState("a@example.com", "Secret123")
		form.Submitting = true
		out := render(t, CredentialsForm(form))

		assert.Contains(t, out, "Logging in…")
	})

	t.Run("outcome messages", func(t *testing.T) {
		form := validation.NewFormState("a@example.com", "Secret123")
		form.Error = "Invalid email or password."
		out := render(t, CredentialsForm(form))

		assert.Contains(t, out, `role="alert"`)
		assert.Contains(t, out, "Invalid email or password.")
	})

	t.Run("password is never echoed back", func(t *testing.T) {
		out := render(t, CredentialsForm(validation.NewFormState("a@example.com", "Secret123")))
		assert.NotContains(t, out, "Secret123")
		assert.Contains(t, out, `value="a@example.com"`)
	})
}

func TestValidationPartial(t *testing.T) {
	form := validation.NewFormState("bad", "")
	form.Touch(validation.FieldEmail)
	out := render(t, ValidationPartial(form))

	assert.Contains(t, out, `<div id="error-email" class="field-error" hx-swap-oob="true">`+validation.EmailMessage+`</div>`)
	assert.Contains(t, out, `<div id="error-password" class="field-error" hx-swap-oob="true"></div>`)
	assert.Contains(t, out, `<input type="hidden" name="touched" value="email">`)
	assert.NotContains(t, out, `id="credentials"`)
}

func TestForgotDialog(t *testing.T) {
	assert.Contains(t, render(t, ForgotDialog(ForgotData{})), `<dialog id="forgot-dialog">`)

	out := render(t, ForgotDialog(ForgotData{Open: true, Email: "a@example.com", Success: "sent"}))
	assert.Contains(t, out, `<dialog id="forgot-dialog" open>`)
	assert.Contains(t, out, `value="a@example.com"`)
	assert.Contains(t, out, `<div class="alert-success">sent</div>`)
}

func TestLanding(t *testing.T) {
	out := render(t, Landing(testPage(t, "a@example.com")))

	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "Jordan Lee")
	assert.Contains(t, out, "<blockquote>“")
	assert.Contains(t, out, "© 2025")
	assert.Contains(t, out, `ws-connect="/ws/session"`)
	assert.Contains(t, out, `action="/logout"`)
}

func TestNavbar(t *testing.T) {
	p := testPage(t, "")
	closed := render(t, Navbar(p))
	assert.Contains(t, closed, `class="navbar"`)
	assert.Contains(t, closed, landing.GuestName)
	assert.Contains(t, closed, `&#34;menu_open&#34;: &#34;false&#34;`)

	p.ToggleMenu()
	open := render(t, Navbar(p))
	assert.Contains(t, open, `class="navbar open"`)
	assert.Contains(t, open, `aria-expanded="true"`)
}

func TestSessionBanner(t *testing.T) {
	present := render(t, SessionBanner(session.State{Present: true}))
	assert.Equal(t, `<div id="session-status" hx-swap-oob="true"></div>`, present)

	signedOut := render(t, SessionBanner(session.State{Reason: session.ReasonSignout}))
	assert.Contains(t, signedOut, "You have been signed out.")

	expired := render(t, SessionBanner(session.State{Reason: session.ReasonExpired}))
	assert.Contains(t, expired, "Your session has expired.")
	assert.Contains(t, expired, `href="/login"`)
}

func TestResetPassword(t *testing.T) {
	out := render(t, ResetPassword(ResetPasswordData{Code: "abc"}))
	assert.Contains(t, out, `<input type="hidden" name="code" value="abc">`)
	assert.Contains(t, out, `name="password_confirm"`)
}
