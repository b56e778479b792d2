package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/metrics"
	"github.com/nfrund/gatehouse/internal/session"
)

// SessionContextKey holds the session.State of a guarded request.
const SessionContextKey = "session"

// LoginPath is where unauthenticated navigation is sent.
const LoginPath = "/login"

// SessionReader reports the current session of a browser.
type SessionReader interface {
	CurrentSession(ctx context.Context, sid string) session.State
}

// Guard admits a request only when its browser session is present;
// otherwise it redirects to the login page. Guard keeps no state between
// requests.
func Guard(sessions SessionReader, rec metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := sessions.CurrentSession(c.Request().Context(), SessionIDFrom(c))
			if !st.Present {
				rec.RecordGuardDecision(false)
				FromContext(c.Request().Context()).Debug("Guard redirecting to login")
				return redirect(c, LoginPath)
			}

			rec.RecordGuardDecision(true)
			c.Set(SessionContextKey, st)
			return next(c)
		}
	}
}

// CurrentState returns the session placed on the context by Guard.
func CurrentState(c echo.Context) (session.State, bool) {
	st, ok := c.Get(SessionContextKey).(session.State)
	return st, ok
}

// redirect sends a 303, or an HX-Redirect for htmx requests, which would
// otherwise swap the followed response into the page.
func redirect(c echo.Context, to string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, to)
}
