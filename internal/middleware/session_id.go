package middleware

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	// SessionName is the cookie carrying the browser session id.
	SessionName = "gatehouse"
	// SessionIDContextKey holds the browser session id on the echo context.
	SessionIDContextKey = "session_id"

	sessionIDValue = "sid"
)

// SessionID assigns every browser a stable session id, stored in the
// SessionName cookie, and puts it on the echo context. It requires the
// echo-contrib session middleware.
func SessionID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				// A cookie from an old secret fails to decode; gorilla still
				// hands back a fresh session to fill in.
				FromContext(c.Request().Context()).Debug("Discarding unreadable session cookie", "error", err)
			}
			if sess == nil {
				return fmt.Errorf("session middleware is not configured")
			}

			sid, _ := sess.Values[sessionIDValue].(string)
			if sid == "" {
				sid = uuid.NewString()
				sess.Values[sessionIDValue] = sid
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return fmt.Errorf("failed to save session cookie: %w", err)
				}
			}

			c.Set(SessionIDContextKey, sid)
			setLogger(c, FromContext(c.Request().Context()).With("sid", sid))
			return next(c)
		}
	}
}

// SessionIDFrom returns the browser session id set by SessionID.
func SessionIDFrom(c echo.Context) string {
	sid, _ := c.Get(SessionIDContextKey).(string)
	return sid
}
