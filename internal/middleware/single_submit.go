package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// InFlightMessage is returned for a submission made while another one from
// the same browser session is still running.
const InFlightMessage = "A request is already in progress."

// SingleSubmit rejects a request with 409 while an earlier request from the
// same browser session is still being handled. It must run after SessionID.
func SingleSubmit() echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		inFlight = make(map[string]struct{})
	)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := SessionIDFrom(c)
			if sid == "" {
				return next(c)
			}

			mu.Lock()
			if _, busy := inFlight[sid]; busy {
				mu.Unlock()
				FromContext(c.Request().Context()).Info("Rejected concurrent submission")
				return c.String(http.StatusConflict, InFlightMessage)
			}
			inFlight[sid] = struct{}{}
			mu.Unlock()

			defer func() {
				mu.Lock()
				delete(inFlight, sid)
				mu.Unlock()
			}()
			return next(c)
		}
	}
}
