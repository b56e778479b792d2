package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/identity"
	"github.com/nfrund/gatehouse/internal/metrics"
)

// IdentityContextKey holds the *domain.Identity of a bearer-authenticated
// API request.
const IdentityContextKey = "identity"

// APIAuth admits API requests carrying a valid bearer token, or coming from
// a browser whose session is present. Rejections are JSON 401s. verifier may
// be nil when the provider cannot verify tokens.
func APIAuth(sessions SessionReader, verifier identity.TokenVerifier, rec metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				if verifier == nil {
					rec.RecordGuardDecision(false)
					return unauthorized(c)
				}
				id, err := verifier.VerifyToken(ctx, token)
				if err != nil {
					rec.RecordGuardDecision(false)
					FromContext(ctx).Debug("Rejected bearer token", "error", err)
					return unauthorized(c)
				}
				rec.RecordGuardDecision(true)
				c.Set(IdentityContextKey, id)
				return next(c)
			}

			st := sessions.CurrentSession(ctx, SessionIDFrom(c))
			if !st.Present {
				rec.RecordGuardDecision(false)
				return unauthorized(c)
			}
			rec.RecordGuardDecision(true)
			c.Set(SessionContextKey, st)
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity placed on the context by APIAuth.
func CurrentIdentity(c echo.Context) (*domain.Identity, bool) {
	id, ok := c.Get(IdentityContextKey).(*domain.Identity)
	return id, ok
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
