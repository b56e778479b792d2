package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/handlers"
	"github.com/nfrund/gatehouse/internal/identity"
	"github.com/nfrund/gatehouse/internal/metrics"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/web"
	"github.com/samber/do/v2"
)

// authSubmitsPerMinute caps auth form posts per client and route.
const authSubmitsPerMinute = 10

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	gateway := do.MustInvoke[*identity.Gateway](s.injector)
	collector := do.MustInvoke[*metrics.Collector](s.injector)
	authHandler := do.MustInvoke[*handlers.AuthHandler](s.injector)
	landingHandler := do.MustInvoke[*handlers.LandingHandler](s.injector)
	usersHandler := do.MustInvoke[*handlers.UsersHandler](s.injector)
	sessionStream := do.MustInvoke[*handlers.SessionStream](s.injector)

	// The local provider verifies its own tokens; others only allow
	// session-backed API access.
	verifier, _ := do.MustInvoke[identityBackend](s.injector).(identity.TokenVerifier)

	rateLimiter := middleware.RateLimiter(authSubmitsPerMinute)
	singleSubmit := middleware.SingleSubmit()
	guard := middleware.Guard(gateway, collector)

	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	s.E.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
	})

	s.E.GET("/login", authHandler.LoginGet)
	s.E.POST("/login", authHandler.LoginPost, rateLimiter, singleSubmit)
	s.E.POST("/signup", authHandler.SignupPost, rateLimiter, singleSubmit)
	s.E.POST("/login/validate", authHandler.ValidatePost)

	s.E.POST("/forgot-password", authHandler.ForgotPasswordPost, rateLimiter, singleSubmit)
	s.E.GET("/reset-password", authHandler.ResetPasswordGet)
	s.E.POST("/reset-password", authHandler.ResetPasswordPost, rateLimiter, singleSubmit)

	protected := s.E.Group("", guard)
	protected.GET("/landing", landingHandler.Landing)
	protected.POST("/landing/menu", landingHandler.Menu)
	protected.POST("/logout", landingHandler.Logout, singleSubmit)

	s.E.GET("/ws/session", sessionStream.ServeWS)

	api := s.E.Group("/api", middleware.APIAuth(gateway, verifier, collector))
	api.GET("/users", usersHandler.List)

	s.E.GET("/health", handlers.Health)
	s.E.GET("/metrics", echo.WrapHandler(collector.Handler()))
}
