package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/gatehouse/internal/config"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/identity"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/internal/rendering"
	"github.com/nfrund/gatehouse/internal/validation"
	"github.com/samber/do/v2"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	Cfg config.Provider

	injector  *do.RootScope
	resources *closers
	ctx       context.Context
	cancel    context.CancelFunc
}

// Option replaces a service before the server builds its dependencies.
type Option func(do.Injector)

// WithEmailSender replaces the configured email provider.
func WithEmailSender(sender domain.EmailSender) Option {
	return func(i do.Injector) {
		do.OverrideValue(i, sender)
	}
}

// New builds the application services and the echo instance. Routes are
// added by RegisterRoutes.
func New(ctx context.Context, cfg config.Provider, opts ...Option) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)
	resources := &closers{}
	injector := newInjector(ctx, cfg, resources)
	for _, opt := range opts {
		opt(injector)
	}

	s := &Server{
		E:         echo.New(),
		Cfg:       cfg,
		injector:  injector,
		resources: resources,
		ctx:       ctx,
		cancel:    cancel,
	}

	// Build the gateway eagerly so a bad provider or store configuration
	// fails at startup rather than on the first login.
	if _, err := do.Invoke[*identity.Gateway](injector); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to initialize credential gateway: %w", err)
	}

	s.E.HideBanner = true
	s.E.Renderer = do.MustInvoke[*rendering.UniversalRenderer](injector)
	s.E.Validator = validation.New()
	setupErrorHandling(s.E)

	s.E.Use(echomw.RequestID())
	s.E.Use(middleware.Logger)
	s.E.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	s.E.Use(session.Middleware(store))
	s.E.Use(middleware.SessionID())

	return s, nil
}

// Gateway returns the credential gateway, useful for testing.
func (s *Server) Gateway() *identity.Gateway {
	return do.MustInvoke[*identity.Gateway](s.injector)
}

// done is closed when the server shuts down.
func (s *Server) done() <-chan struct{} {
	return s.ctx.Done()
}

// setupErrorHandling logs unhandled errors with a stack trace. Not-found
// and method-not-allowed requests are sent to the login page.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he, ok := err.(*echo.HTTPError)
		if ok {
			if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
				if rerr := c.Redirect(http.StatusSeeOther, middleware.LoginPath); rerr != nil {
					e.DefaultHTTPErrorHandler(rerr, c)
				}
				return
			}
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"error", err.Error(),
			"stack_trace", string(debug.Stack()),
		)
		e.DefaultHTTPErrorHandler(echo.NewHTTPError(http.StatusInternalServerError), c)
	}
}

// close releases every resource held by the application services.
func (s *Server) close() {
	s.cancel()
	s.injector.Shutdown()
	s.resources.closeAll()
}
