package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nfrund/gatehouse/internal/config"
	"github.com/nfrund/gatehouse/internal/directory"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/email"
	"github.com/nfrund/gatehouse/internal/handlers"
	"github.com/nfrund/gatehouse/internal/identity"
	"github.com/nfrund/gatehouse/internal/identity/local"
	"github.com/nfrund/gatehouse/internal/identity/surreal"
	"github.com/nfrund/gatehouse/internal/landing"
	"github.com/nfrund/gatehouse/internal/metrics"
	"github.com/nfrund/gatehouse/internal/pubsub"
	"github.com/nfrund/gatehouse/internal/rendering"
	"github.com/nfrund/gatehouse/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
)

// identityBackend is a Provider the server owns and must close.
type identityBackend interface {
	identity.Provider
	io.Closer
}

// closers collects the resources built by the injector, in build order.
type closers struct {
	mu    sync.Mutex
	names []string
	list  []io.Closer
}

func (c *closers) add(name string, closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.list = append(c.list, closer)
}

// closeAll closes in reverse build order.
func (c *closers) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := len(c.list) - 1; n >= 0; n-- {
		if err := c.list[n].Close(); err != nil {
			slog.Error("Failed to close resource", "resource", c.names[n], "error", err)
		}
	}
	c.names, c.list = nil, nil
}

// newInjector registers every application service. Services are built
// lazily on first invoke; ctx bounds the background work they start.
func newInjector(ctx context.Context, cfg config.Provider, res *closers) *do.RootScope {
	i := do.New()

	do.Provide(i, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})
	do.Provide(i, func(i do.Injector) (*metrics.Collector, error) {
		return metrics.NewCollector(do.MustInvoke[*prometheus.Registry](i)), nil
	})

	do.Provide(i, func(i do.Injector) (session.Store, error) {
		var store session.Store = session.NewMemoryStore()
		if cfg.GetSessionStore() == "redis" {
			rs, err := session.NewRedisStore(ctx, cfg.GetRedisAddr())
			if err != nil {
				return nil, err
			}
			store = rs
		}
		res.add("session store", store)
		return store, nil
	})
	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		bus := pubsub.NewWatermillBridge()
		res.add("session bus", bus)
		return bus, nil
	})
	do.Provide(i, func(i do.Injector) (*session.Tracker, error) {
		store, err := do.Invoke[session.Store](i)
		if err != nil {
			return nil, err
		}
		tracker := session.NewTracker(store, cfg.GetSessionTTL())
		if err := tracker.Start(ctx, do.MustInvoke[*pubsub.WatermillBridge](i)); err != nil {
			return nil, err
		}
		return tracker, nil
	})

	do.Provide(i, func(i do.Injector) (domain.EmailSender, error) {
		return email.NewSender(cfg)
	})
	do.Provide(i, func(i do.Injector) (identityBackend, error) {
		emailer, err := do.Invoke[domain.EmailSender](i)
		if err != nil {
			return nil, err
		}
		backend, err := newIdentityBackend(ctx, cfg, emailer)
		if err != nil {
			return nil, err
		}
		res.add("identity provider", backend)
		return backend, nil
	})
	do.Provide(i, func(i do.Injector) (*identity.Gateway, error) {
		backend, err := do.Invoke[identityBackend](i)
		if err != nil {
			return nil, err
		}
		tracker, err := do.Invoke[*session.Tracker](i)
		if err != nil {
			return nil, err
		}
		return identity.NewGateway(
			backend,
			do.MustInvoke[*pubsub.WatermillBridge](i),
			tracker,
			identity.WithMetrics(do.MustInvoke[*metrics.Collector](i)),
		), nil
	})

	do.Provide(i, func(i do.Injector) (*directory.Directory, error) {
		dir, err := directory.New(afero.NewOsFs(), cfg.GetUsersFile())
		if err != nil {
			return nil, err
		}
		if err := dir.Watch(ctx); err != nil {
			slog.Warn("User list hot reload disabled", "error", err)
		}
		return dir, nil
	})
	do.Provide(i, func(i do.Injector) (*landing.Content, error) {
		return landing.Load()
	})
	do.Provide(i, func(i do.Injector) (*rendering.UniversalRenderer, error) {
		return rendering.NewUniversalRenderer(), nil
	})

	do.Provide(i, func(i do.Injector) (*handlers.AuthHandler, error) {
		return handlers.NewAuthHandler(do.MustInvoke[*identity.Gateway](i), cfg.GetAuthAwaitTimeout()), nil
	})
	do.Provide(i, func(i do.Injector) (*handlers.LandingHandler, error) {
		return handlers.NewLandingHandler(
			do.MustInvoke[*identity.Gateway](i),
			do.MustInvoke[*landing.Content](i),
			do.MustInvoke[*directory.Directory](i),
			cfg.GetAuthAwaitTimeout(),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*handlers.UsersHandler, error) {
		return handlers.NewUsersHandler(do.MustInvoke[*directory.Directory](i)), nil
	})
	do.Provide(i, func(i do.Injector) (*handlers.SessionStream, error) {
		return handlers.NewSessionStream(
			do.MustInvoke[*identity.Gateway](i),
			do.MustInvoke[*rendering.UniversalRenderer](i),
		), nil
	})

	return i
}

func newIdentityBackend(ctx context.Context, cfg config.Provider, emailer domain.EmailSender) (identityBackend, error) {
	switch cfg.GetIdentityProvider() {
	case "local":
		p, err := local.New(ctx, local.Config{
			DSN:         cfg.GetLocalDBDSN(),
			TokenSecret: cfg.GetTokenSecret(),
			TokenTTL:    cfg.GetSessionTTL(),
			BaseURL:     cfg.GetAppBaseURL(),
		}, emailer)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "surreal":
		p, err := surreal.New(ctx, cfg, emailer)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.GetIdentityProvider())
	}
}
