package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nfrund/gatehouse/internal/identity/local"
	"github.com/samber/do/v2"
)

const purgeInterval = time.Hour

// Start runs the HTTP server until an interrupt or terminate signal, then
// shuts down gracefully.
func (s *Server) Start(addr string) {
	go func() {
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Shutting down the server", "error", err)
			os.Exit(1)
		}
	}()
	go s.purgeLoop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// Shutdown stops accepting requests, waits for in-flight ones, and
// releases the application services.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.E.Shutdown(ctx)
	s.close()
	return err
}

// purgeLoop drops expired reset codes and token revocations from the local
// provider. Other providers expire their own records.
func (s *Server) purgeLoop() {
	p, ok := do.MustInvoke[identityBackend](s.injector).(*local.Provider)
	if !ok {
		return
	}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Purge(ctx); err != nil {
				slog.Error("Failed to purge expired provider records", "error", err)
			}
			cancel()
		}
	}
}
