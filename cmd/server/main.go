package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/gatehouse/internal/config"
	"github.com/nfrund/gatehouse/internal/logging"
	"github.com/nfrund/gatehouse/internal/server"
)

func main() {
	// config.New loads .env first, so LOG_FORMAT and LOG_LEVEL may come from it.
	cfg := config.New()
	logging.New()

	s, err := server.New(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	s.RegisterRoutes()

	slog.Info("Starting server", "addr", cfg.GetAppAddr(), "identity_provider", cfg.GetIdentityProvider())
	s.Start(cfg.GetAppAddr())
}
