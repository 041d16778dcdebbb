package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/app"
	"github.com/vasapolrittideah/notes-api/services/notes-service/internal/config"
	"github.com/vasapolrittideah/notes-api/shared/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(cfg.Log, cfg.Consul.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, l).Run(ctx); err != nil {
		l.Error().Err(err).Msg("notes service stopped with error")
		stop()
		os.Exit(1)
	}
}
