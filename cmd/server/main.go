package main // Entry point package

import (
	"context"  // cancellation on shutdown signals
	"log/slog" // structured logging
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9" // optional response cache store

	"github.com/julhaas91/boilerplate-cloud-run/internal/config" // environment config loader
	"github.com/julhaas91/boilerplate-cloud-run/internal/logger" // slog construction
	"github.com/julhaas91/boilerplate-cloud-run/internal/server" // echo assembly and lifecycle
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1) // deferred cleanup in run has already happened
	}
}

// run owns every deferred cleanup so main can exit with a status code.
func run() error {
	cfg, err := config.Load() // .env file, then environment
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	slog.SetDefault(log) // main's final error goes through the same handler

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is only needed for the response cache; without it the service
	// runs uncached.
	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb, err = config.NewRedisClient(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			log.Warn("response cache disabled", slog.Any("error", err))
		}
	}

	return server.New(cfg, log, rdb).Run(ctx) // blocks until SIGINT/SIGTERM
}
