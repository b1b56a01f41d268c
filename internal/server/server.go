// Package server assembles the echo instance and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/julhaas91/boilerplate-cloud-run/internal/apperr"
	"github.com/julhaas91/boilerplate-cloud-run/internal/config"
	"github.com/julhaas91/boilerplate-cloud-run/internal/middleware"
	"github.com/julhaas91/boilerplate-cloud-run/internal/router"
)

// Server is the HTTP service with its optional cache store.
type Server struct {
	Echo   *echo.Echo
	cfg    config.Config
	logger *slog.Logger
	rdb    *redis.Client
}

// New builds the echo instance with the middleware chain and routes. rdb may
// be nil, in which case responses are never cached.
func New(cfg config.Config, logger *slog.Logger, rdb *redis.Client) *Server {
	e := echo.New()
	e.HideBanner = true                                      // startup is logged through slog instead
	e.HidePort = true                                        // same
	e.HTTPErrorHandler = apperr.NewHTTPErrorHandler(logger) // JSON error envelope for every failure

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", slog.Any("error", err), slog.String("stack", string(stack)))
			return err
		},
	}))
	e.Use(echomw.RequestID())               // X-Request-Id on every reply
	e.Use(middleware.RequestLogger(logger)) // one record per request
	e.Use(echomw.BodyLimit(cfg.BodyLimit))  // 413 for oversized bodies

	router.RegisterRoutes(e, middleware.NewRedisCache(cfg.Cache, rdb, logger))

	return &Server{Echo: e, cfg: cfg, logger: logger, rdb: rdb}
}

// Run serves on cfg.Addr() until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout and releases the cache store.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Echo.Listener = ln
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", ln.Addr().String()), slog.String("env", s.cfg.Env))
		errCh <- s.Echo.Start("")
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", slog.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.Echo.Shutdown(shutdownCtx)
	s.close()
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) close() {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Close(); err != nil {
		s.logger.Error("close redis", slog.Any("error", err))
	}
}
