// Package middleware contains the echo middleware specific to this service.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/julhaas91/boilerplate-cloud-run/internal/logger"
)

// RequestLogger writes one structured record per request and is the only
// place a failed request is logged. Errors are routed through the echo error
// handler first so the logged status matches the status sent to the client.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if cache := c.Response().Header().Get(HeaderXCache); cache != "" {
				attrs = append(attrs, slog.String("cache", cache))
			}

			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				level = slog.LevelWarn
			}
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log := base
			if v.RequestID != "" {
				log = logger.WithRequestID(base, v.RequestID)
			}
			log.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}
