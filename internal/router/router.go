package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/julhaas91/boilerplate-cloud-run/internal/handler" // endpoint handlers
)

// RegisterRoutes maps the public endpoints onto e. The cache middleware, if
// any, wraps only /process; the health check always reaches its handler.
func RegisterRoutes(e *echo.Echo, cache ...echo.MiddlewareFunc) {
	// Liveness probe for load balancers and the platform.
	e.GET("/health", handler.Health)

	// Upper-case the "message" field of a JSON body. Responses are pure
	// functions of the body, so they may be served from the cache.
	e.POST("/process", handler.Process, cache...)
}
