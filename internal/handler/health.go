package handler // HTTP handlers for the public endpoints

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// HealthResponse is the body returned by the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health is used by load balancers and the platform's liveness probe to
// verify that the process is serving. It has no dependencies and always
// answers 200 {"status":"ok"}.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"}) // JSON object, not a pre-encoded string
}
