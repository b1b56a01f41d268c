package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders errors as
// ErrorResponse. Failed requests are logged by the request logger; logger
// only records replies that could not be written.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := normalize(err)
		body := ErrorResponse{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(appErr.StatusCode)
		} else {
			werr = c.JSON(appErr.StatusCode, body)
		}
		if werr != nil {
			logger.Error("write error response",
				slog.String("code", appErr.Code),
				slog.Any("error", werr),
				slog.String("cause", err.Error()),
			)
		}
	}
}

// normalize maps any error onto an *AppError.
func normalize(err error) *AppError {
	if appErr, ok := As(err); ok {
		return appErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		switch he.Code {
		case http.StatusNotFound:
			return NotFound(msg)
		case http.StatusMethodNotAllowed:
			return MethodNotAllowed(msg)
		case http.StatusRequestEntityTooLarge:
			return TooLarge(msg)
		}
		if he.Code >= http.StatusBadRequest && he.Code < http.StatusInternalServerError {
			return &AppError{
				Type:       TypeBadRequest,
				Message:    msg,
				Code:       CodeBadRequest,
				StatusCode: he.Code,
				Cause:      he.Internal,
			}
		}
		return Internal(http.StatusText(http.StatusInternalServerError), err)
	}

	return Internal(http.StatusText(http.StatusInternalServerError), err)
}
