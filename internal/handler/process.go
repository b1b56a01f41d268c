package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/julhaas91/boilerplate-cloud-run/internal/apperr"
	"github.com/julhaas91/boilerplate-cloud-run/internal/transform"
)

const messageField = "message"

// ProcessResponse is the body returned by Process.
type ProcessResponse struct {
	UppercaseMessage string `json:"uppercaseMessage"`
}

// Process upper-cases the optional "message" string of a JSON object body.
// A missing message is treated as the empty string, any non-string value
// (null included) is rejected, and unknown keys are ignored. The body is
// parsed as JSON whatever its Content-Type.
func Process(c echo.Context) error {
	msg, err := readMessage(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProcessResponse{UppercaseMessage: transform.Uppercase(msg)})
}

func readMessage(c echo.Context) (string, error) {
	req := c.Request()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		// BodyLimit reports oversized bodies through the read error.
		return "", err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", apperr.BadRequest(apperr.CodeEmptyBody, "request body must be a JSON object", nil)
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var fields map[string]json.RawMessage
	if err := c.Echo().JSONSerializer.Deserialize(c, &fields); err != nil {
		return "", decodeError(err)
	}
	if fields == nil { // top-level null decodes without error
		return "", apperr.BadRequest(apperr.CodeInvalidBody, "request body must be a JSON object", nil).
			WithDetails("got", "null")
	}

	v, ok := fields[messageField]
	if !ok {
		return "", nil
	}
	// Unmarshal leaves a string untouched for null, so reject by kind first.
	if kind := jsonKind(v); kind != "string" {
		return "", apperr.BadRequest(apperr.CodeInvalidMessage, "message must be a string", nil).
			WithDetails("field", messageField).
			WithDetails("got", kind)
	}
	var msg string
	if err := json.Unmarshal(v, &msg); err != nil {
		return "", apperr.BadRequest(apperr.CodeInvalidMessage, "message is not a valid JSON string", err).
			WithDetails("field", messageField)
	}
	return msg, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return apperr.BadRequest(apperr.CodeInvalidBody, "request body must be a JSON object", err).
			WithDetails("got", typeErr.Value)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return apperr.BadRequest(apperr.CodeMalformedJSON, "request body is not valid JSON", err)
	}
	return err
}

func jsonKind(v json.RawMessage) string {
	switch bytes.TrimSpace(v)[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
