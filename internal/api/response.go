package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	repertoire "github.com/karpatkey/defi-repertoire"
	"github.com/karpatkey/defi-repertoire/multisend"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	if id, ok := c.Get(requestIDKey); ok {
		meta["request_id"] = id
	}
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail writes err with the status of its kind. Validation failures carry
// every offending field.
func Fail(c *gin.Context, err error) {
	kind := repertoire.ErrorKind(err)
	meta := map[string]any{"kind": kind}
	var validErr *repertoire.ValidationError
	if errors.As(err, &validErr) {
		meta["fields"] = validErr.Fields
	}
	Error(c, statusFor(err), err.Error(), meta)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, multisend.ErrEmpty), errors.Is(err, multisend.ErrInvalidRole):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch repertoire.ErrorKind(err) {
	case "validation":
		return http.StatusUnprocessableEntity
	case "not_found", "unsupported":
		return http.StatusNotFound
	case "domain":
		return http.StatusConflict
	case "upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// invalidField reports a malformed request parameter as a validation failure.
func invalidField(field string, err error) error {
	return &repertoire.ValidationError{Fields: []repertoire.FieldError{{Field: field, Reason: err.Error()}}}
}
