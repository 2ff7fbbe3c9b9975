// Package api implements the JSON HTTP API on echo.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/handler"
	"github.com/dukerupert/parcelry/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator. Failures come
// back as a domain.ValidationError keyed by json field name.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator installed on the echo server.
func NewValidator() *Validator {
	return &Validator{validate: service.NewValidator()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	return service.ValidateStruct(v.validate, "request", i)
}

// HTTPErrorHandler renders every handler error as the JSON error envelope.
// Errors raised by echo itself (unknown route, bad method) keep their status.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			handler.InternalErrorResponse(c.Response(), c.Request(), he)
			return
		}
		writeHTTPError(c, he)
		return
	}

	handler.ErrorResponse(c.Response(), c.Request(), err)
}

func writeHTTPError(c echo.Context, he *echo.HTTPError) {
	message, ok := he.Message.(string)
	if !ok || message == "" {
		message = http.StatusText(he.Code)
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
	if he.Code == http.StatusNotFound {
		code = "NOT_FOUND"
		message = "Not found."
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(he.Code)
		return
	}
	c.JSON(he.Code, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// pathID parses a UUID path parameter. A malformed id cannot name a record,
// so it is reported as not found.
func pathID(c echo.Context, name, resource string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NotFound("api.path", resource, raw)
	}
	return id, nil
}

// bindJSON decodes the request body into v.
func bindJSON(c echo.Context, op string, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return domain.Invalid(op, "Malformed request body.")
	}
	return nil
}
