// Package handler holds the HTTP error envelope shared by the API handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/middleware"
)

// ValidationErrorCode is the API code for field-level validation failures.
const ValidationErrorCode = "VALIDATION_ERROR"

// errorBody is the JSON error envelope: {"error": {"code", "message", "fields"}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse logs err and writes it as the JSON error envelope. The code
// is the error's Reason when set, otherwise its upper-cased domain code.
// Internal errors never expose their message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsValidationError(err) {
		ValidationErrorResponse(w, r, err)
		return
	}

	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	logError(r, err, status)
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    domain.ErrorReason(err),
		Message: domain.ErrorMessage(err),
	}})
}

// ValidationErrorResponse writes a 400 carrying per-field messages. Errors
// that are not a domain.ValidationError fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	logError(r, err, http.StatusBadRequest)
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    ValidationErrorCode,
		Message: "Invalid input.",
		Fields:  fields,
	}})
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// InternalErrorResponse logs err and returns a generic 500 response.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

func logError(r *http.Request, err error, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", domain.ErrorCode(err),
		"op", domain.ErrorOp(err),
		"status", status,
	}
	logger := middleware.GetLogger(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
		return
	}
	logger.Log(r.Context(), slog.LevelInfo, "request rejected", attrs...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
