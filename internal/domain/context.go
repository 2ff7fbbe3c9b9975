// Package domain provides the core shipment, import and verification types
// for Parcelry along with application errors and context helpers.
package domain

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey contextKey = iota

	// jobIDContextKey stores the background job ID being processed.
	jobIDContextKey
)

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// NewContextWithJobID returns a new context carrying the job being processed.
func NewContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDContextKey, jobID)
}

// JobIDFromContext retrieves the job ID from context.
func JobIDFromContext(ctx context.Context) string {
	jobID, _ := ctx.Value(jobIDContextKey).(string)
	return jobID
}
