package domain

import (
	"context"
	"testing"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("empty when unset", func(t *testing.T) {
		if got := RequestIDFromContext(context.Background()); got != "" {
			t.Errorf("expected empty request ID, got %q", got)
		}
	})

	t.Run("round trips", func(t *testing.T) {
		ctx := NewContextWithRequestID(context.Background(), "req-123")
		if got := RequestIDFromContext(ctx); got != "req-123" {
			t.Errorf("expected %q, got %q", "req-123", got)
		}
	})
}

func TestJobIDContext(t *testing.T) {
	ctx := NewContextWithJobID(context.Background(), "job-1")
	if got := JobIDFromContext(ctx); got != "job-1" {
		t.Errorf("expected %q, got %q", "job-1", got)
	}
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("job ID leaked into request ID: %q", got)
	}
}
