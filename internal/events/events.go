// Package events publishes pipeline notifications for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subjects published by the pipeline.
const (
	SubjectImportCompleted   = "parcelry.imports.completed"
	SubjectShipmentsVerified = "parcelry.shipments.verified"
)

// Publisher is the interface used by services to publish events.
// Implementations must treat delivery as best effort; callers log and
// continue on error.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// ImportCompleted is published when an import finishes its pipeline.
type ImportCompleted struct {
	ImportJobID uuid.UUID `json:"import_job_id"`
	Status      string    `json:"status"`
	TotalRows   int       `json:"total_rows"`
	ReadyCount  int       `json:"ready_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ShipmentsVerified is published after a batch of shipments was re-verified.
type ShipmentsVerified struct {
	ShipmentIDs []uuid.UUID `json:"shipment_ids"`
	Count       int         `json:"count"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// MockPublisher records published events for tests.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, subject string, event any) error
	Published   []Published
}

// Published is one event captured by MockPublisher.
type Published struct {
	Subject string
	Event   any
}

// Publish implements Publisher.
func (m *MockPublisher) Publish(ctx context.Context, subject string, event any) error {
	m.Published = append(m.Published, Published{Subject: subject, Event: event})
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, subject, event)
	}
	return nil
}

// Close implements Publisher.
func (m *MockPublisher) Close() error { return nil }
