package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/google/uuid"
)

// AttemptStore implements service.AttemptStore. Rows are only ever inserted.
type AttemptStore struct {
	db *sql.DB
}

var _ service.AttemptStore = (*AttemptStore)(nil)

// NewAttemptStore creates a new PostgreSQL-backed attempt log.
func NewAttemptStore(db *sql.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// CreateAttempt implements service.AttemptStore.
func (s *AttemptStore) CreateAttempt(ctx context.Context, a *domain.VerificationAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_attempts
			(id, shipment_id, provider, status, request_payload, response_payload, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ShipmentID, a.Provider, a.Status,
		rawJSON(a.RequestPayload), rawJSON(a.ResponsePayload), nullString(a.Error), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("attempt.create: %w", err)
	}
	return nil
}

// ListAttempts implements service.AttemptStore.
func (s *AttemptStore) ListAttempts(ctx context.Context, shipmentID uuid.UUID) ([]domain.VerificationAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shipment_id, provider, status, request_payload, response_payload, error, created_at
		FROM verification_attempts
		WHERE shipment_id = $1
		ORDER BY created_at, id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("attempt.list: %w", err)
	}
	defer rows.Close()

	attempts := []domain.VerificationAttempt{}
	for rows.Next() {
		var (
			a        domain.VerificationAttempt
			req, res []byte
			errText  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ShipmentID, &a.Provider, &a.Status, &req, &res, &errText, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("attempt.list: %w", err)
		}
		a.RequestPayload, a.ResponsePayload, a.Error = req, res, errText.String
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attempt.list: %w", err)
	}
	return attempts, nil
}
