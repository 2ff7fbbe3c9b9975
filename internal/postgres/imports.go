package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/google/uuid"
)

// ImportJobStore implements service.ImportJobStore using PostgreSQL.
type ImportJobStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ service.ImportJobStore = (*ImportJobStore)(nil)

// NewImportJobStore creates a new PostgreSQL-backed import job store.
func NewImportJobStore(db *sql.DB) *ImportJobStore {
	return &ImportJobStore{db: db, now: time.Now}
}

// CreateImportJob implements service.ImportJobStore.
func (s *ImportJobStore) CreateImportJob(ctx context.Context, job *domain.ImportJob) error {
	meta, err := jsonb(job.Meta)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_jobs
			(id, original_filename, status, progress_total, progress_done, error_summary, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.OriginalFilename, job.Status, job.ProgressTotal, job.ProgressDone,
		nullString(job.ErrorSummary), meta, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("import.create: %w", err)
	}
	return nil
}

// GetImportJob implements service.ImportJobStore.
func (s *ImportJobStore) GetImportJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	var (
		job     domain.ImportJob
		summary sql.NullString
		meta    []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, original_filename, status, progress_total, progress_done, error_summary, meta, created_at, updated_at
		FROM import_jobs
		WHERE id = $1`, id).Scan(
		&job.ID, &job.OriginalFilename, &job.Status, &job.ProgressTotal, &job.ProgressDone,
		&summary, &meta, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "import.get", "import job", id.String())
	}
	job.ErrorSummary = summary.String
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &job.Meta); err != nil {
			return nil, fmt.Errorf("import.get: decode meta: %w", err)
		}
	}
	return &job, nil
}

// UpdateImportJob implements service.ImportJobStore.
func (s *ImportJobStore) UpdateImportJob(ctx context.Context, job *domain.ImportJob) error {
	const op = "import.update"

	meta, err := jsonb(job.Meta)
	if err != nil {
		return err
	}
	job.UpdatedAt = s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = $2, error_summary = $3, meta = $4, updated_at = $5
		WHERE id = $1`,
		job.ID, job.Status, nullString(job.ErrorSummary), meta, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "import job", job.ID.String())
}

// SetImportProgress implements service.ImportJobStore.
func (s *ImportJobStore) SetImportProgress(ctx context.Context, id uuid.UUID, total, done int) error {
	const op = "import.set_progress"

	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET progress_total = $2, progress_done = $3, updated_at = $4
		WHERE id = $1`,
		id, total, done, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "import job", id.String())
}

// IncrementImportProgress implements service.ImportJobStore.
func (s *ImportJobStore) IncrementImportProgress(ctx context.Context, id uuid.UUID) error {
	const op = "import.increment_progress"

	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET progress_done = LEAST(progress_done + 1, progress_total), updated_at = $2
		WHERE id = $1`,
		id, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "import job", id.String())
}
