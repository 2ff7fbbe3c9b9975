package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/parcelry/internal/jobs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JobQueue implements jobs.Queue on the jobs table. Claims use
// FOR UPDATE SKIP LOCKED so several workers can poll the same table.
type JobQueue struct {
	db *sql.DB
}

var _ jobs.Queue = (*JobQueue)(nil)

// NewJobQueue creates a new PostgreSQL-backed job queue.
func NewJobQueue(db *sql.DB) *JobQueue {
	return &JobQueue{db: db}
}

const jobColumns = `id, job_type, queue, payload, priority, status, retry_count, max_retries,
	timeout_seconds, scheduled_at, worker_id, last_error, created_at, completed_at`

func scanJob(row rowScanner) (*jobs.Job, error) {
	var (
		job              jobs.Job
		payload          []byte
		workerID, errMsg sql.NullString
		completedAt      sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.JobType, &job.Queue, &payload, &job.Priority, &job.Status,
		&job.RetryCount, &job.MaxRetries, &job.TimeoutSeconds, &job.ScheduledAt,
		&workerID, &errMsg, &job.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	job.Payload = payload
	job.WorkerID = workerID.String
	job.LastError = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// EnqueueJob implements jobs.Queue.
func (q *JobQueue) EnqueueJob(ctx context.Context, params jobs.EnqueueJobParams) (*jobs.Job, error) {
	queue := params.Queue
	if queue == "" {
		queue = "default"
	}
	scheduledAt := params.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now().UTC()
	}
	timeout := params.TimeoutSeconds
	if timeout <= 0 {
		timeout = jobs.DefaultTimeoutSeconds
	}

	job, err := scanJob(q.db.QueryRowContext(ctx, `
		INSERT INTO jobs (id, job_type, queue, payload, priority, status, max_retries, timeout_seconds, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8)
		RETURNING `+jobColumns,
		uuid.New(), params.JobType, queue, rawJSON(params.Payload), params.Priority,
		params.MaxRetries, timeout, scheduledAt,
	))
	if err != nil {
		return nil, fmt.Errorf("job.enqueue: %w", err)
	}
	return job, nil
}

// leaseGraceSeconds is added to a job's timeout before its claim expires,
// leaving room to enqueue a successor and mark the job complete.
const leaseGraceSeconds = 30

// ClaimNextJob implements jobs.Queue.
//
// A processing job whose lease (timeout plus grace) has expired belonged to a
// worker that died or lost its connection. It is claimed again and the reclaim
// counts as a retry; once that uses up the last retry the row is returned
// already failed.
func (q *JobQueue) ClaimNextJob(ctx context.Context, params jobs.ClaimNextJobParams) (*jobs.Job, error) {
	job, err := scanJob(q.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = CASE
				WHEN status = 'processing' AND retry_count + 1 >= max_retries THEN 'failed'
				ELSE 'processing'
			END,
			retry_count = CASE WHEN status = 'processing' THEN retry_count + 1 ELSE retry_count END,
			last_error = CASE
				WHEN status = 'processing' THEN 'lease expired on ' || COALESCE(worker_id, 'unknown worker')
				ELSE last_error
			END,
			completed_at = CASE
				WHEN status = 'processing' AND retry_count + 1 >= max_retries THEN NOW()
				ELSE completed_at
			END,
			worker_id = $1,
			started_at = NOW()
		WHERE id = (
			SELECT id FROM jobs
			WHERE ((status = 'pending' AND scheduled_at <= NOW())
					OR (status = 'processing'
						AND started_at < NOW() - make_interval(secs => timeout_seconds + $3::int)))
				AND ($2::text = '' OR queue = $2)
			ORDER BY priority DESC, scheduled_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		params.WorkerID, params.Queue, leaseGraceSeconds,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("job.claim: %w", err)
	}
	return job, nil
}

// CompleteJob implements jobs.Queue.
func (q *JobQueue) CompleteJob(ctx context.Context, id uuid.UUID) error {
	const op = "job.complete"

	res, err := q.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'completed', completed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "job", id.String())
}

// FailJob implements jobs.Queue.
func (q *JobQueue) FailJob(ctx context.Context, params jobs.FailJobParams) (*jobs.Job, error) {
	retryAt := params.RetryAt
	if retryAt.IsZero() {
		retryAt = time.Now().UTC()
	}

	job, err := scanJob(q.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET retry_count = retry_count + 1,
			last_error = $2,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at ELSE $3 END,
			completed_at = CASE WHEN retry_count + 1 >= max_retries THEN NOW() ELSE NULL END,
			worker_id = NULL
		WHERE id = $1
		RETURNING `+jobColumns,
		params.ID, params.ErrorMessage, retryAt,
	))
	if err != nil {
		return nil, notFound(err, "job.fail", "job", params.ID.String())
	}
	return job, nil
}

// CountOpenImportJobs implements jobs.Queue.
func (q *JobQueue) CountOpenImportJobs(ctx context.Context, importJobID uuid.UUID, jobTypes ...string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM jobs
		WHERE status IN ('pending', 'processing')
			AND job_type = ANY($2)
			AND payload->>'import_job_id' = $1`,
		importJobID.String(), pq.Array(jobTypes),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("job.count_open: %w", err)
	}
	return n, nil
}
