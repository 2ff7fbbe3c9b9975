// Package jobs defines the background job queue and the import pipeline's
// job types. Jobs are delivered at least once; every handler must tolerate
// running again for the same payload.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DefaultTimeoutSeconds applies to jobs enqueued without a timeout.
const DefaultTimeoutSeconds = 300

// Job is a queued unit of background work.
type Job struct {
	ID             uuid.UUID
	JobType        string
	Queue          string
	Payload        json.RawMessage
	Priority       int
	Status         string
	RetryCount     int
	MaxRetries     int
	TimeoutSeconds int
	ScheduledAt    time.Time
	WorkerID       string
	LastError      string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Exhausted reports whether the job has used all of its retries.
func (j *Job) Exhausted() bool {
	return j.RetryCount >= j.MaxRetries
}

// EnqueueJobParams describes a job to add to the queue.
type EnqueueJobParams struct {
	JobType        string
	Queue          string
	Payload        json.RawMessage
	Priority       int
	MaxRetries     int
	TimeoutSeconds int
	ScheduledAt    time.Time
}

// ClaimNextJobParams selects the next job to run.
type ClaimNextJobParams struct {
	WorkerID string
	Queue    string // empty claims from every queue
}

// FailJobParams records a failed execution.
type FailJobParams struct {
	ID           uuid.UUID
	ErrorMessage string
	// RetryAt schedules the next attempt when retries remain.
	RetryAt time.Time
}

// Queue persists jobs and hands them to workers.
type Queue interface {
	// EnqueueJob adds a pending job.
	EnqueueJob(ctx context.Context, params EnqueueJobParams) (*Job, error)

	// ClaimNextJob marks the highest priority due job as processing and
	// returns it. Returns nil and no error when nothing is due. A processing
	// job whose lease expired is claimed again as a retry; if that exhausts
	// it, it comes back with StatusFailed and must not be run.
	ClaimNextJob(ctx context.Context, params ClaimNextJobParams) (*Job, error)

	// CompleteJob marks a job as completed.
	CompleteJob(ctx context.Context, id uuid.UUID) error

	// FailJob increments the retry count and either reschedules the job or,
	// once retries are exhausted, marks it failed. Returns the updated job.
	FailJob(ctx context.Context, params FailJobParams) (*Job, error)

	// CountOpenImportJobs counts pending or processing jobs of the given
	// types whose payload names the import.
	CountOpenImportJobs(ctx context.Context, importJobID uuid.UUID, jobTypes ...string) (int, error)
}
