// Package worker runs the import pipeline and other queued jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/jobs"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/dukerupert/parcelry/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for new jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// Queue name to process (empty string = all queues)
	Queue string

	// JobTimeout bounds a job that does not carry its own timeout
	JobTimeout time.Duration

	// RetryInitialInterval is the delay before the first retry; later
	// retries back off exponentially up to RetryMaxInterval
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// Worker processes background jobs
type Worker struct {
	config       Config
	queue        jobs.Queue
	imports      service.ImportService
	verification service.VerificationService
	metrics      *telemetry.Metrics
	logger       *slog.Logger

	wg sync.WaitGroup
}

// NewWorker creates a new background job worker
func NewWorker(
	queue jobs.Queue,
	imports service.ImportService,
	verification service.VerificationService,
	metrics *telemetry.Metrics,
	config Config,
	logger *slog.Logger,
) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 5 * time.Minute
	}
	if config.RetryInitialInterval == 0 {
		config.RetryInitialInterval = 5 * time.Second
	}
	if config.RetryMaxInterval == 0 {
		config.RetryMaxInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:       config,
		queue:        queue,
		imports:      imports,
		verification: verification,
		metrics:      metrics,
		logger:       logger.With("worker_id", config.WorkerID),
	}
}

// Start begins processing jobs until the context is cancelled. In-flight
// jobs finish before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"queue", w.config.Queue,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			w.wg.Wait()
			return ctx.Err()

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()
					// In-flight jobs are not cut short by shutdown; their
					// own timeout still applies.
					if _, err := w.RunOnce(context.WithoutCancel(ctx)); err != nil {
						w.logger.Error("job.claim.failed", "error", err)
					}
				}()
			default:
				// At max concurrency, skip this poll
			}
		}
	}
}

// RunOnce claims and processes a single job. It reports whether a job was
// claimed; the error is only set when the queue itself fails.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.queue.ClaimNextJob(ctx, jobs.ClaimNextJobParams{
		WorkerID: w.config.WorkerID,
		Queue:    w.config.Queue,
	})
	if err != nil {
		return false, fmt.Errorf("claim next job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	ctx = domain.NewContextWithJobID(ctx, job.ID.String())
	logger := w.logger.With("job_id", job.ID, "job_type", job.JobType)

	// Reclaiming an expired lease used up the job's last retry.
	if job.Status == jobs.StatusFailed {
		w.exhausted(ctx, logger, job, errors.New(job.LastError))
		return true, nil
	}
	logger.InfoContext(ctx, "job.started", "retry_count", job.RetryCount)

	started := time.Now()
	err = w.processJob(ctx, job)
	w.metrics.RecordJob(job.JobType, time.Since(started), err)

	if err != nil {
		w.fail(ctx, logger, job, err)
		return true, nil
	}

	if err := w.queue.CompleteJob(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "job.complete.failed", "error", err)
		return true, nil
	}
	logger.InfoContext(ctx, "job.completed", "duration", time.Since(started))

	if importJobID, ok := verificationImport(job); ok {
		w.finalizeWhenVerified(ctx, logger, importJobID)
	}
	return true, nil
}

// processJob runs the job and, for an import step, enqueues its successor.
func (w *Worker) processJob(ctx context.Context, job *jobs.Job) error {
	timeout := w.config.JobTimeout
	if job.TimeoutSeconds > 0 {
		timeout = time.Duration(job.TimeoutSeconds) * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if jobs.IsImportJob(job.JobType) {
		payload, err := jobs.DecodeImportPayload(job)
		if err != nil {
			return err
		}
		if err := w.processImportJob(jobCtx, job.JobType, payload.ImportJobID); err != nil {
			return err
		}
		if next, ok := jobs.NextInChain(job.JobType); ok {
			if _, err := jobs.EnqueueImportStep(ctx, w.queue, next, payload.ImportJobID); err != nil {
				return fmt.Errorf("enqueue %s: %w", next, err)
			}
			w.metrics.RecordJobEnqueued(next)
		}
		return nil
	}

	switch job.JobType {
	case jobs.JobTypeVerifyShipments:
		payload, err := jobs.DecodeVerifyShipmentsPayload(job)
		if err != nil {
			return err
		}
		_, err = w.verification.VerifyShipments(jobCtx, payload.ShipmentIDs)
		return err
	default:
		return fmt.Errorf("unknown job type: %s", job.JobType)
	}
}

// processImportJob runs one step of an import's chain
func (w *Worker) processImportJob(ctx context.Context, jobType string, importJobID uuid.UUID) error {
	switch jobType {
	case jobs.JobTypeValidateImport:
		return w.imports.ValidateImport(ctx, importJobID)
	case jobs.JobTypeVerifyImportAddresses:
		ids, err := w.verification.ImportShipmentIDs(ctx, importJobID)
		if err != nil {
			return err
		}
		queued, err := jobs.EnqueueImportVerification(ctx, w.queue, importJobID, ids)
		for range queued {
			w.metrics.RecordJobEnqueued(jobs.JobTypeVerifyShipments)
		}
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", jobs.JobTypeVerifyShipments, err)
		}
		return nil
	case jobs.JobTypeFinalizeImport:
		return w.imports.FinalizeImport(ctx, importJobID)
	default:
		return fmt.Errorf("unknown import job type: %s", jobType)
	}
}

// fail records the failure and reschedules the job, or hands it to exhausted
// once it is out of retries.
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, job *jobs.Job, jobErr error) {
	retryAt := time.Now().Add(w.retryDelay(job.RetryCount))
	updated, err := w.queue.FailJob(ctx, jobs.FailJobParams{
		ID:           job.ID,
		ErrorMessage: jobErr.Error(),
		RetryAt:      retryAt,
	})
	if err != nil {
		logger.ErrorContext(ctx, "job.fail.failed", "error", err, "job_error", jobErr)
		return
	}
	if updated != nil && updated.Status != jobs.StatusFailed {
		logger.WarnContext(ctx, "job.retry_scheduled", "error", jobErr, "retry_at", retryAt)
		return
	}

	w.exhausted(ctx, logger, job, jobErr)
}

// exhausted handles a job that will not run again. An import step marks its
// import FAILED; a verification chunk leaves its shipments as they are and
// lets the import finalize once the other chunks are done.
func (w *Worker) exhausted(ctx context.Context, logger *slog.Logger, job *jobs.Job, jobErr error) {
	logger.ErrorContext(ctx, "job.failed", "error", jobErr)

	if jobs.IsImportJob(job.JobType) {
		payload, err := jobs.DecodeImportPayload(job)
		if err != nil {
			return
		}
		if err := w.imports.FailImport(ctx, payload.ImportJobID, domain.ErrorMessage(jobErr)); err != nil {
			logger.ErrorContext(ctx, "import.fail.failed", "error", err)
		}
		return
	}
	if importJobID, ok := verificationImport(job); ok {
		w.finalizeWhenVerified(ctx, logger, importJobID)
	}
}

// finalizeWhenVerified enqueues the import's finalize step once no
// verification job for it is pending or processing. Callers have already
// completed or failed their own job, so whichever finishes last sees zero.
// Two chunks finishing together may both enqueue it; finalize is idempotent.
func (w *Worker) finalizeWhenVerified(ctx context.Context, logger *slog.Logger, importJobID uuid.UUID) {
	open, err := w.queue.CountOpenImportJobs(ctx, importJobID, jobs.VerificationJobTypes...)
	if err != nil {
		logger.ErrorContext(ctx, "import.finalize.check_failed", "import_job_id", importJobID, "error", err)
		return
	}
	if open > 0 {
		return
	}
	if _, err := jobs.EnqueueImportStep(ctx, w.queue, jobs.JobTypeFinalizeImport, importJobID); err != nil {
		logger.ErrorContext(ctx, "import.finalize.enqueue_failed", "import_job_id", importJobID, "error", err)
		return
	}
	w.metrics.RecordJobEnqueued(jobs.JobTypeFinalizeImport)
}

// verificationImport returns the import a verification job belongs to.
// Bulk re-verification chunks carry no import and never finalize.
func verificationImport(job *jobs.Job) (uuid.UUID, bool) {
	switch job.JobType {
	case jobs.JobTypeVerifyImportAddresses:
		payload, err := jobs.DecodeImportPayload(job)
		return payload.ImportJobID, err == nil
	case jobs.JobTypeVerifyShipments:
		payload, err := jobs.DecodeVerifyShipmentsPayload(job)
		return payload.ImportJobID, err == nil && payload.ImportJobID != uuid.Nil
	}
	return uuid.Nil, false
}

// retryDelay returns the backoff before retry number attempt+1.
func (w *Worker) retryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.config.RetryInitialInterval
	b.MaxInterval = w.config.RetryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
