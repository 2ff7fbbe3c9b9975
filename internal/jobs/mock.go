package jobs

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockQueue is a test implementation of Queue. Without overrides it keeps
// jobs in memory and hands them out in enqueue order.
type MockQueue struct {
	EnqueueJobFunc   func(ctx context.Context, params EnqueueJobParams) (*Job, error)
	ClaimNextJobFunc func(ctx context.Context, params ClaimNextJobParams) (*Job, error)
	CompleteJobFunc  func(ctx context.Context, id uuid.UUID) error
	FailJobFunc      func(ctx context.Context, params FailJobParams) (*Job, error)

	CountOpenImportJobsFunc func(ctx context.Context, importJobID uuid.UUID, jobTypes ...string) (int, error)

	mu   sync.Mutex
	Jobs []*Job
}

// NewMockQueue creates an empty in-memory queue.
func NewMockQueue() *MockQueue {
	return &MockQueue{}
}

// EnqueueJob implements Queue.
func (m *MockQueue) EnqueueJob(ctx context.Context, params EnqueueJobParams) (*Job, error) {
	if m.EnqueueJobFunc != nil {
		return m.EnqueueJobFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:             uuid.New(),
		JobType:        params.JobType,
		Queue:          params.Queue,
		Payload:        params.Payload,
		Priority:       params.Priority,
		Status:         StatusPending,
		MaxRetries:     params.MaxRetries,
		TimeoutSeconds: params.TimeoutSeconds,
		ScheduledAt:    params.ScheduledAt,
		CreatedAt:      time.Now(),
	}
	m.Jobs = append(m.Jobs, job)
	return job, nil
}

// ClaimNextJob implements Queue.
func (m *MockQueue) ClaimNextJob(ctx context.Context, params ClaimNextJobParams) (*Job, error) {
	if m.ClaimNextJobFunc != nil {
		return m.ClaimNextJobFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.Jobs {
		if job.Status != StatusPending {
			continue
		}
		if params.Queue != "" && job.Queue != params.Queue {
			continue
		}
		job.Status = StatusProcessing
		job.WorkerID = params.WorkerID
		return job, nil
	}
	return nil, nil
}

// CompleteJob implements Queue.
func (m *MockQueue) CompleteJob(ctx context.Context, id uuid.UUID) error {
	if m.CompleteJobFunc != nil {
		return m.CompleteJobFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if job := m.find(id); job != nil {
		now := time.Now()
		job.Status = StatusCompleted
		job.CompletedAt = &now
	}
	return nil
}

// FailJob implements Queue.
func (m *MockQueue) FailJob(ctx context.Context, params FailJobParams) (*Job, error) {
	if m.FailJobFunc != nil {
		return m.FailJobFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.find(params.ID)
	if job == nil {
		return nil, nil
	}
	job.RetryCount++
	job.LastError = params.ErrorMessage
	if job.Exhausted() {
		job.Status = StatusFailed
	} else {
		job.Status = StatusPending
		job.ScheduledAt = params.RetryAt
	}
	copied := *job
	return &copied, nil
}

// CountOpenImportJobs implements Queue.
func (m *MockQueue) CountOpenImportJobs(ctx context.Context, importJobID uuid.UUID, jobTypes ...string) (int, error) {
	if m.CountOpenImportJobsFunc != nil {
		return m.CountOpenImportJobsFunc(ctx, importJobID, jobTypes...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, job := range m.Jobs {
		if job.Status != StatusPending && job.Status != StatusProcessing {
			continue
		}
		if !slices.Contains(jobTypes, job.JobType) {
			continue
		}
		var payload struct {
			ImportJobID uuid.UUID `json:"import_job_id"`
		}
		if err := json.Unmarshal(job.Payload, &payload); err != nil || payload.ImportJobID != importJobID {
			continue
		}
		n++
	}
	return n, nil
}

// ByType returns the recorded jobs of one type.
func (m *MockQueue) ByType(jobType string) []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Job
	for _, job := range m.Jobs {
		if job.JobType == jobType {
			out = append(out, job)
		}
	}
	return out
}

func (m *MockQueue) find(id uuid.UUID) *Job {
	for _, job := range m.Jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}
