package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/events"
	"github.com/dukerupert/parcelry/internal/importer"
	"github.com/dukerupert/parcelry/internal/jobs"
	"github.com/dukerupert/parcelry/internal/storage"
	"github.com/dukerupert/parcelry/internal/telemetry"
	"github.com/dukerupert/parcelry/internal/validation"
	"github.com/google/uuid"
)

// sniffBytes is how much of an upload is inspected before it is stored.
const sniffBytes = 512

// ImportService manages CSV imports and the steps of their pipeline.
type ImportService interface {
	// Upload stores the file, parses it into shipments and enqueues the
	// validate, verify and finalize chain. A file that cannot be parsed marks
	// the job FAILED and returns an INVALID_FILE error.
	Upload(ctx context.Context, params UploadParams) (*domain.ImportJob, error)

	// GetImport returns a job with its shipment counts.
	GetImport(ctx context.Context, id uuid.UUID) (*ImportDetail, error)

	// ListShipments returns one page of an import's shipments.
	ListShipments(ctx context.Context, filter domain.ShipmentFilter) (*ShipmentPage, error)

	// ValidateImport recomputes validation for every shipment of an import.
	ValidateImport(ctx context.Context, id uuid.UUID) error

	// FinalizeImport marks the import COMPLETED unless it already FAILED and
	// publishes an ImportCompleted event.
	FinalizeImport(ctx context.Context, id uuid.UUID) error

	// FailImport marks the import FAILED with a summary.
	FailImport(ctx context.Context, id uuid.UUID, summary string) error
}

// UploadParams describes an uploaded file.
type UploadParams struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ImportDetail is an import job with its shipment counts.
type ImportDetail struct {
	Job     *domain.ImportJob
	Summary domain.ImportSummary
}

// ShipmentPage is one page of a shipment listing.
type ShipmentPage struct {
	Shipments []*domain.Shipment
	Total     int
}

type importService struct {
	imports   ImportJobStore
	shipments ShipmentStore
	files     storage.Storage
	queue     jobs.Queue
	events    events.Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewImportService creates an ImportService.
func NewImportService(
	imports ImportJobStore,
	shipments ShipmentStore,
	files storage.Storage,
	queue jobs.Queue,
	publisher events.Publisher,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &importService{
		imports:   imports,
		shipments: shipments,
		files:     files,
		queue:     queue,
		events:    publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *importService) Upload(ctx context.Context, params UploadParams) (*domain.ImportJob, error) {
	const op = "import.upload"

	if params.Body == nil {
		return nil, importer.CheckUpload("", params.ContentType, nil)
	}
	body := bufio.NewReaderSize(params.Body, sniffBytes)
	head, err := body.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, domain.Internal(err, op, "failed to read upload")
	}
	if err := importer.CheckUpload(params.Filename, params.ContentType, head); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &domain.ImportJob{
		ID:               uuid.New(),
		OriginalFilename: params.Filename,
		Status:           domain.ImportStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.imports.CreateImportJob(ctx, job); err != nil {
		return nil, domain.Internal(err, op, "failed to create import job")
	}

	key := fmt.Sprintf("imports/%s.csv", job.ID)
	if _, err := s.files.Put(ctx, key, body, params.ContentType); err != nil {
		return nil, domain.Internal(err, op, "failed to store upload")
	}

	job.Meta = domain.ImportMeta{StoredPath: key, UploadedAt: now}
	job.Status = domain.ImportStatusProcessing
	if err := s.imports.UpdateImportJob(ctx, job); err != nil {
		return nil, domain.Internal(err, op, "failed to update import job")
	}
	s.logger.InfoContext(ctx, "import.upload.received", slog.String("import_job_id", job.ID.String()))

	total, err := s.parse(ctx, job)
	if err != nil {
		if domain.ErrorCode(err) != domain.EINVALID {
			return nil, err
		}
		job.Status = domain.ImportStatusFailed
		job.ErrorSummary = domain.ErrorMessage(err)
		if uerr := s.imports.UpdateImportJob(ctx, job); uerr != nil {
			return nil, domain.Internal(uerr, op, "failed to update import job")
		}
		s.metrics.RecordImportFailure()
		s.logger.ErrorContext(ctx, "import.parse.failed",
			slog.String("import_job_id", job.ID.String()),
			slog.String("error", job.ErrorSummary),
		)
		return nil, err
	}
	job.ProgressTotal = total
	job.ProgressDone = 0
	s.metrics.RecordImport(total)

	if _, err := jobs.EnqueueValidateImport(ctx, s.queue, job.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to enqueue import pipeline")
	}
	s.metrics.RecordJobEnqueued(jobs.JobTypeValidateImport)

	return job, nil
}

// parse reads the stored file and replaces the import's shipments.
func (s *importService) parse(ctx context.Context, job *domain.ImportJob) (int, error) {
	const op = "import.parse"

	if job.Meta.StoredPath == "" {
		return 0, domain.Rejected(op, importer.ReasonInvalidFile, importer.MessageFileNotFound)
	}
	rc, err := s.files.Get(ctx, job.Meta.StoredPath)
	if err != nil {
		if storage.IsNotFound(err) {
			return 0, domain.Rejected(op, importer.ReasonInvalidFile, importer.MessageFileNotFound)
		}
		return 0, domain.Internal(err, op, "failed to open upload")
	}
	defer rc.Close()

	s.logger.InfoContext(ctx, "import.parse.started", slog.String("import_job_id", job.ID.String()))
	shipments, err := importer.Parse(rc, job.ID)
	if err != nil {
		return 0, err
	}

	if err := s.shipments.ReplaceShipments(ctx, job.ID, shipments); err != nil {
		return 0, domain.Internal(err, op, "failed to save shipments")
	}
	if err := s.imports.SetImportProgress(ctx, job.ID, len(shipments), 0); err != nil {
		return 0, domain.Internal(err, op, "failed to set import progress")
	}
	s.logger.InfoContext(ctx, "import.parse.completed",
		slog.String("import_job_id", job.ID.String()),
		slog.Int("shipment_count", len(shipments)),
	)
	return len(shipments), nil
}

func (s *importService) GetImport(ctx context.Context, id uuid.UUID) (*ImportDetail, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.shipments.ImportSummary(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, "import.get", "failed to count shipments")
	}
	return &ImportDetail{Job: job, Summary: summary}, nil
}

func (s *importService) ListShipments(ctx context.Context, filter domain.ShipmentFilter) (*ShipmentPage, error) {
	if _, err := s.getJob(ctx, filter.ImportJobID); err != nil {
		return nil, err
	}
	shipments, total, err := s.shipments.ListShipments(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err, "import.shipments", "failed to list shipments")
	}
	return &ShipmentPage{Shipments: shipments, Total: total}, nil
}

func (s *importService) ValidateImport(ctx context.Context, id uuid.UUID) error {
	const op = "import.validate"

	s.logger.InfoContext(ctx, "import.validate.started", slog.String("import_job_id", id.String()))
	shipments, err := s.shipments.ListShipmentsByImport(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to load shipments")
	}

	for _, sh := range shipments {
		res := validation.Apply(sh)
		s.metrics.RecordValidation(string(res.Status))
		if err := s.shipments.SaveValidation(ctx, sh); err != nil {
			return domain.Internal(err, op, "failed to save validation")
		}
		if err := s.imports.IncrementImportProgress(ctx, id); err != nil {
			return domain.Internal(err, op, "failed to update progress")
		}
	}

	s.logger.InfoContext(ctx, "import.validate.completed",
		slog.String("import_job_id", id.String()),
		slog.Int("shipment_count", len(shipments)),
	)
	return nil
}

func (s *importService) FinalizeImport(ctx context.Context, id uuid.UUID) error {
	const op = "import.finalize"

	job, err := s.getJob(ctx, id)
	if err != nil {
		return err
	}
	if job.Status != domain.ImportStatusFailed {
		job.Status = domain.ImportStatusCompleted
		if err := s.imports.UpdateImportJob(ctx, job); err != nil {
			return domain.Internal(err, op, "failed to update import job")
		}
	}
	s.logger.InfoContext(ctx, "import.finalize.completed",
		slog.String("import_job_id", id.String()),
		slog.String("status", string(job.Status)),
	)

	summary, err := s.shipments.ImportSummary(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to count shipments")
	}
	if err := s.events.Publish(ctx, events.SubjectImportCompleted, events.ImportCompleted{
		ImportJobID: id,
		Status:      string(job.Status),
		TotalRows:   summary.TotalRows,
		ReadyCount:  summary.ReadyCount,
		OccurredAt:  s.now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", slog.String("subject", events.SubjectImportCompleted), slog.Any("error", err))
	}
	return nil
}

func (s *importService) FailImport(ctx context.Context, id uuid.UUID, summary string) error {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return err
	}
	job.Status = domain.ImportStatusFailed
	job.ErrorSummary = summary
	if err := s.imports.UpdateImportJob(ctx, job); err != nil {
		return domain.Internal(err, "import.fail", "failed to update import job")
	}
	s.logger.ErrorContext(ctx, "import.pipeline.failed",
		slog.String("import_job_id", id.String()),
		slog.String("error", summary),
	)
	return nil
}

func (s *importService) getJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	job, err := s.imports.GetImportJob(ctx, id)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrImportNotFound
		}
		return nil, domain.Internal(err, "import.get", "failed to load import job")
	}
	return job, nil
}
