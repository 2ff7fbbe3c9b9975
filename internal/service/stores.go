package service

import (
	"context"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/google/uuid"
)

// ShipmentStore persists shipments. Every write touches only the columns
// named by the method so concurrent edits to other fields survive.
// Lookups of a missing shipment return a domain.ENOTFOUND error.
type ShipmentStore interface {
	// ReplaceShipments deletes the import's shipments and inserts the given
	// ones in a single transaction.
	ReplaceShipments(ctx context.Context, importJobID uuid.UUID, shipments []*domain.Shipment) error

	// GetShipment retrieves one shipment.
	GetShipment(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)

	// ListShipments returns one page of an import's shipments ordered by row
	// number, plus the total number of matches.
	ListShipments(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, int, error)

	// ListShipmentsByImport returns every shipment of an import by row number.
	ListShipmentsByImport(ctx context.Context, importJobID uuid.UUID) ([]*domain.Shipment, error)

	// ListShipmentsByIDs returns the shipments that exist among ids.
	ListShipmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error)

	// ListImportShipments returns the shipments of an import whose id is in ids.
	ListImportShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) ([]*domain.Shipment, error)

	// UpdateShipment writes the editable address, package, service and
	// from_address_is_preset fields together with the validation result.
	UpdateShipment(ctx context.Context, s *domain.Shipment) error

	// SaveVerification writes both verification statuses and details and the
	// validation result.
	SaveVerification(ctx context.Context, s *domain.Shipment) error

	// SaveValidation writes the validation status and errors.
	SaveValidation(ctx context.Context, s *domain.Shipment) error

	// SetService selects a shipping service on the listed shipments of an
	// import and returns how many were updated.
	SetService(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID, service string, priceCents *int) (int, error)

	// SetLabel records a label purchase.
	SetLabel(ctx context.Context, id uuid.UUID, status domain.LabelStatus, url string) error

	// DeleteShipment removes one shipment and its verification attempts.
	DeleteShipment(ctx context.Context, id uuid.UUID) error

	// DeleteShipments removes the listed shipments of an import and returns
	// how many were deleted.
	DeleteShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) (int, error)

	// ImportSummary counts an import's shipments by readiness.
	ImportSummary(ctx context.Context, importJobID uuid.UUID) (domain.ImportSummary, error)
}

// AttemptStore is the append-only log of provider calls.
type AttemptStore interface {
	// CreateAttempt appends one attempt.
	CreateAttempt(ctx context.Context, attempt *domain.VerificationAttempt) error

	// ListAttempts returns a shipment's attempts, oldest first.
	ListAttempts(ctx context.Context, shipmentID uuid.UUID) ([]domain.VerificationAttempt, error)
}

// ImportJobStore persists import jobs.
type ImportJobStore interface {
	// CreateImportJob inserts a new job.
	CreateImportJob(ctx context.Context, job *domain.ImportJob) error

	// GetImportJob retrieves a job.
	GetImportJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)

	// UpdateImportJob writes the job's status, error summary and meta.
	UpdateImportJob(ctx context.Context, job *domain.ImportJob) error

	// SetImportProgress sets both progress counters.
	SetImportProgress(ctx context.Context, id uuid.UUID, total, done int) error

	// IncrementImportProgress adds one to progress_done, capped at progress_total.
	IncrementImportProgress(ctx context.Context, id uuid.UUID) error
}

// PresetStore persists saved address and package presets.
type PresetStore interface {
	ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error)
	GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error)
	CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error
	UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error
	DeleteAddressPreset(ctx context.Context, id uuid.UUID) error

	ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error)
	GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error)
	CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error
	UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error
	DeletePackagePreset(ctx context.Context, id uuid.UUID) error
}
