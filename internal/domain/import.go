package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IMPORT DOMAIN TYPES
// =============================================================================

// ImportStatus is the lifecycle state of an import job.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "PENDING"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// ImportMeta records where the uploaded file was stored.
type ImportMeta struct {
	StoredPath string    `json:"stored_path,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

// ImportJob is one uploaded CSV file and the progress of its pipeline.
type ImportJob struct {
	ID               uuid.UUID
	OriginalFilename string
	Status           ImportStatus
	ProgressTotal    int
	ProgressDone     int
	ErrorSummary     string
	Meta             ImportMeta
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ImportSummary holds the shipment counts shown for an import.
type ImportSummary struct {
	TotalRows              int `json:"total_rows"`
	ReadyCount             int `json:"ready_count"`
	NeedsInfoCount         int `json:"needs_info_count"`
	InvalidCount           int `json:"invalid_count"`
	AddressUnverifiedCount int `json:"address_unverified_count"`
	ReadyWithServiceCount  int `json:"ready_with_service_count"`
	PurchasableCount       int `json:"purchasable_count"`
}

// =============================================================================
// VERIFICATION ATTEMPTS
// =============================================================================

// AttemptStatus is the outcome of a single provider call.
type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "SUCCESS"
	AttemptFailure AttemptStatus = "FAILURE"
)

// VerificationAttempt is the append-only audit record of one provider call.
type VerificationAttempt struct {
	ID              uuid.UUID       `json:"id"`
	ShipmentID      uuid.UUID       `json:"shipment_id"`
	Provider        string          `json:"provider"`
	Status          AttemptStatus   `json:"status"`
	RequestPayload  json.RawMessage `json:"request_payload"`
	ResponsePayload json.RawMessage `json:"response_payload"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// =============================================================================
// PRESETS
// =============================================================================

// AddressPreset is a saved origin address that can be applied in bulk.
type AddressPreset struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name" validate:"required,max=100"`
	ContactName string    `json:"contact_name" validate:"max=200"`
	Company     string    `json:"company" validate:"max=200"`
	Street1     string    `json:"street1" validate:"required,max=200"`
	Street2     string    `json:"street2" validate:"max=200"`
	City        string    `json:"city" validate:"required,max=100"`
	State       string    `json:"state" validate:"required,len=2"`
	PostalCode  string    `json:"postal_code" validate:"required,max=20"`
	Country     string    `json:"country" validate:"omitempty,len=2"`
}

// PackagePreset is a saved package weight and size.
type PackagePreset struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name" validate:"required,max=100"`
	WeightOz float64   `json:"weight_oz" validate:"gt=0"`
	LengthIn *float64  `json:"length_in" validate:"omitempty,gt=0"`
	WidthIn  *float64  `json:"width_in" validate:"omitempty,gt=0"`
	HeightIn *float64  `json:"height_in" validate:"omitempty,gt=0"`
}
