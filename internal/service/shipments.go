package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/jobs"
	"github.com/dukerupert/parcelry/internal/telemetry"
	"github.com/dukerupert/parcelry/internal/validation"
	"github.com/google/uuid"
)

// Bulk actions accepted by ShipmentService.Bulk.
const (
	BulkApplySavedAddress  = "apply_saved_address"
	BulkApplySavedPackage  = "apply_saved_package"
	BulkDelete             = "delete"
	BulkSetShippingService = "set_shipping_service"
	BulkVerifyAddresses    = "verify_addresses"
)

// ShipmentService edits, verifies and bulk-updates shipments.
type ShipmentService interface {
	// Get retrieves a shipment.
	Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)

	// Update applies a partial edit, re-validates and saves the shipment.
	Update(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error)

	// Delete removes a shipment and its verification attempts.
	Delete(ctx context.Context, id uuid.UUID) error

	// Verify re-verifies both addresses of a shipment synchronously.
	Verify(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)

	// ListAttempts returns the verification attempt log of a shipment.
	ListAttempts(ctx context.Context, id uuid.UUID) ([]domain.VerificationAttempt, error)

	// Bulk runs one action over the listed shipments of an import. Ids that do
	// not belong to the import are ignored.
	Bulk(ctx context.Context, importJobID uuid.UUID, req BulkRequest) (*BulkResult, error)
}

// BulkRequest is one bulk action over a set of shipments.
type BulkRequest struct {
	Action      string          `json:"action"`
	ShipmentIDs []uuid.UUID     `json:"shipment_ids"`
	Payload     json.RawMessage `json:"payload"`
}

// BulkResult reports what a bulk action changed.
type BulkResult struct {
	UpdatedCount int         `json:"updated_count"`
	DeletedCount int         `json:"deleted_count"`
	Errors       []BulkError `json:"errors"`
}

// BulkError is a per-request problem that did not abort the action.
type BulkError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// bulkPayload holds the payload keys the actions read besides raw fields.
type bulkPayload struct {
	PresetID   string `json:"preset_id"`
	Service    string `json:"service"`
	PriceCents *int   `json:"price_cents"`
}

type shipmentService struct {
	shipments ShipmentStore
	attempts  AttemptStore
	presets   PresetStore
	verifier  VerificationService
	queue     jobs.Queue
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewShipmentService creates a ShipmentService.
func NewShipmentService(
	shipments ShipmentStore,
	attempts AttemptStore,
	presets PresetStore,
	verifier VerificationService,
	queue jobs.Queue,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) ShipmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &shipmentService{
		shipments: shipments,
		attempts:  attempts,
		presets:   presets,
		verifier:  verifier,
		queue:     queue,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *shipmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	sh, err := s.shipments.GetShipment(ctx, id)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrShipmentNotFound
		}
		return nil, domain.Internal(err, "shipment.get", "failed to load shipment")
	}
	return sh, nil
}

func (s *shipmentService) Update(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(sh)
	res := validation.Apply(sh)
	s.metrics.RecordValidation(string(res.Status))

	if err := s.shipments.UpdateShipment(ctx, sh); err != nil {
		return nil, domain.Internal(err, "shipment.update", "failed to save shipment")
	}
	return sh, nil
}

func (s *shipmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.shipments.DeleteShipment(ctx, id); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return ErrShipmentNotFound
		}
		return domain.Internal(err, "shipment.delete", "failed to delete shipment")
	}
	return nil
}

func (s *shipmentService) Verify(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.VerifyShipment(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *shipmentService) ListAttempts(ctx context.Context, id uuid.UUID) ([]domain.VerificationAttempt, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListAttempts(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, "shipment.attempts", "failed to list verification attempts")
	}
	if attempts == nil {
		attempts = []domain.VerificationAttempt{}
	}
	return attempts, nil
}

func (s *shipmentService) Bulk(ctx context.Context, importJobID uuid.UUID, req BulkRequest) (*BulkResult, error) {
	const op = "shipments.bulk"

	raw := req.Payload
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}
	var payload bulkPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrInvalidBulkPayload
	}

	result := &BulkResult{Errors: []BulkError{}}
	switch req.Action {
	case BulkApplySavedAddress:
		edit, err := s.addressEdit(ctx, payload, raw)
		if err != nil {
			return nil, err
		}
		n, err := s.applyEach(ctx, importJobID, req.ShipmentIDs, edit)
		if err != nil {
			return nil, err
		}
		result.UpdatedCount = n

	case BulkApplySavedPackage:
		edit, err := s.packageEdit(ctx, payload, raw)
		if err != nil {
			return nil, err
		}
		n, err := s.applyEach(ctx, importJobID, req.ShipmentIDs, edit)
		if err != nil {
			return nil, err
		}
		result.UpdatedCount = n

	case BulkDelete:
		n, err := s.shipments.DeleteShipments(ctx, importJobID, req.ShipmentIDs)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to delete shipments")
		}
		result.DeletedCount = n

	case BulkSetShippingService:
		if payload.Service == "" {
			return nil, ErrMissingService
		}
		n, err := s.shipments.SetService(ctx, importJobID, req.ShipmentIDs, payload.Service, payload.PriceCents)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to set shipping service")
		}
		result.UpdatedCount = n

	case BulkVerifyAddresses:
		shipments, err := s.shipments.ListImportShipments(ctx, importJobID, req.ShipmentIDs)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load shipments")
		}
		if len(shipments) > 0 {
			ids := make([]uuid.UUID, 0, len(shipments))
			for _, sh := range shipments {
				ids = append(ids, sh.ID)
			}
			queued, err := jobs.EnqueueVerifyShipments(ctx, s.queue, ids)
			for range queued {
				s.metrics.RecordJobEnqueued(jobs.JobTypeVerifyShipments)
			}
			if err != nil {
				return nil, domain.Internal(err, op, "failed to enqueue verification")
			}
		}
		result.UpdatedCount = len(shipments)

	default:
		result.Errors = append(result.Errors, BulkError{Code: "INVALID_ACTION", Message: "Unsupported action"})
	}

	s.logger.InfoContext(ctx, "shipments.bulk.completed",
		slog.String("import_job_id", importJobID.String()),
		slog.String("action", req.Action),
		slog.Int("updated_count", result.UpdatedCount),
		slog.Int("deleted_count", result.DeletedCount),
	)
	return result, nil
}

// addressEdit builds the edit for apply_saved_address. A preset marks the
// origin as preset so verification skips it; raw fields clear the mark.
func (s *shipmentService) addressEdit(ctx context.Context, payload bulkPayload, raw json.RawMessage) (func(*domain.Shipment), error) {
	if payload.PresetID != "" {
		id, err := uuid.Parse(payload.PresetID)
		if err != nil {
			return nil, ErrBulkPresetNotFound
		}
		preset, err := s.presets.GetAddressPreset(ctx, id)
		if err != nil {
			if domain.ErrorCode(err) == domain.ENOTFOUND {
				return nil, ErrBulkPresetNotFound
			}
			return nil, domain.Internal(err, "shipments.bulk", "failed to load preset")
		}
		return func(sh *domain.Shipment) {
			sh.FromName = preset.ContactName
			sh.FromCompany = preset.Company
			sh.FromStreet1 = preset.Street1
			sh.FromStreet2 = preset.Street2
			sh.FromCity = preset.City
			sh.FromState = preset.State
			sh.FromPostalCode = preset.PostalCode
			sh.FromCountry = preset.Country
			sh.FromAddressIsPreset = true
		}, nil
	}

	patch, err := decodePatch(raw)
	if err != nil {
		return nil, err
	}
	return func(sh *domain.Shipment) {
		patch.Apply(sh)
		sh.FromAddressIsPreset = false
	}, nil
}

// packageEdit builds the edit for apply_saved_package.
func (s *shipmentService) packageEdit(ctx context.Context, payload bulkPayload, raw json.RawMessage) (func(*domain.Shipment), error) {
	if payload.PresetID != "" {
		id, err := uuid.Parse(payload.PresetID)
		if err != nil {
			return nil, ErrBulkPresetNotFound
		}
		preset, err := s.presets.GetPackagePreset(ctx, id)
		if err != nil {
			if domain.ErrorCode(err) == domain.ENOTFOUND {
				return nil, ErrBulkPresetNotFound
			}
			return nil, domain.Internal(err, "shipments.bulk", "failed to load preset")
		}
		return func(sh *domain.Shipment) {
			sh.WeightOz = formatMeasure(&preset.WeightOz)
			sh.LengthIn = formatMeasure(preset.LengthIn)
			sh.WidthIn = formatMeasure(preset.WidthIn)
			sh.HeightIn = formatMeasure(preset.HeightIn)
		}, nil
	}

	patch, err := decodePatch(raw)
	if err != nil {
		return nil, err
	}
	return patch.Apply, nil
}

func (s *shipmentService) applyEach(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID, edit func(*domain.Shipment)) (int, error) {
	shipments, err := s.shipments.ListImportShipments(ctx, importJobID, ids)
	if err != nil {
		return 0, domain.Internal(err, "shipments.bulk", "failed to load shipments")
	}
	for _, sh := range shipments {
		edit(sh)
		res := validation.Apply(sh)
		s.metrics.RecordValidation(string(res.Status))
		if err := s.shipments.UpdateShipment(ctx, sh); err != nil {
			return 0, domain.Internal(err, "shipments.bulk", "failed to save shipment")
		}
	}
	return len(shipments), nil
}

func decodePatch(raw json.RawMessage) (*domain.ShipmentPatch, error) {
	var patch domain.ShipmentPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, ErrInvalidBulkPayload
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return &patch, nil
}

func formatMeasure(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
