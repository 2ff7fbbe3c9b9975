package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/parcelry/internal/address"
	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/events"
	"github.com/dukerupert/parcelry/internal/telemetry"
	"github.com/dukerupert/parcelry/internal/validation"
	"github.com/google/uuid"
)

const noProvidersMessage = "No providers configured"

// AddressVerifier runs the provider fallback chain for one address.
//
// Providers are tried strictly in order. A retryable failure moves on to the
// next provider, a non-retryable one ends the chain, and the first success
// wins. Every call is appended to the attempt log. The shipment itself is
// never written; callers apply the returned status and details.
type AddressVerifier struct {
	providers []address.Provider
	attempts  AttemptStore
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewAddressVerifier creates a verifier over an ordered provider list.
func NewAddressVerifier(providers []address.Provider, attempts AttemptStore, metrics *telemetry.Metrics, logger *slog.Logger) *AddressVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressVerifier{
		providers: providers,
		attempts:  attempts,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// requestSnapshot is the request payload stored with each attempt.
type requestSnapshot struct {
	address.Input
	AddressType domain.AddressType `json:"address_type"`
}

// Verify checks the selected address of the shipment.
//
// Provider failures never surface as errors: they end in a FAILED status.
// The error return is reserved for attempt log writes that fail.
func (v *AddressVerifier) Verify(ctx context.Context, s *domain.Shipment, t domain.AddressType) (domain.VerificationStatus, domain.VerificationDetails, error) {
	input := s.AddressInput(t)
	request, err := json.Marshal(requestSnapshot{Input: input, AddressType: t})
	if err != nil {
		return "", domain.VerificationDetails{}, fmt.Errorf("marshal verification request: %w", err)
	}

	lastError := ""
	for _, p := range v.providers {
		started := v.now()
		outcome := p.Verify(ctx, input)
		elapsed := v.now().Sub(started)

		if outcome.OK() {
			v.metrics.RecordAttempt(p.Name(), string(domain.AttemptSuccess), elapsed)
			if err := v.record(ctx, s.ID, p.Name(), domain.AttemptSuccess, request, outcome.Result.Raw, ""); err != nil {
				return "", domain.VerificationDetails{}, err
			}
			return statusFor(outcome.Result), domain.VerificationDetails{
				Provider:         p.Name(),
				Messages:         outcome.Result.Messages,
				SuggestedAddress: outcome.Result.SuggestedAddress,
				Raw:              outcome.Result.Raw,
				AddressType:      t,
			}, nil
		}

		perr := outcome.Err
		if perr == nil {
			perr = &address.ProviderError{Provider: p.Name(), Message: p.Name() + " returned no result", Retryable: true}
		}
		lastError = perr.Message

		v.metrics.RecordAttempt(p.Name(), string(domain.AttemptFailure), elapsed)
		if err := v.record(ctx, s.ID, p.Name(), domain.AttemptFailure, request, nil, perr.Message); err != nil {
			return "", domain.VerificationDetails{}, err
		}

		if !perr.Retryable {
			break
		}
		v.logger.InfoContext(ctx, "address.verify.fallback_attempt",
			slog.String("shipment_id", s.ID.String()),
			slog.String("provider", p.Name()),
			slog.String("address_type", string(t)),
			slog.String("error", perr.Message),
		)
	}

	if lastError == "" {
		lastError = noProvidersMessage
	}
	v.logger.ErrorContext(ctx, "address.verify.failure",
		slog.String("shipment_id", s.ID.String()),
		slog.String("address_type", string(t)),
		slog.String("error", lastError),
	)
	return domain.VerificationStatusFailed, domain.VerificationDetails{Error: lastError}, nil
}

func (v *AddressVerifier) record(ctx context.Context, shipmentID uuid.UUID, provider string, status domain.AttemptStatus, request, response json.RawMessage, errMsg string) error {
	if len(response) == 0 {
		response = json.RawMessage("{}")
	}
	attempt := &domain.VerificationAttempt{
		ID:              uuid.New(),
		ShipmentID:      shipmentID,
		Provider:        provider,
		Status:          status,
		RequestPayload:  request,
		ResponsePayload: response,
		Error:           errMsg,
		CreatedAt:       v.now(),
	}
	if err := v.attempts.CreateAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("record %s attempt: %w", provider, err)
	}
	return nil
}

func statusFor(r *address.Result) domain.VerificationStatus {
	switch {
	case r.IsCorrected:
		return domain.VerificationStatusCorrected
	case r.IsValid:
		return domain.VerificationStatusValid
	default:
		return domain.VerificationStatusInvalid
	}
}

// Verifier is the per-address verification contract used by the services.
type Verifier interface {
	Verify(ctx context.Context, s *domain.Shipment, t domain.AddressType) (domain.VerificationStatus, domain.VerificationDetails, error)
}

// VerificationService verifies and re-validates whole shipments.
type VerificationService interface {
	// VerifyShipment verifies both addresses of a shipment, re-validates it
	// and saves the verification and validation fields.
	VerifyShipment(ctx context.Context, s *domain.Shipment) error

	// VerifyShipments runs VerifyShipment for every existing shipment among
	// ids and publishes a ShipmentsVerified event. Returns the count processed.
	VerifyShipments(ctx context.Context, ids []uuid.UUID) (int, error)

	// ImportShipmentIDs lists an import's shipments in row order so their
	// verification can be split into independent jobs.
	ImportShipmentIDs(ctx context.Context, importJobID uuid.UUID) ([]uuid.UUID, error)
}

type verificationService struct {
	verifier  Verifier
	shipments ShipmentStore
	events    events.Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(verifier Verifier, shipments ShipmentStore, publisher events.Publisher, metrics *telemetry.Metrics, logger *slog.Logger) VerificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &verificationService{
		verifier:  verifier,
		shipments: shipments,
		events:    publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *verificationService) VerifyShipment(ctx context.Context, shipment *domain.Shipment) error {
	if err := s.verifyAddress(ctx, shipment, domain.AddressTo, shipment.AddressComplete(domain.AddressTo)); err != nil {
		return err
	}
	verifyFrom := shipment.AddressComplete(domain.AddressFrom) && !shipment.FromAddressIsPreset
	if err := s.verifyAddress(ctx, shipment, domain.AddressFrom, verifyFrom); err != nil {
		return err
	}

	res := validation.Apply(shipment)
	s.metrics.RecordValidation(string(res.Status))

	if err := s.shipments.SaveVerification(ctx, shipment); err != nil {
		return domain.Internal(err, "shipment.verify", "failed to save verification")
	}
	return nil
}

func (s *verificationService) verifyAddress(ctx context.Context, shipment *domain.Shipment, t domain.AddressType, verify bool) error {
	if !verify {
		shipment.SetVerification(t, domain.VerificationStatusNotStarted, domain.VerificationDetails{})
		return nil
	}
	status, details, err := s.verifier.Verify(ctx, shipment, t)
	if err != nil {
		return domain.Internal(err, "shipment.verify", "failed to verify address")
	}
	shipment.SetVerification(t, status, details)
	s.metrics.RecordVerification(string(t), string(status))
	return nil
}

func (s *verificationService) VerifyShipments(ctx context.Context, ids []uuid.UUID) (int, error) {
	shipments, err := s.shipments.ListShipmentsByIDs(ctx, ids)
	if err != nil {
		return 0, domain.Internal(err, "shipments.verify", "failed to load shipments")
	}

	processed, err := s.verifyAll(ctx, shipments)
	s.logger.InfoContext(ctx, "address.verify.completed", slog.Int("shipment_count", processed))
	if err != nil {
		return processed, err
	}

	verified := make([]uuid.UUID, 0, len(shipments))
	for _, sh := range shipments {
		verified = append(verified, sh.ID)
	}
	if err := s.events.Publish(ctx, events.SubjectShipmentsVerified, events.ShipmentsVerified{
		ShipmentIDs: verified,
		Count:       processed,
		OccurredAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", slog.String("subject", events.SubjectShipmentsVerified), slog.Any("error", err))
	}
	return processed, nil
}

func (s *verificationService) ImportShipmentIDs(ctx context.Context, importJobID uuid.UUID) ([]uuid.UUID, error) {
	shipments, err := s.shipments.ListShipmentsByImport(ctx, importJobID)
	if err != nil {
		return nil, domain.Internal(err, "import.verify", "failed to load shipments")
	}

	ids := make([]uuid.UUID, 0, len(shipments))
	for _, sh := range shipments {
		ids = append(ids, sh.ID)
	}
	s.logger.InfoContext(ctx, "address.verify.started",
		slog.String("import_job_id", importJobID.String()),
		slog.Int("shipment_count", len(ids)),
	)
	return ids, nil
}

// verifyAll stops at the first infrastructure error. Shipments already
// saved keep their results; a rerun of the same chunk verifies them again.
func (s *verificationService) verifyAll(ctx context.Context, shipments []*domain.Shipment) (int, error) {
	processed := 0
	for _, sh := range shipments {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if err := s.VerifyShipment(ctx, sh); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
