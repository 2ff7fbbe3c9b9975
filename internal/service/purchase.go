package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/shipping"
	"github.com/dukerupert/parcelry/internal/telemetry"
	"github.com/google/uuid"
)

// ShippingService quotes services and buys labels.
type ShippingService interface {
	// Quote returns the rates of every shipment of an import, or of the listed
	// shipments when no import is given.
	Quote(ctx context.Context, req QuoteRequest) ([]ShipmentQuote, error)

	// Purchase buys labels for the eligible shipments of an import.
	Purchase(ctx context.Context, importJobID uuid.UUID, req PurchaseRequest) (*PurchaseResult, error)
}

// QuoteRequest selects the shipments to quote.
type QuoteRequest struct {
	ImportID    *uuid.UUID  `json:"import_id"`
	ShipmentIDs []uuid.UUID `json:"shipment_ids"`
}

// ShipmentQuote holds the rates for one shipment.
type ShipmentQuote struct {
	ShipmentID uuid.UUID       `json:"shipment_id"`
	Quotes     []shipping.Rate `json:"quotes"`
}

// PurchaseRequest is the body of a label purchase.
type PurchaseRequest struct {
	LabelFormat  string `json:"label_format"`
	AgreeToTerms bool   `json:"agree_to_terms"`
}

// PurchaseResult summarizes a label purchase.
type PurchaseResult struct {
	PurchaseID       string `json:"purchase_id"`
	LabelFormat      string `json:"label_format"`
	LabelDownloadURL string `json:"label_download_url"`
	PurchasedCount   int    `json:"purchased_count"`
	SkippedCount     int    `json:"skipped_count"`
}

type shippingService struct {
	shipments ShipmentStore
	provider  shipping.Provider
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewShippingService creates a ShippingService.
func NewShippingService(shipments ShipmentStore, provider shipping.Provider, metrics *telemetry.Metrics, logger *slog.Logger) ShippingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &shippingService{
		shipments: shipments,
		provider:  provider,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *shippingService) Quote(ctx context.Context, req QuoteRequest) ([]ShipmentQuote, error) {
	const op = "shipping.quote"

	var (
		shipments []*domain.Shipment
		err       error
	)
	switch {
	case req.ImportID != nil && *req.ImportID != uuid.Nil:
		shipments, err = s.shipments.ListShipmentsByImport(ctx, *req.ImportID)
	case len(req.ShipmentIDs) > 0:
		shipments, err = s.shipments.ListShipmentsByIDs(ctx, req.ShipmentIDs)
	default:
		return nil, ErrQuoteTargetRequired
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load shipments")
	}

	results := make([]ShipmentQuote, 0, len(shipments))
	for _, sh := range shipments {
		rates, err := s.provider.GetRates(ctx, shipping.RateParams{WeightOz: sh.WeightOz})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to quote shipment")
		}
		results = append(results, ShipmentQuote{ShipmentID: sh.ID, Quotes: rates})
	}
	return results, nil
}

func (s *shippingService) Purchase(ctx context.Context, importJobID uuid.UUID, req PurchaseRequest) (*PurchaseResult, error) {
	const op = "import.purchase"

	if !req.AgreeToTerms {
		return nil, ErrTermsRequired
	}

	shipments, err := s.shipments.ListShipmentsByImport(ctx, importJobID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load shipments")
	}
	if len(shipments) == 0 {
		return nil, ErrEmptyImport
	}

	eligible := make([]*domain.Shipment, 0, len(shipments))
	for _, sh := range shipments {
		if sh.Purchasable() {
			eligible = append(eligible, sh)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNotReady
	}

	purchaseID := uuid.NewString()
	for _, sh := range eligible {
		label, err := s.provider.CreateLabel(ctx, shipping.LabelParams{
			PurchaseID:  purchaseID,
			ShipmentID:  sh.ID.String(),
			ServiceCode: sh.SelectedService,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to create label")
		}
		if err := s.shipments.SetLabel(ctx, sh.ID, domain.LabelStatusPurchased, label.LabelURL); err != nil {
			return nil, domain.Internal(err, op, "failed to save label")
		}
	}
	s.metrics.RecordPurchase(len(eligible))

	s.logger.InfoContext(ctx, "import.purchase.completed",
		slog.String("import_job_id", importJobID.String()),
		slog.String("purchase_id", purchaseID),
		slog.Int("purchased_count", len(eligible)),
	)

	return &PurchaseResult{
		PurchaseID:       purchaseID,
		LabelFormat:      req.LabelFormat,
		LabelDownloadURL: s.provider.BatchLabelURL(purchaseID),
		PurchasedCount:   len(eligible),
		SkippedCount:     len(shipments) - len(eligible),
	}, nil
}
