package shipping

import (
	"context"
	"time"
)

// Provider defines the interface for quoting and label purchase.
type Provider interface {
	// GetRates returns the available services for a package.
	// A package without a usable weight gets no rates and no error.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)

	// CreateLabel purchases a label for one shipment of a purchase batch.
	CreateLabel(ctx context.Context, params LabelParams) (*Label, error)

	// BatchLabelURL returns the combined download URL of a purchase batch.
	BatchLabelURL(purchaseID string) string
}

// RateParams contains parameters for calculating shipping rates.
type RateParams struct {
	// WeightOz is the package weight as stored on the shipment. Empty means
	// the weight is unknown.
	WeightOz string
}

// Rate represents a shipping rate option.
type Rate struct {
	ServiceCode string `json:"service"`
	ServiceName string `json:"name"`
	CostCents   int    `json:"price_cents"`
}

// Label represents a purchased shipping label.
type Label struct {
	LabelURL  string
	CreatedAt time.Time
}

// LabelParams contains parameters for creating a shipping label.
type LabelParams struct {
	PurchaseID  string
	ShipmentID  string
	ServiceCode string
}
