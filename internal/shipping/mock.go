package shipping

import (
	"context"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	GetRatesFunc      func(ctx context.Context, params RateParams) ([]Rate, error)
	CreateLabelFunc   func(ctx context.Context, params LabelParams) (*Label, error)
	BatchLabelURLFunc func(purchaseID string) string
}

// NewMockProvider creates a new mock shipping provider for testing.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// GetRates delegates to the configured function or returns no rates.
func (m *MockProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	if m.GetRatesFunc != nil {
		return m.GetRatesFunc(ctx, params)
	}
	return []Rate{}, nil
}

// CreateLabel delegates to the configured function or returns an empty label.
func (m *MockProvider) CreateLabel(ctx context.Context, params LabelParams) (*Label, error) {
	if m.CreateLabelFunc != nil {
		return m.CreateLabelFunc(ctx, params)
	}
	return &Label{LabelURL: "mock://" + params.PurchaseID + "/" + params.ShipmentID}, nil
}

// BatchLabelURL delegates to the configured function.
func (m *MockProvider) BatchLabelURL(purchaseID string) string {
	if m.BatchLabelURLFunc != nil {
		return m.BatchLabelURLFunc(purchaseID)
	}
	return "mock://" + purchaseID
}
