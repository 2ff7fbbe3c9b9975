package address

import (
	"context"
	"encoding/json"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	ProviderName string
	VerifyFunc   func(ctx context.Context, addr Input) Outcome

	// Calls records every address passed to Verify.
	Calls []Input
}

// NewMockProvider creates a mock provider that reports every address as valid
// and unchanged.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{ProviderName: name}
}

// Name implements Provider.
func (m *MockProvider) Name() string { return m.ProviderName }

// Verify delegates to the configured function or returns a default result.
func (m *MockProvider) Verify(ctx context.Context, addr Input) Outcome {
	m.Calls = append(m.Calls, addr)
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, addr)
	}

	suggested := Normalized{
		Street1:    addr.Street1,
		Street2:    addr.Street2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.WithDefaults().Country,
	}
	return Success(Result{
		IsValid:          true,
		SuggestedAddress: &suggested,
		Raw:              json.RawMessage(`{"response":{}}`),
	})
}
