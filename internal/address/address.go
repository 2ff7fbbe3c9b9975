package address

import (
	"context"
	"encoding/json"
)

// Provider names used in attempt records and configuration.
const (
	ProviderGoogle = "google"
	ProviderSmarty = "smarty"
	ProviderUSPS   = "usps"
)

// Provider verifies an address against an external validation service.
// Implementations never return a Go error for expected failure modes; every
// transport or credential problem is reported through the Outcome.
type Provider interface {
	// Name identifies the provider in attempt records and logs.
	Name() string

	// Verify normalizes the address and reports whether it is deliverable.
	Verify(ctx context.Context, addr Input) Outcome
}

// Input is the address as supplied by a shipment. Fields are free text and
// may be incomplete.
type Input struct {
	Name       string `json:"name"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Normalized is a provider's canonical form of an address.
type Normalized struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Result is the outcome of one successful provider call.
// SuggestedAddress is set only when IsValid is true.
type Result struct {
	IsValid          bool
	IsCorrected      bool
	SuggestedAddress *Normalized
	Messages         []string
	Raw              json.RawMessage
}

// Outcome carries either a Result or a ProviderError, never both.
type Outcome struct {
	Result *Result
	Err    *ProviderError
}

// Success wraps a successful provider response.
func Success(r Result) Outcome {
	if r.Messages == nil {
		r.Messages = []string{}
	}
	if !r.IsValid {
		r.SuggestedAddress = nil
	}
	return Outcome{Result: &r}
}

// Failure wraps a classified provider failure.
func Failure(err *ProviderError) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the call produced a result.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// WithDefaults fills in the country when the shipment left it blank.
func (a Input) WithDefaults() Input {
	if a.Country == "" {
		a.Country = "US"
	}
	return a
}
