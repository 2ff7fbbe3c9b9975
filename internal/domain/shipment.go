package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dukerupert/parcelry/internal/address"
	"github.com/google/uuid"
)

// =============================================================================
// SHIPMENT DOMAIN TYPES
// =============================================================================

// ValidationStatus is the derived readiness tier of a shipment.
type ValidationStatus string

const (
	ValidationStatusNeedsInfo ValidationStatus = "NEEDS_INFO"
	ValidationStatusInvalid   ValidationStatus = "INVALID"
	ValidationStatusReady     ValidationStatus = "READY"
)

// VerificationStatus is the outcome of verifying one of a shipment's addresses.
type VerificationStatus string

const (
	VerificationStatusNotStarted VerificationStatus = "NOT_STARTED"
	VerificationStatusValid      VerificationStatus = "VALID"
	VerificationStatusCorrected  VerificationStatus = "CORRECTED"
	VerificationStatusInvalid    VerificationStatus = "INVALID"
	VerificationStatusFailed     VerificationStatus = "FAILED"
)

// Verified reports whether a provider confirmed the address as deliverable.
func (s VerificationStatus) Verified() bool {
	return s == VerificationStatusValid || s == VerificationStatusCorrected
}

// LabelStatus tracks the label purchase for a shipment.
type LabelStatus string

const (
	LabelStatusNotPurchased LabelStatus = "NOT_PURCHASED"
	LabelStatusPurchased    LabelStatus = "PURCHASED"
	LabelStatusFailed       LabelStatus = "FAILED"
)

// AddressType selects which of a shipment's two addresses an operation targets.
type AddressType string

const (
	AddressTo   AddressType = "to"
	AddressFrom AddressType = "from"
)

// FieldError is one entry of a shipment's validation error list.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VerificationDetails is the payload stored next to a verification status.
//
// A successful provider call fills Provider, Messages, SuggestedAddress, Raw
// and AddressType. A FAILED verification only carries Error. NOT_STARTED is
// the zero value.
type VerificationDetails struct {
	Provider         string              `json:"provider"`
	Messages         []string            `json:"messages"`
	SuggestedAddress *address.Normalized `json:"suggested_address"`
	Raw              json.RawMessage     `json:"raw"`
	AddressType      AddressType         `json:"address_type"`
	Error            string              `json:"error"`
}

// IsZero reports whether the details are empty.
func (d VerificationDetails) IsZero() bool {
	return d.Provider == "" && d.Error == "" && d.AddressType == "" &&
		len(d.Messages) == 0 && d.SuggestedAddress == nil && len(d.Raw) == 0
}

// MarshalJSON renders only the keys that apply to the details' shape.
func (d VerificationDetails) MarshalJSON() ([]byte, error) {
	switch {
	case d.Provider != "":
		messages := d.Messages
		if messages == nil {
			messages = []string{}
		}
		raw := d.Raw
		if len(raw) == 0 {
			raw = json.RawMessage("{}")
		}
		return json.Marshal(struct {
			Provider         string              `json:"provider"`
			Messages         []string            `json:"messages"`
			SuggestedAddress *address.Normalized `json:"suggested_address"`
			Raw              json.RawMessage     `json:"raw"`
			AddressType      AddressType         `json:"address_type,omitempty"`
		}{d.Provider, messages, d.SuggestedAddress, raw, d.AddressType})
	case d.Error != "":
		return json.Marshal(struct {
			Error string `json:"error"`
		}{d.Error})
	}
	return []byte("{}"), nil
}

// Shipment is one row of an import and the unit every pipeline step works on.
// Measurements are kept as entered; an empty string means the value is absent.
type Shipment struct {
	ID                  uuid.UUID
	ImportJobID         uuid.UUID
	RowNumber           int
	ExternalOrderNumber string
	SKU                 string

	FromName       string
	FromCompany    string
	FromStreet1    string
	FromStreet2    string
	FromCity       string
	FromState      string
	FromPostalCode string
	FromCountry    string

	ToName       string
	ToCompany    string
	ToStreet1    string
	ToStreet2    string
	ToCity       string
	ToState      string
	ToPostalCode string
	ToCountry    string

	WeightOz string
	LengthIn string
	WidthIn  string
	HeightIn string

	ValidationStatus ValidationStatus
	ValidationErrors []FieldError

	AddressVerificationStatus      VerificationStatus
	AddressVerificationDetails     VerificationDetails
	FromAddressVerificationStatus  VerificationStatus
	FromAddressVerificationDetails VerificationDetails
	FromAddressIsPreset            bool

	SelectedService           string
	SelectedServicePriceCents *int

	LabelStatus LabelStatus
	LabelURL    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewShipment returns a shipment with the defaults of a freshly imported row.
func NewShipment(importJobID uuid.UUID, rowNumber int) *Shipment {
	return &Shipment{
		ID:                            uuid.New(),
		ImportJobID:                   importJobID,
		RowNumber:                     rowNumber,
		FromCountry:                   "US",
		ToCountry:                     "US",
		ValidationStatus:              ValidationStatusNeedsInfo,
		ValidationErrors:              []FieldError{},
		AddressVerificationStatus:     VerificationStatusNotStarted,
		FromAddressVerificationStatus: VerificationStatusNotStarted,
		LabelStatus:                   LabelStatusNotPurchased,
	}
}

// AddressInput builds the provider input for the selected address.
func (s *Shipment) AddressInput(t AddressType) address.Input {
	var in address.Input
	if t == AddressFrom {
		in = address.Input{
			Name:       s.FromName,
			Street1:    s.FromStreet1,
			Street2:    s.FromStreet2,
			City:       s.FromCity,
			State:      s.FromState,
			PostalCode: s.FromPostalCode,
			Country:    s.FromCountry,
		}
	} else {
		in = address.Input{
			Name:       s.ToName,
			Street1:    s.ToStreet1,
			Street2:    s.ToStreet2,
			City:       s.ToCity,
			State:      s.ToState,
			PostalCode: s.ToPostalCode,
			Country:    s.ToCountry,
		}
	}
	return in.WithDefaults()
}

// AddressComplete reports whether the selected address has every field a
// provider needs: name, street1, city, state and postal code.
func (s *Shipment) AddressComplete(t AddressType) bool {
	in := s.AddressInput(t)
	for _, v := range []string{in.Name, in.Street1, in.City, in.State, in.PostalCode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// SetVerification stores a verification outcome on the selected address.
func (s *Shipment) SetVerification(t AddressType, status VerificationStatus, details VerificationDetails) {
	if t == AddressFrom {
		s.FromAddressVerificationStatus = status
		s.FromAddressVerificationDetails = details
		return
	}
	s.AddressVerificationStatus = status
	s.AddressVerificationDetails = details
}

// Purchasable reports whether a label can be bought for the shipment.
func (s *Shipment) Purchasable() bool {
	return s.ValidationStatus == ValidationStatusReady &&
		s.SelectedService != "" &&
		s.AddressVerificationStatus.Verified()
}

// ShipmentFilter narrows a shipment listing within one import.
type ShipmentFilter struct {
	ImportJobID uuid.UUID
	Status      ValidationStatus
	Search      string
	Limit       int
	Offset      int
}
