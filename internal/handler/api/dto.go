package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
)

// shipmentResponse is the JSON form of a shipment. Absent measurements and an
// unselected service render as null.
type shipmentResponse struct {
	ID                  uuid.UUID `json:"id"`
	ImportJobID         uuid.UUID `json:"import_job_id"`
	RowNumber           int       `json:"row_number"`
	ExternalOrderNumber string    `json:"external_order_number"`
	SKU                 string    `json:"sku"`

	FromName       string `json:"from_name"`
	FromCompany    string `json:"from_company"`
	FromStreet1    string `json:"from_street1"`
	FromStreet2    string `json:"from_street2"`
	FromCity       string `json:"from_city"`
	FromState      string `json:"from_state"`
	FromPostalCode string `json:"from_postal_code"`
	FromCountry    string `json:"from_country"`

	ToName       string `json:"to_name"`
	ToCompany    string `json:"to_company"`
	ToStreet1    string `json:"to_street1"`
	ToStreet2    string `json:"to_street2"`
	ToCity       string `json:"to_city"`
	ToState      string `json:"to_state"`
	ToPostalCode string `json:"to_postal_code"`
	ToCountry    string `json:"to_country"`

	WeightOz *string `json:"weight_oz"`
	LengthIn *string `json:"length_in"`
	WidthIn  *string `json:"width_in"`
	HeightIn *string `json:"height_in"`

	ValidationStatus domain.ValidationStatus `json:"validation_status"`
	ValidationErrors []domain.FieldError     `json:"validation_errors"`

	AddressVerificationStatus      domain.VerificationStatus  `json:"address_verification_status"`
	AddressVerificationDetails     domain.VerificationDetails `json:"address_verification_details"`
	FromAddressVerificationStatus  domain.VerificationStatus  `json:"from_address_verification_status"`
	FromAddressVerificationDetails domain.VerificationDetails `json:"from_address_verification_details"`
	FromAddressIsPreset            bool                       `json:"from_address_is_preset"`

	SelectedService           *string `json:"selected_service"`
	SelectedServicePriceCents *int    `json:"selected_service_price_cents"`

	LabelStatus domain.LabelStatus `json:"label_status"`
	LabelURL    string             `json:"label_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func newShipmentResponse(s *domain.Shipment) shipmentResponse {
	errs := s.ValidationErrors
	if errs == nil {
		errs = []domain.FieldError{}
	}
	return shipmentResponse{
		ID:                  s.ID,
		ImportJobID:         s.ImportJobID,
		RowNumber:           s.RowNumber,
		ExternalOrderNumber: s.ExternalOrderNumber,
		SKU:                 s.SKU,

		FromName:       s.FromName,
		FromCompany:    s.FromCompany,
		FromStreet1:    s.FromStreet1,
		FromStreet2:    s.FromStreet2,
		FromCity:       s.FromCity,
		FromState:      s.FromState,
		FromPostalCode: s.FromPostalCode,
		FromCountry:    s.FromCountry,

		ToName:       s.ToName,
		ToCompany:    s.ToCompany,
		ToStreet1:    s.ToStreet1,
		ToStreet2:    s.ToStreet2,
		ToCity:       s.ToCity,
		ToState:      s.ToState,
		ToPostalCode: s.ToPostalCode,
		ToCountry:    s.ToCountry,

		WeightOz: optionalText(s.WeightOz),
		LengthIn: optionalText(s.LengthIn),
		WidthIn:  optionalText(s.WidthIn),
		HeightIn: optionalText(s.HeightIn),

		ValidationStatus: s.ValidationStatus,
		ValidationErrors: errs,

		AddressVerificationStatus:      s.AddressVerificationStatus,
		AddressVerificationDetails:     s.AddressVerificationDetails,
		FromAddressVerificationStatus:  s.FromAddressVerificationStatus,
		FromAddressVerificationDetails: s.FromAddressVerificationDetails,
		FromAddressIsPreset:            s.FromAddressIsPreset,

		SelectedService:           optionalText(s.SelectedService),
		SelectedServicePriceCents: s.SelectedServicePriceCents,

		LabelStatus: s.LabelStatus,
		LabelURL:    s.LabelURL,

		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func newShipmentResponses(list []*domain.Shipment) []shipmentResponse {
	out := make([]shipmentResponse, 0, len(list))
	for _, s := range list {
		out = append(out, newShipmentResponse(s))
	}
	return out
}

// importResponse is an import job flattened with its shipment counts.
type importResponse struct {
	ImportJobID      uuid.UUID           `json:"import_job_id"`
	OriginalFilename string              `json:"original_filename"`
	Status           domain.ImportStatus `json:"status"`
	ProgressTotal    int                 `json:"progress_total"`
	ProgressDone     int                 `json:"progress_done"`
	ErrorSummary     string              `json:"error_summary"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	domain.ImportSummary
}

func newImportResponse(d *service.ImportDetail) importResponse {
	return importResponse{
		ImportJobID:      d.Job.ID,
		OriginalFilename: d.Job.OriginalFilename,
		Status:           d.Job.Status,
		ProgressTotal:    d.Job.ProgressTotal,
		ProgressDone:     d.Job.ProgressDone,
		ErrorSummary:     d.Job.ErrorSummary,
		CreatedAt:        d.Job.CreatedAt,
		UpdatedAt:        d.Job.UpdatedAt,
		ImportSummary:    d.Summary,
	}
}

// uploadResponse acknowledges an accepted upload.
type uploadResponse struct {
	ImportJobID uuid.UUID           `json:"import_job_id"`
	Status      domain.ImportStatus `json:"status"`
}

// pageResponse is one page of a paginated listing.
type pageResponse struct {
	Count    int                `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  []shipmentResponse `json:"results"`
}

// quoteResponse wraps the per-shipment quotes.
type quoteResponse struct {
	Results []service.ShipmentQuote `json:"results"`
}
