// Package validation derives a shipment's readiness from its current fields.
//
// Validate is pure: it reads the shipment, never mutates it, and performs no
// I/O. Every rule runs on every call and errors accumulate in a fixed order.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukerupert/parcelry/internal/domain"
)

// Error codes attached to FieldError.Code.
const (
	CodeRequired                  = "required"
	CodeInvalidState              = "invalid_state"
	CodeInvalidPostalCode         = "invalid_postal_code"
	CodeInvalidWeight             = "invalid_weight"
	CodeIncompleteDimensions      = "incomplete_dimensions"
	CodeInvalidDimension          = "invalid_dimension"
	CodeAddressInvalid            = "address_invalid"
	CodeAddressVerificationFailed = "address_verification_failed"
)

// MaxWeightOz is the heaviest shipment accepted, in ounces.
const MaxWeightOz = 2000

// hardInvalid codes outrank missing data: any of them makes the shipment INVALID.
var hardInvalid = map[string]bool{
	CodeInvalidState:      true,
	CodeInvalidPostalCode: true,
	CodeInvalidWeight:     true,
	CodeInvalidDimension:  true,
	CodeAddressInvalid:    true,
}

var postalCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// decimalPattern admits plain decimal notation only, so hex floats, NaN and
// Inf never reach strconv.
var decimalPattern = regexp.MustCompile(`^\+?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// states holds the 50 US states plus DC and PR.
var states = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true,
	"IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true, "MA": true,
	"MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true, "NV": true,
	"NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true, "WI": true,
	"WY": true, "DC": true, "PR": true,
}

// Result is the derived validation state of a shipment.
type Result struct {
	Status domain.ValidationStatus
	Errors []domain.FieldError
}

type field struct {
	name  string
	value string
}

// Validate inspects the shipment and returns its validation status and the
// ordered list of field errors.
func Validate(s *domain.Shipment) Result {
	v := &validator{errors: []domain.FieldError{}}

	v.required(
		field{"to_name", s.ToName},
		field{"to_street1", s.ToStreet1},
		field{"to_city", s.ToCity},
		field{"to_state", s.ToState},
		field{"to_postal_code", s.ToPostalCode},
		field{"from_name", s.FromName},
		field{"from_street1", s.FromStreet1},
		field{"from_city", s.FromCity},
		field{"from_state", s.FromState},
		field{"from_postal_code", s.FromPostalCode},
		field{"weight_oz", s.WeightOz},
	)

	v.state(field{"to_state", s.ToState})
	v.state(field{"from_state", s.FromState})

	v.postalCode(field{"to_postal_code", s.ToPostalCode})
	v.postalCode(field{"from_postal_code", s.FromPostalCode})

	v.weight(field{"weight_oz", s.WeightOz})

	v.dimensions(
		field{"length_in", s.LengthIn},
		field{"width_in", s.WidthIn},
		field{"height_in", s.HeightIn},
	)

	v.verification("to_address", s.AddressVerificationStatus)
	v.verification("from_address", s.FromAddressVerificationStatus)

	return Result{Status: v.status(), Errors: v.errors}
}

// Apply validates the shipment and stores the result on it.
func Apply(s *domain.Shipment) Result {
	res := Validate(s)
	s.ValidationStatus = res.Status
	s.ValidationErrors = res.Errors
	return res
}

type validator struct {
	errors []domain.FieldError
}

func (v *validator) add(field, code, message string) {
	v.errors = append(v.errors, domain.FieldError{Field: field, Code: code, Message: message})
}

func (v *validator) required(fields ...field) {
	for _, f := range fields {
		if missing(f.value) {
			v.add(f.name, CodeRequired, fmt.Sprintf("%s is required", f.name))
		}
	}
}

func (v *validator) state(f field) {
	if missing(f.value) {
		return
	}
	if !states[strings.ToUpper(strings.TrimSpace(f.value))] {
		v.add(f.name, CodeInvalidState, fmt.Sprintf("%s must be a valid US state code", f.name))
	}
}

func (v *validator) postalCode(f field) {
	if missing(f.value) {
		return
	}
	if !postalCodePattern.MatchString(strings.TrimSpace(f.value)) {
		v.add(f.name, CodeInvalidPostalCode, fmt.Sprintf("%s must be a 5-digit ZIP or ZIP+4", f.name))
	}
}

func (v *validator) weight(f field) {
	if missing(f.value) {
		return
	}
	w, ok := positive(f.value)
	if !ok {
		v.add(f.name, CodeInvalidWeight, fmt.Sprintf("%s must be a positive number", f.name))
		return
	}
	if w > MaxWeightOz {
		v.add(f.name, CodeInvalidWeight, fmt.Sprintf("%s must not exceed %d oz", f.name, MaxWeightOz))
	}
}

func (v *validator) dimensions(fields ...field) {
	present := 0
	for _, f := range fields {
		if !missing(f.value) {
			present++
		}
	}
	if present == 0 {
		return
	}
	if present < len(fields) {
		v.add("dimensions", CodeIncompleteDimensions, "length_in, width_in and height_in must be provided together")
		return
	}
	for _, f := range fields {
		if _, ok := positive(f.value); !ok {
			v.add(f.name, CodeInvalidDimension, fmt.Sprintf("%s must be a positive number", f.name))
		}
	}
}

func (v *validator) verification(name string, status domain.VerificationStatus) {
	switch status {
	case domain.VerificationStatusInvalid:
		v.add(name, CodeAddressInvalid, fmt.Sprintf("%s could not be verified as deliverable", name))
	case domain.VerificationStatusFailed:
		v.add(name, CodeAddressVerificationFailed, fmt.Sprintf("%s verification failed; re-verify the address", name))
	}
}

func (v *validator) status() domain.ValidationStatus {
	if len(v.errors) == 0 {
		return domain.ValidationStatusReady
	}
	for _, e := range v.errors {
		if hardInvalid[e.Code] {
			return domain.ValidationStatusInvalid
		}
	}
	return domain.ValidationStatusNeedsInfo
}

func missing(value string) bool {
	return strings.TrimSpace(value) == ""
}

// positive parses a decimal measurement.
func positive(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if !decimalPattern.MatchString(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || !(f > 0) || math.IsInf(f, 1) {
		return 0, false
	}
	return f, true
}
