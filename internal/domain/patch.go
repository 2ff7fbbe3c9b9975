package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Optional is a PATCH field that distinguishes "absent" from "null".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON marks the field as present and records an explicit null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// ShipmentPatch holds the editable fields of a shipment. Only fields present
// in the request body are applied.
type ShipmentPatch struct {
	FromName       Optional[string] `json:"from_name"`
	FromCompany    Optional[string] `json:"from_company"`
	FromStreet1    Optional[string] `json:"from_street1"`
	FromStreet2    Optional[string] `json:"from_street2"`
	FromCity       Optional[string] `json:"from_city"`
	FromState      Optional[string] `json:"from_state"`
	FromPostalCode Optional[string] `json:"from_postal_code"`
	FromCountry    Optional[string] `json:"from_country"`

	ToName       Optional[string] `json:"to_name"`
	ToCompany    Optional[string] `json:"to_company"`
	ToStreet1    Optional[string] `json:"to_street1"`
	ToStreet2    Optional[string] `json:"to_street2"`
	ToCity       Optional[string] `json:"to_city"`
	ToState      Optional[string] `json:"to_state"`
	ToPostalCode Optional[string] `json:"to_postal_code"`
	ToCountry    Optional[string] `json:"to_country"`

	WeightOz Optional[Measurement] `json:"weight_oz"`
	LengthIn Optional[Measurement] `json:"length_in"`
	WidthIn  Optional[Measurement] `json:"width_in"`
	HeightIn Optional[Measurement] `json:"height_in"`

	SelectedService           Optional[string] `json:"selected_service"`
	SelectedServicePriceCents Optional[int]    `json:"selected_service_price_cents"`
}

// nonNullable lists the fields that reject an explicit null. Company and
// street2 accept null as an empty string; measurements accept it as absent.
var nonNullable = []string{
	"from_name", "from_street1", "from_city", "from_state", "from_postal_code", "from_country",
	"to_name", "to_street1", "to_city", "to_state", "to_postal_code", "to_country",
	"selected_service",
}

// Validate rejects nulls on fields that must hold text.
func (p *ShipmentPatch) Validate() error {
	var err error
	for _, f := range p.stringFields() {
		if f.opt.Null && slices.Contains(nonNullable, f.name) {
			err = AddFieldError(err, f.name, "This field may not be null.")
		}
	}
	if ve, ok := err.(*ValidationError); ok {
		ve.Op = "shipment.update"
		return ve
	}
	return nil
}

// Apply copies every present field onto the shipment.
func (p *ShipmentPatch) Apply(s *Shipment) {
	set := func(dst *string, o Optional[string]) {
		if o.Set {
			*dst = o.Value
		}
	}
	setNumber := func(dst *string, o Optional[Measurement]) {
		if o.Set {
			*dst = string(o.Value)
		}
	}

	set(&s.FromName, p.FromName)
	set(&s.FromCompany, p.FromCompany)
	set(&s.FromStreet1, p.FromStreet1)
	set(&s.FromStreet2, p.FromStreet2)
	set(&s.FromCity, p.FromCity)
	set(&s.FromState, p.FromState)
	set(&s.FromPostalCode, p.FromPostalCode)
	set(&s.FromCountry, p.FromCountry)

	set(&s.ToName, p.ToName)
	set(&s.ToCompany, p.ToCompany)
	set(&s.ToStreet1, p.ToStreet1)
	set(&s.ToStreet2, p.ToStreet2)
	set(&s.ToCity, p.ToCity)
	set(&s.ToState, p.ToState)
	set(&s.ToPostalCode, p.ToPostalCode)
	set(&s.ToCountry, p.ToCountry)

	setNumber(&s.WeightOz, p.WeightOz)
	setNumber(&s.LengthIn, p.LengthIn)
	setNumber(&s.WidthIn, p.WidthIn)
	setNumber(&s.HeightIn, p.HeightIn)

	set(&s.SelectedService, p.SelectedService)
	if p.SelectedServicePriceCents.Set {
		if p.SelectedServicePriceCents.Null {
			s.SelectedServicePriceCents = nil
		} else {
			v := p.SelectedServicePriceCents.Value
			s.SelectedServicePriceCents = &v
		}
	}
}

type namedField struct {
	name string
	opt  Optional[string]
}

func (p *ShipmentPatch) stringFields() []namedField {
	return []namedField{
		{"from_name", p.FromName},
		{"from_company", p.FromCompany},
		{"from_street1", p.FromStreet1},
		{"from_street2", p.FromStreet2},
		{"from_city", p.FromCity},
		{"from_state", p.FromState},
		{"from_postal_code", p.FromPostalCode},
		{"from_country", p.FromCountry},
		{"to_name", p.ToName},
		{"to_company", p.ToCompany},
		{"to_street1", p.ToStreet1},
		{"to_street2", p.ToStreet2},
		{"to_city", p.ToCity},
		{"to_state", p.ToState},
		{"to_postal_code", p.ToPostalCode},
		{"to_country", p.ToCountry},
		{"selected_service", p.SelectedService},
	}
}

// Measurement is a weight or dimension as sent by a client. It accepts a JSON
// number or a string and keeps the text as entered.
type Measurement string

// UnmarshalJSON implements json.Unmarshaler.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Measurement(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = Measurement(n.String())
	return nil
}
