package address

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const googleBaseURL = "https://addressvalidation.googleapis.com"

// GoogleConfig contains configuration for the Google Address Validation provider.
type GoogleConfig struct {
	APIKey  string
	BaseURL string // Optional: defaults to the public endpoint
	Client  ClientConfig
}

// GoogleProvider verifies addresses with the Google Address Validation API.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *client
}

// NewGoogleProvider creates a Google provider. A missing API key is not an
// error here; Verify reports it as a retryable failure.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleProvider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  newClient(ProviderGoogle, cfg.Client, true),
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return ProviderGoogle }

type googleRequest struct {
	Address        googlePostalAddress `json:"address"`
	EnableUspsCass bool                `json:"enableUspsCass"`
}

type googlePostalAddress struct {
	AddressLines       []string `json:"addressLines"`
	Locality           string   `json:"locality"`
	AdministrativeArea string   `json:"administrativeArea"`
	PostalCode         string   `json:"postalCode"`
	RegionCode         string   `json:"regionCode"`
}

type googleResponse struct {
	Result struct {
		Verdict struct {
			AddressComplete bool `json:"addressComplete"`
		} `json:"verdict"`
		Address struct {
			PostalAddress googlePostalAddress `json:"postalAddress"`
		} `json:"address"`
	} `json:"result"`
}

// Verify implements Provider.
func (p *GoogleProvider) Verify(ctx context.Context, addr Input) Outcome {
	if p.apiKey == "" {
		return missingCredentials(ProviderGoogle, "Google API key missing")
	}
	addr = addr.WithDefaults()

	body, err := json.Marshal(googleRequest{
		Address: googlePostalAddress{
			AddressLines:       []string{addr.Street1, addr.Street2},
			Locality:           addr.City,
			AdministrativeArea: addr.State,
			PostalCode:         addr.PostalCode,
			RegionCode:         addr.Country,
		},
		EnableUspsCass: true,
	})
	if err != nil {
		return Failure(retryable(ProviderGoogle, "Google request error", err))
	}

	endpoint := p.baseURL + "/v1:validateAddress?" + url.Values{"key": {p.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure(retryable(ProviderGoogle, "Google request error", err))
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, perr := p.client.do(ctx, req)
	if perr != nil {
		return Failure(perr)
	}

	payload := decodeJSONObject(respBody)

	var parsed googleResponse
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return Failure(retryable(ProviderGoogle, "Google response could not be decoded", err))
		}
	}

	postal := parsed.Result.Address.PostalAddress
	suggested := Normalized{
		City:       postal.Locality,
		State:      postal.AdministrativeArea,
		PostalCode: postal.PostalCode,
		Country:    postal.RegionCode,
	}
	if len(postal.AddressLines) > 0 {
		suggested.Street1 = postal.AddressLines[0]
	}
	if len(postal.AddressLines) > 1 {
		suggested.Street2 = postal.AddressLines[1]
	}
	if suggested.Country == "" {
		suggested.Country = "US"
	}

	isValid := parsed.Result.Verdict.AddressComplete
	result := Result{
		IsValid:  isValid,
		Messages: []string{},
		Raw:      wrapRaw("response", payload),
	}
	if isValid {
		result.SuggestedAddress = &suggested
		result.IsCorrected = !Matches(addr, suggested)
	} else {
		result.Messages = append(result.Messages, "Address validation failed")
	}

	return Success(result)
}

// decodeJSONObject returns the body as raw JSON, treating an empty body as
// an empty payload.
func decodeJSONObject(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	return json.RawMessage(trimmed)
}

// wrapRaw stores a provider payload under a single key for the audit trail.
func wrapRaw(key string, payload json.RawMessage) json.RawMessage {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	raw, err := json.Marshal(map[string]json.RawMessage{key: payload})
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
