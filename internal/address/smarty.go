package address

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const smartyBaseURL = "https://us-street.api.smarty.com"

// SmartyConfig contains configuration for the Smarty US Street provider.
type SmartyConfig struct {
	AuthID    string
	AuthToken string
	BaseURL   string // Optional: defaults to the public endpoint
	Client    ClientConfig
}

// SmartyProvider verifies addresses with the Smarty US Street API.
type SmartyProvider struct {
	authID    string
	authToken string
	baseURL   string
	client    *client
}

// NewSmartyProvider creates a Smarty provider.
func NewSmartyProvider(cfg SmartyConfig) *SmartyProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = smartyBaseURL
	}
	return &SmartyProvider{
		authID:    cfg.AuthID,
		authToken: cfg.AuthToken,
		baseURL:   baseURL,
		client:    newClient(ProviderSmarty, cfg.Client, true),
	}
}

// Name implements Provider.
func (p *SmartyProvider) Name() string { return ProviderSmarty }

type smartyCandidate struct {
	DeliveryLine1 string `json:"delivery_line_1"`
	DeliveryLine2 string `json:"delivery_line_2"`
	Components    struct {
		Zipcode           string `json:"zipcode"`
		Plus4Code         string `json:"plus4_code"`
		CityName          string `json:"city_name"`
		StateAbbreviation string `json:"state_abbreviation"`
	} `json:"components"`
}

// Verify implements Provider.
func (p *SmartyProvider) Verify(ctx context.Context, addr Input) Outcome {
	if p.authID == "" || p.authToken == "" {
		return missingCredentials(ProviderSmarty, "Smarty credentials missing")
	}

	params := url.Values{
		"auth-id":    {p.authID},
		"auth-token": {p.authToken},
		"street":     {addr.Street1},
		"street2":    {addr.Street2},
		"city":       {addr.City},
		"state":      {addr.State},
		"zipcode":    {addr.PostalCode},
		"candidates": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/street-address?"+params.Encode(), nil)
	if err != nil {
		return Failure(retryable(ProviderSmarty, "Smarty request error", err))
	}

	body, perr := p.client.do(ctx, req)
	if perr != nil {
		return Failure(perr)
	}

	payload := decodeJSONObject(body)

	var candidates []smartyCandidate
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &candidates); err != nil {
			return Failure(retryable(ProviderSmarty, "Smarty response could not be decoded", err))
		}
	}

	if len(candidates) == 0 {
		if len(payload) == 0 {
			payload = json.RawMessage("[]")
		}
		return Success(Result{
			IsValid:  false,
			Messages: []string{"No match found"},
			Raw:      wrapRaw("response", payload),
		})
	}

	candidate := candidates[0]
	postalCode := candidate.Components.Zipcode
	if candidate.Components.Plus4Code != "" {
		postalCode = postalCode + "-" + candidate.Components.Plus4Code
	}

	suggested := Normalized{
		Street1:    candidate.DeliveryLine1,
		Street2:    candidate.DeliveryLine2,
		City:       candidate.Components.CityName,
		State:      candidate.Components.StateAbbreviation,
		PostalCode: postalCode,
		Country:    "US",
	}

	return Success(Result{
		IsValid:          true,
		IsCorrected:      !Matches(addr, suggested),
		SuggestedAddress: &suggested,
		Raw:              wrapRaw("response", payload),
	})
}
