package address

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
)

const uspsBaseURL = "https://secure.shippingapis.com/ShippingAPI.dll"

// USPSConfig contains configuration for the USPS Web Tools Verify API.
type USPSConfig struct {
	UserID  string
	BaseURL string // Optional: defaults to the public endpoint
	Client  ClientConfig
}

// USPSProvider verifies addresses with the legacy USPS XML API.
// Unlike the JSON providers, a 401/403 from USPS ends the fallback chain.
type USPSProvider struct {
	userID  string
	baseURL string
	client  *client
}

// NewUSPSProvider creates a USPS provider.
func NewUSPSProvider(cfg USPSConfig) *USPSProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = uspsBaseURL
	}
	return &USPSProvider{
		userID:  cfg.UserID,
		baseURL: baseURL,
		client:  newClient(ProviderUSPS, cfg.Client, false),
	}
}

// Name implements Provider.
func (p *USPSProvider) Name() string { return ProviderUSPS }

// Verify implements Provider.
func (p *USPSProvider) Verify(ctx context.Context, addr Input) Outcome {
	if p.userID == "" {
		return missingCredentials(ProviderUSPS, "USPS user ID missing")
	}

	params := url.Values{
		"API": {"Verify"},
		"XML": {buildUSPSRequest(p.userID, addr)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Failure(retryable(ProviderUSPS, "USPS request error", err))
	}

	body, perr := p.client.do(ctx, req)
	if perr != nil {
		return Failure(perr)
	}

	return Success(parseUSPSResponse(string(body), addr))
}

// buildUSPSRequest renders the AddressValidateRequest document. USPS swaps
// the address lines: Address1 holds the secondary unit, Address2 the street.
func buildUSPSRequest(userID string, addr Input) string {
	zip5, zip4 := splitZip(addr.PostalCode)

	var b strings.Builder
	b.WriteString(`<AddressValidateRequest USERID="` + escapeXML(userID) + `">`)
	b.WriteString(`<Address ID="0">`)
	b.WriteString("<Address1>" + escapeXML(addr.Street2) + "</Address1>")
	b.WriteString("<Address2>" + escapeXML(addr.Street1) + "</Address2>")
	b.WriteString("<City>" + escapeXML(addr.City) + "</City>")
	b.WriteString("<State>" + escapeXML(addr.State) + "</State>")
	b.WriteString("<Zip5>" + escapeXML(zip5) + "</Zip5>")
	b.WriteString("<Zip4>" + escapeXML(zip4) + "</Zip4>")
	b.WriteString("</Address>")
	b.WriteString("</AddressValidateRequest>")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML escapes the five XML metacharacters.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

func splitZip(postalCode string) (zip5, zip4 string) {
	if before, after, ok := strings.Cut(postalCode, "-"); ok {
		return before, after
	}
	return postalCode, ""
}

type uspsError struct {
	Number      string `xml:"Number"`
	Description string `xml:"Description"`
}

type uspsAddress struct {
	Address1 string     `xml:"Address1"`
	Address2 string     `xml:"Address2"`
	City     string     `xml:"City"`
	State    string     `xml:"State"`
	Zip5     string     `xml:"Zip5"`
	Zip4     string     `xml:"Zip4"`
	Error    *uspsError `xml:"Error"`
}

type uspsDocument struct {
	XMLName     xml.Name
	Number      string        `xml:"Number"`
	Description string        `xml:"Description"`
	Error       *uspsError    `xml:"Error"`
	Addresses   []uspsAddress `xml:"Address"`
}

// parseUSPSResponse never fails: a malformed or error-bearing document is an
// invalid verification, not an infrastructure failure.
func parseUSPSResponse(body string, original Input) Result {
	rawXML := func() json.RawMessage {
		raw, _ := json.Marshal(map[string]string{"xml": body})
		return raw
	}

	invalid := func(message string) Result {
		return Result{
			IsValid:  false,
			Messages: []string{message},
			Raw:      rawXML(),
		}
	}

	var doc uspsDocument
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return invalid("USPS response parse error")
	}

	if doc.XMLName.Local == "Error" {
		return invalid(errorDescription(doc.Description))
	}
	if doc.Error != nil {
		return invalid(errorDescription(doc.Error.Description))
	}
	if len(doc.Addresses) == 0 {
		return invalid("USPS response missing address")
	}

	node := doc.Addresses[0]
	if node.Error != nil {
		return invalid(errorDescription(node.Error.Description))
	}

	postalCode := node.Zip5
	if node.Zip4 != "" {
		postalCode = node.Zip5 + "-" + node.Zip4
	}

	suggested := Normalized{
		Street1:    node.Address2,
		Street2:    node.Address1,
		City:       node.City,
		State:      node.State,
		PostalCode: postalCode,
		Country:    "US",
	}

	raw, err := json.Marshal(struct {
		Address Normalized `json:"address"`
		XML     string     `json:"xml"`
	}{suggested, body})
	if err != nil {
		raw = rawXML()
	}

	return Result{
		IsValid:          true,
		IsCorrected:      !Matches(original, suggested),
		SuggestedAddress: &suggested,
		Messages:         []string{},
		Raw:              raw,
	}
}

func errorDescription(description string) string {
	if strings.TrimSpace(description) == "" {
		return "USPS error"
	}
	return description
}
