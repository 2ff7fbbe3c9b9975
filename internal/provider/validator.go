package provider

import (
	"net/url"
	"strings"

	"github.com/dukerupert/parcelry/internal"
)

// ValidateAddressConfig checks the configured provider chain.
//
// Unknown or duplicated provider names and malformed base URLs are errors.
// Missing credentials are only warnings: the adapter is still built and
// reports a retryable failure at call time so the chain falls through.
func ValidateAddressConfig(cfg internal.AddressConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(cfg.Providers) == 0 {
		result.AddWarning("no address providers configured; every verification will fail")
	}

	seen := make(map[ProviderName]bool, len(cfg.Providers))
	for _, raw := range cfg.Providers {
		name := ProviderName(strings.ToLower(strings.TrimSpace(raw)))
		if !IsValidProviderName(name) {
			result.AddError("unknown address provider: " + raw)
			continue
		}
		if seen[name] {
			result.AddError("address provider listed twice: " + string(name))
			continue
		}
		seen[name] = true

		switch name {
		case ProviderNameGoogle:
			requireSetting("GOOGLE_ADDRESS_API_KEY", cfg.GoogleAPIKey, result)
			optionalURL("GOOGLE_ADDRESS_BASE_URL", cfg.GoogleBaseURL, result)
		case ProviderNameSmarty:
			requireSetting("SMARTY_AUTH_ID", cfg.SmartyAuthID, result)
			requireSetting("SMARTY_AUTH_TOKEN", cfg.SmartyAuthToken, result)
			optionalURL("SMARTY_BASE_URL", cfg.SmartyBaseURL, result)
		case ProviderNameUSPS:
			requireSetting("USPS_USER_ID", cfg.USPSUserID, result)
			optionalURL("USPS_BASE_URL", cfg.USPSBaseURL, result)
		}
	}

	if cfg.RequestsPerSec < 0 {
		result.AddError("ADDRESS_PROVIDER_RPS cannot be negative")
	}

	return result
}

// requireSetting warns when a credential is blank.
func requireSetting(key, value string, result *ValidationResult) {
	if strings.TrimSpace(value) == "" {
		result.AddWarning(key + " is not set")
	}
}

// optionalURL validates an override URL when one is given.
func optionalURL(key, value string, result *ValidationResult) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("field " + key + " must be an absolute URL")
	}
}
