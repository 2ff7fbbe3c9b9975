package provider

import (
	"log/slog"
	"strings"

	"github.com/dukerupert/parcelry/internal"
	"github.com/dukerupert/parcelry/internal/address"
)

// BuildAddressProviders creates the configured adapters in fallback order.
//
// The configuration is validated first; errors abort, warnings are logged.
// An empty provider list yields an empty chain, which the orchestrator turns
// into a FAILED verification.
func BuildAddressProviders(cfg internal.AddressConfig, logger *slog.Logger) ([]address.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	result := ValidateAddressConfig(cfg)
	if !result.Valid {
		return nil, ErrValidationFailed(result.Errors)
	}
	for _, w := range result.Warnings {
		logger.Warn("address provider configuration", slog.String("warning", w))
	}

	client := address.ClientConfig{
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSec,
	}

	providers := make([]address.Provider, 0, len(cfg.Providers))
	for _, raw := range cfg.Providers {
		p, err := createAddressProvider(ProviderName(strings.ToLower(strings.TrimSpace(raw))), cfg, client)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	logger.Info("address providers configured", slog.Any("providers", names))

	return providers, nil
}

func createAddressProvider(name ProviderName, cfg internal.AddressConfig, client address.ClientConfig) (address.Provider, error) {
	switch name {
	case ProviderNameGoogle:
		return address.NewGoogleProvider(address.GoogleConfig{
			APIKey:  cfg.GoogleAPIKey,
			BaseURL: cfg.GoogleBaseURL,
			Client:  client,
		}), nil
	case ProviderNameSmarty:
		return address.NewSmartyProvider(address.SmartyConfig{
			AuthID:    cfg.SmartyAuthID,
			AuthToken: cfg.SmartyAuthToken,
			BaseURL:   cfg.SmartyBaseURL,
			Client:    client,
		}), nil
	case ProviderNameUSPS:
		return address.NewUSPSProvider(address.USPSConfig{
			UserID:  cfg.USPSUserID,
			BaseURL: cfg.USPSBaseURL,
			Client:  client,
		}), nil
	default:
		return nil, ErrUnknownProvider(name)
	}
}
