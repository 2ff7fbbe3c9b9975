package address

import "fmt"

// ProviderError is a failed provider call. Retryable failures let the
// verifier fall through to the next provider; anything else ends the chain.
type ProviderError struct {
	Provider  string
	Message   string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func retryable(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Retryable: true, Err: err}
}

func rejected(provider string, status int, retry bool) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Message:   fmt.Sprintf("%s request rejected (%d)", displayName(provider), status),
		Retryable: retry,
	}
}

func unavailable(provider string, status int) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Message:   fmt.Sprintf("%s service unavailable (%d)", displayName(provider), status),
		Retryable: true,
	}
}

func displayName(provider string) string {
	switch provider {
	case ProviderGoogle:
		return "Google"
	case ProviderSmarty:
		return "Smarty"
	case ProviderUSPS:
		return "USPS"
	}
	return provider
}
