package provider

import "fmt"

// These constants mirror domain error codes to avoid circular imports.
const (
	codeInvalid = "invalid"
)

// ConfigError reports an address provider configuration that cannot be used.
type ConfigError struct {
	Code    string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ConfigError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *ConfigError) ErrorMessage() string {
	return e.Message
}

// ErrUnknownProvider creates an error for unknown provider names.
func ErrUnknownProvider(name ProviderName) error {
	return &ConfigError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown address provider: %s", name),
	}
}

// ErrValidationFailed creates an error for config validation failures.
func ErrValidationFailed(errors []string) error {
	return &ConfigError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("address provider config validation failed: %v", errors),
	}
}
