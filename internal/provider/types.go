package provider

import "github.com/dukerupert/parcelry/internal/address"

// ProviderName identifies an address verification adapter.
type ProviderName string

const (
	ProviderNameGoogle ProviderName = address.ProviderGoogle
	ProviderNameSmarty ProviderName = address.ProviderSmarty
	ProviderNameUSPS   ProviderName = address.ProviderUSPS
)

// IsValidProviderName reports whether name refers to a known adapter.
func IsValidProviderName(name ProviderName) bool {
	switch name {
	case ProviderNameGoogle, ProviderNameSmarty, ProviderNameUSPS:
		return true
	}
	return false
}

// ValidationResult represents the outcome of validating provider configuration.
// Errors block startup. Warnings are logged and the adapter is still built.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error message to the validation result.
func (v *ValidationResult) AddError(err string) {
	v.Valid = false
	v.Errors = append(v.Errors, err)
}

// AddWarning records a non-fatal configuration problem.
func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}
