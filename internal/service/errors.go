package service

import (
	"github.com/dukerupert/parcelry/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrShipmentNotFound = domain.Errorf(domain.ENOTFOUND, "", "Shipment not found")
	ErrImportNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Import job not found")
	ErrPresetNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Preset not found")
)

// Bulk action errors
var (
	ErrBulkPresetNotFound = domain.Rejected("", "PRESET_NOT_FOUND", "Preset not found")
	ErrMissingService     = domain.Rejected("", "MISSING_SERVICE", "service is required")
	ErrInvalidBulkPayload = domain.Rejected("", "INVALID_PAYLOAD", "payload is invalid")
)

// Purchase errors
var (
	ErrTermsRequired = domain.Rejected("", "TERMS_REQUIRED", "Terms must be accepted")
	ErrEmptyImport   = domain.Rejected("", "EMPTY_IMPORT", "No shipments found")
	ErrNotReady      = domain.Rejected("", "NOT_READY", "No READY shipments with verified addresses and services")
)

// Quote errors
var (
	ErrQuoteTargetRequired = domain.Rejected("", "VALIDATION_ERROR", "Either import_id or shipment_ids is required.")
)
