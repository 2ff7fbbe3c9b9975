package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
)

type mockImportService struct {
	UploadFunc         func(ctx context.Context, params service.UploadParams) (*domain.ImportJob, error)
	GetImportFunc      func(ctx context.Context, id uuid.UUID) (*service.ImportDetail, error)
	ListShipmentsFunc  func(ctx context.Context, filter domain.ShipmentFilter) (*service.ShipmentPage, error)
	ValidateImportFunc func(ctx context.Context, id uuid.UUID) error
	FinalizeImportFunc func(ctx context.Context, id uuid.UUID) error
	FailImportFunc     func(ctx context.Context, id uuid.UUID, summary string) error
}

func (m *mockImportService) Upload(ctx context.Context, params service.UploadParams) (*domain.ImportJob, error) {
	return m.UploadFunc(ctx, params)
}

func (m *mockImportService) GetImport(ctx context.Context, id uuid.UUID) (*service.ImportDetail, error) {
	return m.GetImportFunc(ctx, id)
}

func (m *mockImportService) ListShipments(ctx context.Context, filter domain.ShipmentFilter) (*service.ShipmentPage, error) {
	return m.ListShipmentsFunc(ctx, filter)
}

func (m *mockImportService) ValidateImport(ctx context.Context, id uuid.UUID) error {
	return m.ValidateImportFunc(ctx, id)
}

func (m *mockImportService) FinalizeImport(ctx context.Context, id uuid.UUID) error {
	return m.FinalizeImportFunc(ctx, id)
}

func (m *mockImportService) FailImport(ctx context.Context, id uuid.UUID, summary string) error {
	return m.FailImportFunc(ctx, id, summary)
}

type mockShipmentService struct {
	GetFunc          func(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	UpdateFunc       func(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error)
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
	VerifyFunc       func(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	ListAttemptsFunc func(ctx context.Context, id uuid.UUID) ([]domain.VerificationAttempt, error)
	BulkFunc         func(ctx context.Context, importJobID uuid.UUID, req service.BulkRequest) (*service.BulkResult, error)
}

func (m *mockShipmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockShipmentService) Update(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
	return m.UpdateFunc(ctx, id, patch)
}

func (m *mockShipmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockShipmentService) Verify(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	return m.VerifyFunc(ctx, id)
}

func (m *mockShipmentService) ListAttempts(ctx context.Context, id uuid.UUID) ([]domain.VerificationAttempt, error) {
	return m.ListAttemptsFunc(ctx, id)
}

func (m *mockShipmentService) Bulk(ctx context.Context, importJobID uuid.UUID, req service.BulkRequest) (*service.BulkResult, error) {
	return m.BulkFunc(ctx, importJobID, req)
}

type mockShippingService struct {
	QuoteFunc    func(ctx context.Context, req service.QuoteRequest) ([]service.ShipmentQuote, error)
	PurchaseFunc func(ctx context.Context, importJobID uuid.UUID, req service.PurchaseRequest) (*service.PurchaseResult, error)
}

func (m *mockShippingService) Quote(ctx context.Context, req service.QuoteRequest) ([]service.ShipmentQuote, error) {
	return m.QuoteFunc(ctx, req)
}

func (m *mockShippingService) Purchase(ctx context.Context, importJobID uuid.UUID, req service.PurchaseRequest) (*service.PurchaseResult, error) {
	return m.PurchaseFunc(ctx, importJobID, req)
}

type mockPresetService struct {
	ListAddressPresetsFunc  func(ctx context.Context) ([]domain.AddressPreset, error)
	GetAddressPresetFunc    func(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error)
	CreateAddressPresetFunc func(ctx context.Context, p *domain.AddressPreset) error
	UpdateAddressPresetFunc func(ctx context.Context, p *domain.AddressPreset) error
	DeleteAddressPresetFunc func(ctx context.Context, id uuid.UUID) error

	ListPackagePresetsFunc  func(ctx context.Context) ([]domain.PackagePreset, error)
	GetPackagePresetFunc    func(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error)
	CreatePackagePresetFunc func(ctx context.Context, p *domain.PackagePreset) error
	UpdatePackagePresetFunc func(ctx context.Context, p *domain.PackagePreset) error
	DeletePackagePresetFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockPresetService) ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error) {
	return m.ListAddressPresetsFunc(ctx)
}

func (m *mockPresetService) GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error) {
	return m.GetAddressPresetFunc(ctx, id)
}

func (m *mockPresetService) CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	return m.CreateAddressPresetFunc(ctx, p)
}

func (m *mockPresetService) UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	return m.UpdateAddressPresetFunc(ctx, p)
}

func (m *mockPresetService) DeleteAddressPreset(ctx context.Context, id uuid.UUID) error {
	return m.DeleteAddressPresetFunc(ctx, id)
}

func (m *mockPresetService) ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error) {
	return m.ListPackagePresetsFunc(ctx)
}

func (m *mockPresetService) GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error) {
	return m.GetPackagePresetFunc(ctx, id)
}

func (m *mockPresetService) CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	return m.CreatePackagePresetFunc(ctx, p)
}

func (m *mockPresetService) UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	return m.UpdatePackagePresetFunc(ctx, p)
}

func (m *mockPresetService) DeletePackagePreset(ctx context.Context, id uuid.UUID) error {
	return m.DeletePackagePresetFunc(ctx, id)
}
