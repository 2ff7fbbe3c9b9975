package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PresetService manages saved address and package presets.
type PresetService interface {
	ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error)
	GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error)
	CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error
	UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error
	DeleteAddressPreset(ctx context.Context, id uuid.UUID) error

	ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error)
	GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error)
	CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error
	UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error
	DeletePackagePreset(ctx context.Context, id uuid.UUID) error
}

type presetService struct {
	store    PresetStore
	validate *validator.Validate
}

// NewPresetService creates a PresetService.
func NewPresetService(store PresetStore) PresetService {
	return &presetService{store: store, validate: NewValidator()}
}

// NewValidator returns a struct validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs v on s and converts failures to a domain.ValidationError.
func ValidateStruct(v *validator.Validate, op string, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "failed to validate request")
	}
	var out error
	for _, fe := range verrs {
		out = domain.AddFieldError(out, fe.Field(), fieldMessage(fe))
	}
	if ve, ok := out.(*domain.ValidationError); ok {
		ve.Op = op
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	default:
		return "This value is invalid."
	}
}

func (s *presetService) ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error) {
	presets, err := s.store.ListAddressPresets(ctx)
	if err != nil {
		return nil, domain.Internal(err, "preset.list", "failed to list address presets")
	}
	if presets == nil {
		presets = []domain.AddressPreset{}
	}
	return presets, nil
}

func (s *presetService) GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error) {
	p, err := s.store.GetAddressPreset(ctx, id)
	if err != nil {
		return nil, presetLookupError(err, "preset.get")
	}
	return p, nil
}

func (s *presetService) CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	normalizeAddressPreset(p)
	if err := ValidateStruct(s.validate, "preset.create", p); err != nil {
		return err
	}
	p.ID = uuid.New()
	if err := s.store.CreateAddressPreset(ctx, p); err != nil {
		return domain.Internal(err, "preset.create", "failed to create address preset")
	}
	return nil
}

func (s *presetService) UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	normalizeAddressPreset(p)
	if err := ValidateStruct(s.validate, "preset.update", p); err != nil {
		return err
	}
	if err := s.store.UpdateAddressPreset(ctx, p); err != nil {
		return presetLookupError(err, "preset.update")
	}
	return nil
}

func (s *presetService) DeleteAddressPreset(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAddressPreset(ctx, id); err != nil {
		return presetLookupError(err, "preset.delete")
	}
	return nil
}

func (s *presetService) ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error) {
	presets, err := s.store.ListPackagePresets(ctx)
	if err != nil {
		return nil, domain.Internal(err, "preset.list", "failed to list package presets")
	}
	if presets == nil {
		presets = []domain.PackagePreset{}
	}
	return presets, nil
}

func (s *presetService) GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error) {
	p, err := s.store.GetPackagePreset(ctx, id)
	if err != nil {
		return nil, presetLookupError(err, "preset.get")
	}
	return p, nil
}

func (s *presetService) CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	if err := ValidateStruct(s.validate, "preset.create", p); err != nil {
		return err
	}
	p.ID = uuid.New()
	if err := s.store.CreatePackagePreset(ctx, p); err != nil {
		return domain.Internal(err, "preset.create", "failed to create package preset")
	}
	return nil
}

func (s *presetService) UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	if err := ValidateStruct(s.validate, "preset.update", p); err != nil {
		return err
	}
	if err := s.store.UpdatePackagePreset(ctx, p); err != nil {
		return presetLookupError(err, "preset.update")
	}
	return nil
}

func (s *presetService) DeletePackagePreset(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeletePackagePreset(ctx, id); err != nil {
		return presetLookupError(err, "preset.delete")
	}
	return nil
}

// normalizeAddressPreset applies the default country and upper-cases codes.
func normalizeAddressPreset(p *domain.AddressPreset) {
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	if p.Country == "" {
		p.Country = "US"
	}
}

func presetLookupError(err error, op string) error {
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return ErrPresetNotFound
	}
	return domain.Internal(err, op, "failed to access preset")
}
