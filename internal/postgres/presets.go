package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/google/uuid"
)

// PresetStore implements service.PresetStore using PostgreSQL.
type PresetStore struct {
	db *sql.DB
}

var _ service.PresetStore = (*PresetStore)(nil)

// NewPresetStore creates a new PostgreSQL-backed preset store.
func NewPresetStore(db *sql.DB) *PresetStore {
	return &PresetStore{db: db}
}

// =============================================================================
// ADDRESS PRESETS
// =============================================================================

const addressPresetColumns = `id, name, contact_name, company, street1, street2, city, state, postal_code, country`

func scanAddressPreset(row rowScanner) (*domain.AddressPreset, error) {
	var p domain.AddressPreset
	if err := row.Scan(&p.ID, &p.Name, &p.ContactName, &p.Company, &p.Street1, &p.Street2,
		&p.City, &p.State, &p.PostalCode, &p.Country); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAddressPresets implements service.PresetStore.
func (s *PresetStore) ListAddressPresets(ctx context.Context) ([]domain.AddressPreset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+addressPresetColumns+` FROM address_presets ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("address_preset.list: %w", err)
	}
	defer rows.Close()

	presets := []domain.AddressPreset{}
	for rows.Next() {
		p, err := scanAddressPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("address_preset.list: %w", err)
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

// GetAddressPreset implements service.PresetStore.
func (s *PresetStore) GetAddressPreset(ctx context.Context, id uuid.UUID) (*domain.AddressPreset, error) {
	p, err := scanAddressPreset(s.db.QueryRowContext(ctx,
		`SELECT `+addressPresetColumns+` FROM address_presets WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "address_preset.get", "address preset", id.String())
	}
	return p, nil
}

// CreateAddressPreset implements service.PresetStore.
func (s *PresetStore) CreateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO address_presets (`+addressPresetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.ContactName, p.Company, p.Street1, p.Street2, p.City, p.State, p.PostalCode, p.Country)
	if err != nil {
		return fmt.Errorf("address_preset.create: %w", err)
	}
	return nil
}

// UpdateAddressPreset implements service.PresetStore.
func (s *PresetStore) UpdateAddressPreset(ctx context.Context, p *domain.AddressPreset) error {
	const op = "address_preset.update"

	res, err := s.db.ExecContext(ctx, `
		UPDATE address_presets
		SET name = $2, contact_name = $3, company = $4, street1 = $5, street2 = $6,
			city = $7, state = $8, postal_code = $9, country = $10
		WHERE id = $1`,
		p.ID, p.Name, p.ContactName, p.Company, p.Street1, p.Street2, p.City, p.State, p.PostalCode, p.Country)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "address preset", p.ID.String())
}

// DeleteAddressPreset implements service.PresetStore.
func (s *PresetStore) DeleteAddressPreset(ctx context.Context, id uuid.UUID) error {
	const op = "address_preset.delete"

	res, err := s.db.ExecContext(ctx, `DELETE FROM address_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "address preset", id.String())
}

// =============================================================================
// PACKAGE PRESETS
// =============================================================================

const packagePresetColumns = `id, name, weight_oz, length_in, width_in, height_in`

func scanPackagePreset(row rowScanner) (*domain.PackagePreset, error) {
	var (
		p                     domain.PackagePreset
		length, width, height sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.WeightOz, &length, &width, &height); err != nil {
		return nil, err
	}
	p.LengthIn, p.WidthIn, p.HeightIn = floatPtr(length), floatPtr(width), floatPtr(height)
	return &p, nil
}

// ListPackagePresets implements service.PresetStore.
func (s *PresetStore) ListPackagePresets(ctx context.Context) ([]domain.PackagePreset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+packagePresetColumns+` FROM package_presets ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("package_preset.list: %w", err)
	}
	defer rows.Close()

	presets := []domain.PackagePreset{}
	for rows.Next() {
		p, err := scanPackagePreset(rows)
		if err != nil {
			return nil, fmt.Errorf("package_preset.list: %w", err)
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

// GetPackagePreset implements service.PresetStore.
func (s *PresetStore) GetPackagePreset(ctx context.Context, id uuid.UUID) (*domain.PackagePreset, error) {
	p, err := scanPackagePreset(s.db.QueryRowContext(ctx,
		`SELECT `+packagePresetColumns+` FROM package_presets WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "package_preset.get", "package preset", id.String())
	}
	return p, nil
}

// CreatePackagePreset implements service.PresetStore.
func (s *PresetStore) CreatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO package_presets (`+packagePresetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.WeightOz, nullFloat(p.LengthIn), nullFloat(p.WidthIn), nullFloat(p.HeightIn))
	if err != nil {
		return fmt.Errorf("package_preset.create: %w", err)
	}
	return nil
}

// UpdatePackagePreset implements service.PresetStore.
func (s *PresetStore) UpdatePackagePreset(ctx context.Context, p *domain.PackagePreset) error {
	const op = "package_preset.update"

	res, err := s.db.ExecContext(ctx, `
		UPDATE package_presets
		SET name = $2, weight_oz = $3, length_in = $4, width_in = $5, height_in = $6
		WHERE id = $1`,
		p.ID, p.Name, p.WeightOz, nullFloat(p.LengthIn), nullFloat(p.WidthIn), nullFloat(p.HeightIn))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "package preset", p.ID.String())
}

// DeletePackagePreset implements service.PresetStore.
func (s *PresetStore) DeletePackagePreset(ctx context.Context, id uuid.UUID) error {
	const op = "package_preset.delete"

	res, err := s.db.ExecContext(ctx, `DELETE FROM package_presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "package preset", id.String())
}
