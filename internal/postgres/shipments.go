package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShipmentStore implements service.ShipmentStore using PostgreSQL.
type ShipmentStore struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that ShipmentStore implements service.ShipmentStore.
var _ service.ShipmentStore = (*ShipmentStore)(nil)

// NewShipmentStore creates a new PostgreSQL-backed shipment store.
func NewShipmentStore(db *sql.DB) *ShipmentStore {
	return &ShipmentStore{db: db, now: time.Now}
}

const shipmentColumns = `
	id, import_job_id, row_number, external_order_number, sku,
	from_name, from_company, from_street1, from_street2, from_city, from_state, from_postal_code, from_country,
	to_name, to_company, to_street1, to_street2, to_city, to_state, to_postal_code, to_country,
	weight_oz, length_in, width_in, height_in,
	validation_status, validation_errors,
	address_verification_status, address_verification_details,
	from_address_verification_status, from_address_verification_details, from_address_is_preset,
	selected_service, selected_service_price_cents,
	label_status, label_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var (
		s                           domain.Shipment
		weight, length, width, high sql.NullString
		service                     sql.NullString
		price                       sql.NullInt64
		errorsJSON, toJSON, fromJSON []byte
	)
	if err := row.Scan(
		&s.ID, &s.ImportJobID, &s.RowNumber, &s.ExternalOrderNumber, &s.SKU,
		&s.FromName, &s.FromCompany, &s.FromStreet1, &s.FromStreet2, &s.FromCity, &s.FromState, &s.FromPostalCode, &s.FromCountry,
		&s.ToName, &s.ToCompany, &s.ToStreet1, &s.ToStreet2, &s.ToCity, &s.ToState, &s.ToPostalCode, &s.ToCountry,
		&weight, &length, &width, &high,
		&s.ValidationStatus, &errorsJSON,
		&s.AddressVerificationStatus, &toJSON,
		&s.FromAddressVerificationStatus, &fromJSON, &s.FromAddressIsPreset,
		&service, &price,
		&s.LabelStatus, &s.LabelURL, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	s.WeightOz, s.LengthIn, s.WidthIn, s.HeightIn = weight.String, length.String, width.String, high.String
	s.SelectedService = service.String
	s.SelectedServicePriceCents = intPtr(price)

	s.ValidationErrors = []domain.FieldError{}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &s.ValidationErrors); err != nil {
			return nil, fmt.Errorf("decode validation_errors: %w", err)
		}
	}
	if err := decodeDetails(toJSON, &s.AddressVerificationDetails); err != nil {
		return nil, err
	}
	if err := decodeDetails(fromJSON, &s.FromAddressVerificationDetails); err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeDetails(b []byte, d *domain.VerificationDetails) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, d); err != nil {
		return fmt.Errorf("decode verification details: %w", err)
	}
	return nil
}

func (s *ShipmentStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Shipment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []*domain.Shipment{}
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ReplaceShipments implements service.ShipmentStore.
func (s *ShipmentStore) ReplaceShipments(ctx context.Context, importJobID uuid.UUID, shipments []*domain.Shipment) error {
	const op = "shipment.replace"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shipments WHERE import_job_id = $1`, importJobID); err != nil {
		return fmt.Errorf("%s: delete: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shipments (`+shipmentColumns+`)
		VALUES ($1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25,
			$26, $27, $28, $29, $30, $31, $32,
			$33, $34, $35, $36, $37, $38)`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, sh := range shipments {
		errorsJSON, err := jsonb(sh.ValidationErrors)
		if err != nil {
			return err
		}
		toJSON, err := jsonb(sh.AddressVerificationDetails)
		if err != nil {
			return err
		}
		fromJSON, err := jsonb(sh.FromAddressVerificationDetails)
		if err != nil {
			return err
		}
		sh.CreatedAt, sh.UpdatedAt = now, now

		if _, err := stmt.ExecContext(ctx,
			sh.ID, importJobID, sh.RowNumber, sh.ExternalOrderNumber, sh.SKU,
			sh.FromName, sh.FromCompany, sh.FromStreet1, sh.FromStreet2, sh.FromCity, sh.FromState, sh.FromPostalCode, sh.FromCountry,
			sh.ToName, sh.ToCompany, sh.ToStreet1, sh.ToStreet2, sh.ToCity, sh.ToState, sh.ToPostalCode, sh.ToCountry,
			nullString(sh.WeightOz), nullString(sh.LengthIn), nullString(sh.WidthIn), nullString(sh.HeightIn),
			sh.ValidationStatus, errorsJSON,
			sh.AddressVerificationStatus, toJSON,
			sh.FromAddressVerificationStatus, fromJSON, sh.FromAddressIsPreset,
			nullString(sh.SelectedService), nullInt(sh.SelectedServicePriceCents),
			sh.LabelStatus, sh.LabelURL, now, now,
		); err != nil {
			return fmt.Errorf("%s: insert row %d: %w", op, sh.RowNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// GetShipment implements service.ShipmentStore.
func (s *ShipmentStore) GetShipment(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
	sh, err := scanShipment(row)
	if err != nil {
		return nil, notFound(err, "shipment.get", "shipment", id.String())
	}
	return sh, nil
}

// ListShipments implements service.ShipmentStore.
func (s *ShipmentStore) ListShipments(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, int, error) {
	const op = "shipment.list"

	where := []string{"import_job_id = $1"}
	args := []any{filter.ImportJobID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("validation_status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(external_order_number ILIKE $%d OR to_name ILIKE $%d OR to_street1 ILIKE $%d OR to_city ILIKE $%d OR to_postal_code ILIKE $%d)",
			n, n, n, n, n))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shipments WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE ` + clause + ` ORDER BY row_number`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	shipments, err := s.query(ctx, op, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// ListShipmentsByImport implements service.ShipmentStore.
func (s *ShipmentStore) ListShipmentsByImport(ctx context.Context, importJobID uuid.UUID) ([]*domain.Shipment, error) {
	return s.query(ctx, "shipment.list_by_import",
		`SELECT `+shipmentColumns+` FROM shipments WHERE import_job_id = $1 ORDER BY row_number`, importJobID)
}

// ListShipmentsByIDs implements service.ShipmentStore.
func (s *ShipmentStore) ListShipmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	if len(ids) == 0 {
		return []*domain.Shipment{}, nil
	}
	return s.query(ctx, "shipment.list_by_ids",
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = ANY($1) ORDER BY import_job_id, row_number`, pq.Array(uuidStrings(ids)))
}

// ListImportShipments implements service.ShipmentStore.
func (s *ShipmentStore) ListImportShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) ([]*domain.Shipment, error) {
	if len(ids) == 0 {
		return []*domain.Shipment{}, nil
	}
	return s.query(ctx, "shipment.list_import_shipments",
		`SELECT `+shipmentColumns+` FROM shipments WHERE import_job_id = $1 AND id = ANY($2) ORDER BY row_number`,
		importJobID, pq.Array(uuidStrings(ids)))
}

// UpdateShipment implements service.ShipmentStore.
func (s *ShipmentStore) UpdateShipment(ctx context.Context, sh *domain.Shipment) error {
	const op = "shipment.update"

	errorsJSON, err := jsonb(sh.ValidationErrors)
	if err != nil {
		return err
	}
	sh.UpdatedAt = s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments SET
			from_name = $2, from_company = $3, from_street1 = $4, from_street2 = $5,
			from_city = $6, from_state = $7, from_postal_code = $8, from_country = $9,
			to_name = $10, to_company = $11, to_street1 = $12, to_street2 = $13,
			to_city = $14, to_state = $15, to_postal_code = $16, to_country = $17,
			weight_oz = $18, length_in = $19, width_in = $20, height_in = $21,
			from_address_is_preset = $22,
			selected_service = $23, selected_service_price_cents = $24,
			validation_status = $25, validation_errors = $26,
			updated_at = $27
		WHERE id = $1`,
		sh.ID,
		sh.FromName, sh.FromCompany, sh.FromStreet1, sh.FromStreet2,
		sh.FromCity, sh.FromState, sh.FromPostalCode, sh.FromCountry,
		sh.ToName, sh.ToCompany, sh.ToStreet1, sh.ToStreet2,
		sh.ToCity, sh.ToState, sh.ToPostalCode, sh.ToCountry,
		nullString(sh.WeightOz), nullString(sh.LengthIn), nullString(sh.WidthIn), nullString(sh.HeightIn),
		sh.FromAddressIsPreset,
		nullString(sh.SelectedService), nullInt(sh.SelectedServicePriceCents),
		sh.ValidationStatus, errorsJSON,
		sh.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "shipment", sh.ID.String())
}

// SaveVerification implements service.ShipmentStore. It writes only the
// verification and validation columns.
func (s *ShipmentStore) SaveVerification(ctx context.Context, sh *domain.Shipment) error {
	const op = "shipment.save_verification"

	toJSON, err := jsonb(sh.AddressVerificationDetails)
	if err != nil {
		return err
	}
	fromJSON, err := jsonb(sh.FromAddressVerificationDetails)
	if err != nil {
		return err
	}
	errorsJSON, err := jsonb(sh.ValidationErrors)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments SET
			address_verification_status = $2,
			address_verification_details = $3,
			from_address_verification_status = $4,
			from_address_verification_details = $5,
			validation_status = $6,
			validation_errors = $7
		WHERE id = $1`,
		sh.ID,
		sh.AddressVerificationStatus, toJSON,
		sh.FromAddressVerificationStatus, fromJSON,
		sh.ValidationStatus, errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "shipment", sh.ID.String())
}

// SaveValidation implements service.ShipmentStore.
func (s *ShipmentStore) SaveValidation(ctx context.Context, sh *domain.Shipment) error {
	const op = "shipment.save_validation"

	errorsJSON, err := jsonb(sh.ValidationErrors)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE shipments SET validation_status = $2, validation_errors = $3 WHERE id = $1`,
		sh.ID, sh.ValidationStatus, errorsJSON)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "shipment", sh.ID.String())
}

// SetService implements service.ShipmentStore.
func (s *ShipmentStore) SetService(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID, svc string, priceCents *int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments SET selected_service = $3, selected_service_price_cents = $4, updated_at = $5
		WHERE import_job_id = $1 AND id = ANY($2)`,
		importJobID, pq.Array(uuidStrings(ids)), svc, nullInt(priceCents), s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("shipment.set_service: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("shipment.set_service: %w", err)
	}
	return int(n), nil
}

// SetLabel implements service.ShipmentStore.
func (s *ShipmentStore) SetLabel(ctx context.Context, id uuid.UUID, status domain.LabelStatus, url string) error {
	const op = "shipment.set_label"

	res, err := s.db.ExecContext(ctx,
		`UPDATE shipments SET label_status = $2, label_url = $3, updated_at = $4 WHERE id = $1`,
		id, status, url, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "shipment", id.String())
}

// DeleteShipment implements service.ShipmentStore. Attempts go with it
// through the foreign key cascade.
func (s *ShipmentStore) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	const op = "shipment.delete"

	res, err := s.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected(res, op, "shipment", id.String())
}

// DeleteShipments implements service.ShipmentStore.
func (s *ShipmentStore) DeleteShipments(ctx context.Context, importJobID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shipments WHERE import_job_id = $1 AND id = ANY($2)`,
		importJobID, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("shipment.delete_many: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("shipment.delete_many: %w", err)
	}
	return int(n), nil
}

// ImportSummary implements service.ShipmentStore.
func (s *ShipmentStore) ImportSummary(ctx context.Context, importJobID uuid.UUID) (domain.ImportSummary, error) {
	var sum domain.ImportSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE validation_status = 'READY'),
			COUNT(*) FILTER (WHERE validation_status = 'NEEDS_INFO'),
			COUNT(*) FILTER (WHERE validation_status = 'INVALID'),
			COUNT(*) FILTER (WHERE validation_status = 'READY' AND address_verification_status NOT IN ('VALID', 'CORRECTED')),
			COUNT(*) FILTER (WHERE validation_status = 'READY' AND COALESCE(selected_service, '') <> ''),
			COUNT(*) FILTER (WHERE validation_status = 'READY' AND COALESCE(selected_service, '') <> ''
				AND address_verification_status IN ('VALID', 'CORRECTED'))
		FROM shipments
		WHERE import_job_id = $1`, importJobID).Scan(
		&sum.TotalRows,
		&sum.ReadyCount,
		&sum.NeedsInfoCount,
		&sum.InvalidCount,
		&sum.AddressUnverifiedCount,
		&sum.ReadyWithServiceCount,
		&sum.PurchasableCount,
	)
	if err != nil {
		return sum, fmt.Errorf("shipment.summary: %w", err)
	}
	return sum, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
