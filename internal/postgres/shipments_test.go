package postgres

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnNames(list string) []string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func shipmentRow(id, importID uuid.UUID, row int) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id.String(), importID.String(), row, "ORD-1", "SKU-1",
		"Print TTS", "", "502 W Arrow Hwy", "STE P", "San Dimas", "CA", "91773", "US",
		"Jane Doe", "", "1 Main St", "", "Springfield", "IL", "62701", "US",
		"16", "10", nil, nil,
		"READY", []byte(`[]`),
		"VALID", []byte(`{"provider":"google","messages":[],"raw":{}}`),
		"NOT_STARTED", []byte(`{}`), true,
		"Priority Mail", 660,
		"NOT_PURCHASED", "", now, now,
	}
}

func TestShipmentStore_GetShipment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewShipmentStore(db)
	id, importID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT .* FROM shipments WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columnNames(shipmentColumns)).AddRow(shipmentRow(id, importID, 2)...))

	sh, err := store.GetShipment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, sh.ID)
	assert.Equal(t, importID, sh.ImportJobID)
	assert.Equal(t, 2, sh.RowNumber)
	assert.Equal(t, "16", sh.WeightOz)
	assert.Equal(t, "", sh.WidthIn)
	assert.Equal(t, domain.ValidationStatusReady, sh.ValidationStatus)
	assert.Empty(t, sh.ValidationErrors)
	assert.Equal(t, "google", sh.AddressVerificationDetails.Provider)
	assert.True(t, sh.FromAddressVerificationDetails.IsZero())
	assert.True(t, sh.FromAddressIsPreset)
	require.NotNil(t, sh.SelectedServicePriceCents)
	assert.Equal(t, 660, *sh.SelectedServicePriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_GetShipmentNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT .* FROM shipments WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columnNames(shipmentColumns)))

	_, err = NewShipmentStore(db).GetShipment(context.Background(), id)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_ListShipmentsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	importID, id := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM shipments WHERE import_job_id = \\$1 AND validation_status = \\$2 AND \\(external_order_number ILIKE \\$3").
		WithArgs(importID, domain.ValidationStatusReady, "%spring%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT .* FROM shipments WHERE import_job_id = \\$1 .* ORDER BY row_number LIMIT \\$4 OFFSET \\$5").
		WithArgs(importID, domain.ValidationStatusReady, "%spring%", 50, 100).
		WillReturnRows(sqlmock.NewRows(columnNames(shipmentColumns)).AddRow(shipmentRow(id, importID, 1)...))

	shipments, total, err := NewShipmentStore(db).ListShipments(context.Background(), domain.ShipmentFilter{
		ImportJobID: importID,
		Status:      domain.ValidationStatusReady,
		Search:      " spring ",
		Limit:       50,
		Offset:      100,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, shipments, 1)
	assert.Equal(t, id, shipments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_ReplaceShipments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	importID := uuid.New()
	first := domain.NewShipment(importID, 1)
	second := domain.NewShipment(importID, 2)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM shipments WHERE import_job_id = \\$1").
		WithArgs(importID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare("INSERT INTO shipments")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewShipmentStore(db).ReplaceShipments(context.Background(), importID, []*domain.Shipment{first, second})
	require.NoError(t, err)
	assert.False(t, first.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_ReplaceShipmentsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	importID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM shipments").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO shipments")
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewShipmentStore(db).ReplaceShipments(context.Background(), importID,
		[]*domain.Shipment{domain.NewShipment(importID, 1)})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_SaveVerificationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sh := domain.NewShipment(uuid.New(), 1)
	mock.ExpectExec("UPDATE shipments SET address_verification_status = \\$2").
		WithArgs(sh.ID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewShipmentStore(db).SaveVerification(context.Background(), sh)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_DeleteShipments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	importID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec("DELETE FROM shipments WHERE import_job_id = \\$1 AND id = ANY\\(\\$2\\)").
		WithArgs(importID, pq.Array(uuidStrings(ids))).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewShipmentStore(db).DeleteShipments(context.Background(), importID, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_EmptyIDListsSkipTheDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewShipmentStore(db)
	ctx := context.Background()

	n, err := store.SetService(ctx, uuid.New(), nil, "Priority Mail", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	shipments, err := store.ListShipmentsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, shipments)
	assert.Empty(t, shipments)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStore_ImportSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	importID := uuid.New()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COUNT\\(\\*\\) FILTER").
		WithArgs(importID).
		WillReturnRows(sqlmock.NewRows([]string{"total", "ready", "needs_info", "invalid", "unverified", "with_service", "purchasable"}).
			AddRow(10, 6, 3, 1, 4, 5, 2))

	sum, err := NewShipmentStore(db).ImportSummary(context.Background(), importID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportSummary{
		TotalRows:              10,
		ReadyCount:             6,
		NeedsInfoCount:         3,
		InvalidCount:           1,
		AddressUnverifiedCount: 4,
		ReadyWithServiceCount:  5,
		PurchasableCount:       2,
	}, sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}
