package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
	"github.com/dukerupert/parcelry/internal/shipping"
)

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewValidator()
	return e
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func sampleShipment(importID uuid.UUID, row int) *domain.Shipment {
	s := domain.NewShipment(importID, row)
	s.ToName = "Ada Lovelace"
	s.WeightOz = "12"
	return s
}

// =============================================================================
// IMPORTS
// =============================================================================

func TestImportHandler_Upload(t *testing.T) {
	jobID := uuid.New()
	var got service.UploadParams
	var content []byte
	imports := &mockImportService{
		UploadFunc: func(ctx context.Context, params service.UploadParams) (*domain.ImportJob, error) {
			got = params
			content, _ = io.ReadAll(params.Body)
			return &domain.ImportJob{ID: jobID, Status: domain.ImportStatusProcessing}, nil
		},
	}
	h := NewImportHandler(imports, nil, nil)
	e := newTestEcho()
	e.POST("/api/imports", h.Upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "orders.csv")
	require.NoError(t, err)
	part.Write([]byte("a,b\nc,d\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "orders.csv", got.Filename)
	assert.Equal(t, "a,b\nc,d\n", string(content))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID.String(), resp["import_job_id"])
	assert.Equal(t, "PROCESSING", resp["status"])
}

func TestImportHandler_UploadMissingFile(t *testing.T) {
	h := NewImportHandler(&mockImportService{}, nil, nil)
	e := newTestEcho()
	e.POST("/api/imports", h.Upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "no file")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FILE", decodeError(t, rec).Error.Code)
}

func TestImportHandler_Get(t *testing.T) {
	jobID := uuid.New()
	imports := &mockImportService{
		GetImportFunc: func(ctx context.Context, id uuid.UUID) (*service.ImportDetail, error) {
			require.Equal(t, jobID, id)
			return &service.ImportDetail{
				Job: &domain.ImportJob{
					ID:               jobID,
					OriginalFilename: "orders.csv",
					Status:           domain.ImportStatusCompleted,
					ProgressTotal:    3,
					ProgressDone:     3,
					CreatedAt:        time.Now(),
				},
				Summary: domain.ImportSummary{TotalRows: 3, ReadyCount: 2, InvalidCount: 1},
			}, nil
		},
	}
	e := newTestEcho()
	e.GET("/api/imports/:id", NewImportHandler(imports, nil, nil).Get)

	rec := doJSON(e, http.MethodGet, "/api/imports/"+jobID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID.String(), resp["import_job_id"])
	assert.Equal(t, "COMPLETED", resp["status"])
	assert.Equal(t, float64(3), resp["total_rows"])
	assert.Equal(t, float64(2), resp["ready_count"])
	assert.Equal(t, float64(1), resp["invalid_count"])
}

func TestImportHandler_GetMalformedID(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/imports/:id", NewImportHandler(&mockImportService{}, nil, nil).Get)

	rec := doJSON(e, http.MethodGet, "/api/imports/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestImportHandler_GetNotFound(t *testing.T) {
	imports := &mockImportService{
		GetImportFunc: func(ctx context.Context, id uuid.UUID) (*service.ImportDetail, error) {
			return nil, service.ErrImportNotFound
		},
	}
	e := newTestEcho()
	e.GET("/api/imports/:id", NewImportHandler(imports, nil, nil).Get)

	rec := doJSON(e, http.MethodGet, "/api/imports/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Import job not found", decodeError(t, rec).Error.Message)
}

func TestImportHandler_ListShipmentsPaginates(t *testing.T) {
	jobID := uuid.New()
	var filter domain.ShipmentFilter
	imports := &mockImportService{
		ListShipmentsFunc: func(ctx context.Context, f domain.ShipmentFilter) (*service.ShipmentPage, error) {
			filter = f
			s := sampleShipment(jobID, 53)
			s.WeightOz = ""
			return &service.ShipmentPage{Shipments: []*domain.Shipment{s}, Total: 120}, nil
		},
	}
	e := newTestEcho()
	e.GET("/api/imports/:id/shipments", NewImportHandler(imports, nil, nil).ListShipments)

	rec := doJSON(e, http.MethodGet, "/api/imports/"+jobID.String()+"/shipments?page=2&status=READY&search=ada", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, jobID, filter.ImportJobID)
	assert.Equal(t, domain.ValidationStatusReady, filter.Status)
	assert.Equal(t, "ada", filter.Search)
	assert.Equal(t, 50, filter.Limit)
	assert.Equal(t, 50, filter.Offset)

	var resp struct {
		Count    int              `json:"count"`
		Next     *string          `json:"next"`
		Previous *string          `json:"previous"`
		Results  []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.Count)
	require.NotNil(t, resp.Next)
	assert.Contains(t, *resp.Next, "page=3")
	require.NotNil(t, resp.Previous)
	assert.Contains(t, *resp.Previous, "page=1")
	require.Len(t, resp.Results, 1)
	assert.Nil(t, resp.Results[0]["weight_oz"])
	assert.Nil(t, resp.Results[0]["selected_service"])
	assert.Equal(t, float64(53), resp.Results[0]["row_number"])
}

func TestImportHandler_ListShipmentsPageSize(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 50},
		{"?page_size=10", 10},
		{"?page_size=1000", 200},
		{"?page_size=abc", 50},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var limit int
			imports := &mockImportService{
				ListShipmentsFunc: func(ctx context.Context, f domain.ShipmentFilter) (*service.ShipmentPage, error) {
					limit = f.Limit
					return &service.ShipmentPage{}, nil
				},
			}
			e := newTestEcho()
			e.GET("/api/imports/:id/shipments", NewImportHandler(imports, nil, nil).ListShipments)

			rec := doJSON(e, http.MethodGet, "/api/imports/"+uuid.NewString()+"/shipments"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, limit)
		})
	}
}

func TestImportHandler_ListShipmentsInvalidPage(t *testing.T) {
	imports := &mockImportService{
		ListShipmentsFunc: func(ctx context.Context, f domain.ShipmentFilter) (*service.ShipmentPage, error) {
			return &service.ShipmentPage{Total: 3}, nil
		},
	}
	e := newTestEcho()
	e.GET("/api/imports/:id/shipments", NewImportHandler(imports, nil, nil).ListShipments)

	for _, q := range []string{"?page=0", "?page=x", "?page=9"} {
		rec := doJSON(e, http.MethodGet, "/api/imports/"+uuid.NewString()+"/shipments"+q, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, q)
		assert.Equal(t, "Invalid page.", decodeError(t, rec).Error.Message, q)
	}
}

func TestImportHandler_ListShipmentsInvalidStatus(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/imports/:id/shipments", NewImportHandler(&mockImportService{}, nil, nil).ListShipments)

	rec := doJSON(e, http.MethodGet, "/api/imports/"+uuid.NewString()+"/shipments?status=DONE", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "status")
}

func TestImportHandler_Bulk(t *testing.T) {
	jobID := uuid.New()
	shipmentID := uuid.New()
	var got service.BulkRequest
	shipments := &mockShipmentService{
		BulkFunc: func(ctx context.Context, importJobID uuid.UUID, req service.BulkRequest) (*service.BulkResult, error) {
			require.Equal(t, jobID, importJobID)
			got = req
			return &service.BulkResult{UpdatedCount: 1, Errors: []service.BulkError{}}, nil
		},
	}
	e := newTestEcho()
	e.POST("/api/imports/:id/shipments/bulk", NewImportHandler(nil, shipments, nil).Bulk)

	body := `{"action":"set_shipping_service","shipment_ids":["` + shipmentID.String() + `"],"payload":{"service":"priority_mail"}}`
	rec := doJSON(e, http.MethodPost, "/api/imports/"+jobID.String()+"/shipments/bulk", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, service.BulkSetShippingService, got.Action)
	assert.Equal(t, []uuid.UUID{shipmentID}, got.ShipmentIDs)
	assert.JSONEq(t, `{"updated_count":1,"deleted_count":0,"errors":[]}`, rec.Body.String())
}

func TestImportHandler_BulkMalformedBody(t *testing.T) {
	e := newTestEcho()
	e.POST("/api/imports/:id/shipments/bulk", NewImportHandler(nil, &mockShipmentService{}, nil).Bulk)

	rec := doJSON(e, http.MethodPost, "/api/imports/"+uuid.NewString()+"/shipments/bulk", `{"action":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID", decodeError(t, rec).Error.Code)
}

func TestImportHandler_PurchaseEmptyBodyRequiresTerms(t *testing.T) {
	var got service.PurchaseRequest
	ship := &mockShippingService{
		PurchaseFunc: func(ctx context.Context, importJobID uuid.UUID, req service.PurchaseRequest) (*service.PurchaseResult, error) {
			got = req
			return nil, service.ErrTermsRequired
		},
	}
	e := newTestEcho()
	e.POST("/api/imports/:id/purchase", NewImportHandler(nil, nil, ship).Purchase)

	rec := doJSON(e, http.MethodPost, "/api/imports/"+uuid.NewString()+"/purchase", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, got.AgreeToTerms)
	assert.Equal(t, "TERMS_REQUIRED", decodeError(t, rec).Error.Code)
}

func TestImportHandler_Purchase(t *testing.T) {
	ship := &mockShippingService{
		PurchaseFunc: func(ctx context.Context, importJobID uuid.UUID, req service.PurchaseRequest) (*service.PurchaseResult, error) {
			assert.True(t, req.AgreeToTerms)
			assert.Equal(t, "PDF", req.LabelFormat)
			return &service.PurchaseResult{PurchaseID: "p1", LabelFormat: "PDF", PurchasedCount: 2, SkippedCount: 1}, nil
		},
	}
	e := newTestEcho()
	e.POST("/api/imports/:id/purchase", NewImportHandler(nil, nil, ship).Purchase)

	rec := doJSON(e, http.MethodPost, "/api/imports/"+uuid.NewString()+"/purchase", `{"label_format":"PDF","agree_to_terms":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.PurchaseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.PurchasedCount)
	assert.Equal(t, 1, res.SkippedCount)
}

// =============================================================================
// SHIPMENTS
// =============================================================================

func TestShipmentHandler_Update(t *testing.T) {
	s := sampleShipment(uuid.New(), 3)
	var got *domain.ShipmentPatch
	shipments := &mockShipmentService{
		UpdateFunc: func(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
			got = patch
			patch.Apply(s)
			return s, nil
		},
	}
	e := newTestEcho()
	e.PATCH("/api/shipments/:id", NewShipmentHandler(shipments).Update)

	rec := doJSON(e, http.MethodPatch, "/api/shipments/"+s.ID.String(), `{"to_street2":null,"weight_oz":8.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, got)
	assert.True(t, got.ToStreet2.Null)
	assert.False(t, got.ToName.Set)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "8.5", resp["weight_oz"])
	assert.Equal(t, "Ada Lovelace", resp["to_name"])
}

func TestShipmentHandler_UpdateValidationError(t *testing.T) {
	shipments := &mockShipmentService{
		UpdateFunc: func(ctx context.Context, id uuid.UUID, patch *domain.ShipmentPatch) (*domain.Shipment, error) {
			return nil, patch.Validate()
		},
	}
	e := newTestEcho()
	e.PATCH("/api/shipments/:id", NewShipmentHandler(shipments).Update)

	rec := doJSON(e, http.MethodPatch, "/api/shipments/"+uuid.NewString(), `{"to_name":null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This field may not be null.", decodeError(t, rec).Error.Fields["to_name"])
}

func TestShipmentHandler_Delete(t *testing.T) {
	id := uuid.New()
	var deleted uuid.UUID
	shipments := &mockShipmentService{
		DeleteFunc: func(ctx context.Context, got uuid.UUID) error {
			deleted = got
			return nil
		},
	}
	e := newTestEcho()
	e.DELETE("/api/shipments/:id", NewShipmentHandler(shipments).Delete)

	rec := doJSON(e, http.MethodDelete, "/api/shipments/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, deleted)
}

func TestShipmentHandler_VerifyHidesInternalErrors(t *testing.T) {
	shipments := &mockShipmentService{
		VerifyFunc: func(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	e := newTestEcho()
	e.POST("/api/shipments/:id/verify", NewShipmentHandler(shipments).Verify)

	rec := doJSON(e, http.MethodPost, "/api/shipments/"+uuid.NewString()+"/verify", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "INTERNAL", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}

func TestShipmentHandler_ListAttempts(t *testing.T) {
	id := uuid.New()
	shipments := &mockShipmentService{
		ListAttemptsFunc: func(ctx context.Context, got uuid.UUID) ([]domain.VerificationAttempt, error) {
			return []domain.VerificationAttempt{
				{ID: uuid.New(), ShipmentID: got, Provider: "google", Status: domain.AttemptFailure, Error: "timeout"},
				{ID: uuid.New(), ShipmentID: got, Provider: "smarty", Status: domain.AttemptSuccess},
			}, nil
		},
	}
	e := newTestEcho()
	e.GET("/api/shipments/:id/verification-attempts", NewShipmentHandler(shipments).ListAttempts)

	rec := doJSON(e, http.MethodGet, "/api/shipments/"+id.String()+"/verification-attempts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var attempts []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attempts))
	require.Len(t, attempts, 2)
	assert.Equal(t, "google", attempts[0]["provider"])
	assert.Equal(t, "FAILURE", attempts[0]["status"])
	assert.Equal(t, "smarty", attempts[1]["provider"])
}

// =============================================================================
// SHIPPING
// =============================================================================

func TestShippingHandler_Quote(t *testing.T) {
	shipmentID := uuid.New()
	ship := &mockShippingService{
		QuoteFunc: func(ctx context.Context, req service.QuoteRequest) ([]service.ShipmentQuote, error) {
			require.Equal(t, []uuid.UUID{shipmentID}, req.ShipmentIDs)
			return []service.ShipmentQuote{{
				ShipmentID: shipmentID,
				Quotes:     []shipping.Rate{{ServiceCode: "ground_shipping", ServiceName: "Ground Shipping", CostCents: 310}},
			}}, nil
		},
	}
	e := newTestEcho()
	e.POST("/api/shipping/quote", NewShippingHandler(ship).Quote)

	rec := doJSON(e, http.MethodPost, "/api/shipping/quote", `{"shipment_ids":["`+shipmentID.String()+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[{"shipment_id":"`+shipmentID.String()+`","quotes":[{"service":"ground_shipping","name":"Ground Shipping","price_cents":310}]}]}`, rec.Body.String())
}

func TestShippingHandler_QuoteRequiresTarget(t *testing.T) {
	ship := &mockShippingService{
		QuoteFunc: func(ctx context.Context, req service.QuoteRequest) ([]service.ShipmentQuote, error) {
			return nil, service.ErrQuoteTargetRequired
		},
	}
	e := newTestEcho()
	e.POST("/api/shipping/quote", NewShippingHandler(ship).Quote)

	rec := doJSON(e, http.MethodPost, "/api/shipping/quote", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Error.Code)
}

// =============================================================================
// PRESETS
// =============================================================================

func TestPresetHandler_CreateAddress(t *testing.T) {
	presets := &mockPresetService{
		CreateAddressPresetFunc: func(ctx context.Context, p *domain.AddressPreset) error {
			p.ID = uuid.New()
			return nil
		},
	}
	e := newTestEcho()
	e.POST("/api/presets/addresses", NewPresetHandler(presets).CreateAddress)

	rec := doJSON(e, http.MethodPost, "/api/presets/addresses", `{"name":"Warehouse","street1":"1 Main St","city":"Austin","state":"TX","postal_code":"78701"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p domain.AddressPreset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Warehouse", p.Name)
}

func TestPresetHandler_PatchPackageKeepsOmittedFields(t *testing.T) {
	id := uuid.New()
	length := 10.0
	var saved *domain.PackagePreset
	presets := &mockPresetService{
		GetPackagePresetFunc: func(ctx context.Context, got uuid.UUID) (*domain.PackagePreset, error) {
			return &domain.PackagePreset{ID: got, Name: "Box", WeightOz: 16, LengthIn: &length}, nil
		},
		UpdatePackagePresetFunc: func(ctx context.Context, p *domain.PackagePreset) error {
			saved = p
			return nil
		},
	}
	e := newTestEcho()
	e.PATCH("/api/presets/packages/:id", NewPresetHandler(presets).PatchPackage)

	rec := doJSON(e, http.MethodPatch, "/api/presets/packages/"+id.String(), `{"weight_oz":20,"id":"`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, saved)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "Box", saved.Name)
	assert.Equal(t, 20.0, saved.WeightOz)
	require.NotNil(t, saved.LengthIn)
	assert.Equal(t, 10.0, *saved.LengthIn)
}

func TestPresetHandler_ReplaceAddressNotFound(t *testing.T) {
	presets := &mockPresetService{
		UpdateAddressPresetFunc: func(ctx context.Context, p *domain.AddressPreset) error {
			return service.ErrPresetNotFound
		},
	}
	e := newTestEcho()
	e.PUT("/api/presets/addresses/:id", NewPresetHandler(presets).ReplaceAddress)

	rec := doJSON(e, http.MethodPut, "/api/presets/addresses/"+uuid.NewString(), `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresetHandler_DeletePackage(t *testing.T) {
	presets := &mockPresetService{
		DeletePackagePresetFunc: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	e := newTestEcho()
	e.DELETE("/api/presets/packages/:id", NewPresetHandler(presets).DeletePackage)

	rec := doJSON(e, http.MethodDelete, "/api/presets/packages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// =============================================================================
// ERROR HANDLER
// =============================================================================

func TestHTTPErrorHandler_UnknownRoute(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/imports/:id", func(c echo.Context) error { return nil })

	rec := doJSON(e, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestHTTPErrorHandler_MethodNotAllowed(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/shipments/:id", func(c echo.Context) error { return nil })

	rec := doJSON(e, http.MethodPut, "/api/shipments/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Error.Code)
}
