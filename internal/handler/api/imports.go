package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/importer"
	"github.com/dukerupert/parcelry/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ImportHandler serves the import endpoints.
type ImportHandler struct {
	imports   service.ImportService
	shipments service.ShipmentService
	shipping  service.ShippingService
}

// NewImportHandler creates an ImportHandler.
func NewImportHandler(imports service.ImportService, shipments service.ShipmentService, shipping service.ShippingService) *ImportHandler {
	return &ImportHandler{
		imports:   imports,
		shipments: shipments,
		shipping:  shipping,
	}
}

// Upload handles POST /api/imports with a multipart "file" field.
func (h *ImportHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.Rejected("import.upload", importer.ReasonMissingFile, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Internal(err, "import.upload", "failed to open upload")
	}
	defer f.Close()

	job, err := h.imports.Upload(c.Request().Context(), service.UploadParams{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{
		ImportJobID: job.ID,
		Status:      job.Status,
	})
}

// Get handles GET /api/imports/:id.
func (h *ImportHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id", "import")
	if err != nil {
		return err
	}
	detail, err := h.imports.GetImport(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newImportResponse(detail))
}

// listShipmentsQuery is the query string of a shipment listing.
type listShipmentsQuery struct {
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=READY NEEDS_INFO INVALID"`
	Search   string `query:"search" json:"search" validate:"max=200"`
	Page     string `query:"page"`
	PageSize string `query:"page_size"`
}

// ListShipments handles GET /api/imports/:id/shipments.
func (h *ImportHandler) ListShipments(c echo.Context) error {
	id, err := pathID(c, "id", "import")
	if err != nil {
		return err
	}

	var q listShipmentsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return domain.Invalid("import.shipments", "Malformed query string.")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	page, err := parsePage(q.Page)
	if err != nil {
		return err
	}
	size := parsePageSize(q.PageSize)

	result, err := h.imports.ListShipments(c.Request().Context(), domain.ShipmentFilter{
		ImportJobID: id,
		Status:      domain.ValidationStatus(q.Status),
		Search:      q.Search,
		Limit:       size,
		Offset:      (page - 1) * size,
	})
	if err != nil {
		return err
	}
	if page > 1 && len(result.Shipments) == 0 {
		return invalidPage()
	}

	resp := pageResponse{
		Count:   result.Total,
		Results: newShipmentResponses(result.Shipments),
	}
	if page*size < result.Total {
		resp.Next = pageLink(c, page+1)
	}
	if page > 1 {
		resp.Previous = pageLink(c, page-1)
	}
	return c.JSON(http.StatusOK, resp)
}

// Bulk handles POST /api/imports/:id/shipments/bulk.
func (h *ImportHandler) Bulk(c echo.Context) error {
	id, err := pathID(c, "id", "import")
	if err != nil {
		return err
	}
	var req service.BulkRequest
	if err := bindJSON(c, "shipments.bulk", &req); err != nil {
		return err
	}
	result, err := h.shipments.Bulk(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Purchase handles POST /api/imports/:id/purchase. An empty body has not
// agreed to the terms.
func (h *ImportHandler) Purchase(c echo.Context) error {
	id, err := pathID(c, "id", "import")
	if err != nil {
		return err
	}
	var req service.PurchaseRequest
	if err := bindJSON(c, "import.purchase", &req); err != nil {
		return err
	}
	result, err := h.shipping.Purchase(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func invalidPage() error {
	return domain.Errorf(domain.ENOTFOUND, "import.shipments", "Invalid page.")
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, invalidPage()
	}
	return page, nil
}

// parsePageSize falls back to the default for anything unusable and caps the
// size at maxPageSize.
func parsePageSize(raw string) int {
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		return defaultPageSize
	}
	return min(size, maxPageSize)
}

// pageLink returns the request path with the page parameter replaced.
func pageLink(c echo.Context, page int) *string {
	u := c.Request().URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	link := u.Path + "?" + q.Encode()
	return &link
}
