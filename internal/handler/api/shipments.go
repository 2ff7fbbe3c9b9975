package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
)

// ShipmentHandler serves single-shipment endpoints.
type ShipmentHandler struct {
	shipments service.ShipmentService
}

// NewShipmentHandler creates a ShipmentHandler.
func NewShipmentHandler(shipments service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

// Get handles GET /api/shipments/:id.
func (h *ShipmentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id", "shipment")
	if err != nil {
		return err
	}
	s, err := h.shipments.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newShipmentResponse(s))
}

// Update handles PATCH /api/shipments/:id. Only the fields present in the
// body change.
func (h *ShipmentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", "shipment")
	if err != nil {
		return err
	}
	var patch domain.ShipmentPatch
	if err := bindJSON(c, "shipment.update", &patch); err != nil {
		return err
	}
	s, err := h.shipments.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newShipmentResponse(s))
}

// Delete handles DELETE /api/shipments/:id.
func (h *ShipmentHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id", "shipment")
	if err != nil {
		return err
	}
	if err := h.shipments.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Verify handles POST /api/shipments/:id/verify.
func (h *ShipmentHandler) Verify(c echo.Context) error {
	id, err := pathID(c, "id", "shipment")
	if err != nil {
		return err
	}
	s, err := h.shipments.Verify(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newShipmentResponse(s))
}

// ListAttempts handles GET /api/shipments/:id/verification-attempts.
func (h *ShipmentHandler) ListAttempts(c echo.Context) error {
	id, err := pathID(c, "id", "shipment")
	if err != nil {
		return err
	}
	attempts, err := h.shipments.ListAttempts(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, attempts)
}
