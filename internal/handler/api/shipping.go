package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/service"
)

// ShippingHandler serves rate quotes.
type ShippingHandler struct {
	shipping service.ShippingService
}

// NewShippingHandler creates a ShippingHandler.
func NewShippingHandler(shipping service.ShippingService) *ShippingHandler {
	return &ShippingHandler{shipping: shipping}
}

// Quote handles POST /api/shipping/quote.
func (h *ShippingHandler) Quote(c echo.Context) error {
	var req service.QuoteRequest
	if err := bindJSON(c, "shipping.quote", &req); err != nil {
		return err
	}
	quotes, err := h.shipping.Quote(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if quotes == nil {
		quotes = []service.ShipmentQuote{}
	}
	return c.JSON(http.StatusOK, quoteResponse{Results: quotes})
}
