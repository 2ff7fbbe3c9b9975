package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/middleware"
)

// RegisterAPIRoutes registers the JSON API under g (mounted at /api).
// JSON bodies are capped at middleware.DefaultMaxBodySize; uploads get their
// own size cap and a stricter rate limit.
func RegisterAPIRoutes(g *echo.Group, deps APIDeps, upload *middleware.RateLimiter) {
	jsonBody := echo.WrapMiddleware(middleware.MaxBodySize())
	uploadBody := echo.WrapMiddleware(middleware.MaxBodySize(middleware.UploadMaxBodySize))
	uploadLimit := echo.WrapMiddleware(upload.Middleware)

	// Imports
	imports := deps.ImportHandler
	g.POST("/imports", imports.Upload, uploadLimit, uploadBody)
	g.GET("/imports/:id", imports.Get)
	g.GET("/imports/:id/shipments", imports.ListShipments)
	g.POST("/imports/:id/shipments/bulk", imports.Bulk, jsonBody)
	g.POST("/imports/:id/purchase", imports.Purchase, jsonBody)

	// Shipments
	shipments := deps.ShipmentHandler
	g.GET("/shipments/:id", shipments.Get)
	g.PATCH("/shipments/:id", shipments.Update, jsonBody)
	g.DELETE("/shipments/:id", shipments.Delete)
	g.POST("/shipments/:id/verify", shipments.Verify)
	g.GET("/shipments/:id/verification-attempts", shipments.ListAttempts)

	// Shipping
	g.POST("/shipping/quote", deps.ShippingHandler.Quote, jsonBody)

	// Presets
	presets := deps.PresetHandler
	g.GET("/presets/addresses", presets.ListAddresses)
	g.POST("/presets/addresses", presets.CreateAddress, jsonBody)
	g.GET("/presets/addresses/:id", presets.GetAddress)
	g.PUT("/presets/addresses/:id", presets.ReplaceAddress, jsonBody)
	g.PATCH("/presets/addresses/:id", presets.PatchAddress, jsonBody)
	g.DELETE("/presets/addresses/:id", presets.DeleteAddress)

	g.GET("/presets/packages", presets.ListPackages)
	g.POST("/presets/packages", presets.CreatePackage, jsonBody)
	g.GET("/presets/packages/:id", presets.GetPackage)
	g.PUT("/presets/packages/:id", presets.ReplacePackage, jsonBody)
	g.PATCH("/presets/packages/:id", presets.PatchPackage, jsonBody)
	g.DELETE("/presets/packages/:id", presets.DeletePackage)
}
