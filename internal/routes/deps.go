package routes

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/parcelry/internal/handler/api"
	"github.com/dukerupert/parcelry/internal/middleware"
)

// APIDeps contains the handlers mounted under /api
type APIDeps struct {
	// Imports (upload, detail, shipment listing, bulk actions, purchase)
	ImportHandler *api.ImportHandler

	// Shipments (detail, edit, delete, re-verify, attempt log)
	ShipmentHandler *api.ShipmentHandler

	// Rate quotes
	ShippingHandler *api.ShippingHandler

	// Saved address and package presets
	PresetHandler *api.PresetHandler
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ServerDeps contains everything NewServer needs
type ServerDeps struct {
	API    APIDeps
	Logger *slog.Logger

	// DB backs /healthz
	DB Pinger

	// HTTPMetrics records request counts and latencies
	HTTPMetrics *middleware.Metrics

	// Gatherer is served at /metrics
	Gatherer prometheus.Gatherer
}
