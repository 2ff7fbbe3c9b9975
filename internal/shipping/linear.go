package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service is a rate card entry priced linearly by weight.
type Service struct {
	Code      string
	Name      string
	BaseCents int
	PerOzCent int
}

// DefaultServices is the rate card offered for every shipment.
var DefaultServices = []Service{
	{Code: "priority_mail", Name: "Priority Mail", BaseCents: 500, PerOzCent: 10},
	{Code: "ground_shipping", Name: "Ground Shipping", BaseCents: 250, PerOzCent: 5},
}

// LinearRateProvider prices each service as base + per-ounce rate and issues
// stub label URLs under a configured base URL.
type LinearRateProvider struct {
	services     []Service
	labelBaseURL string
	now          func() time.Time
}

// NewLinearRateProvider creates a provider for the given rate card.
// A nil services slice uses DefaultServices.
func NewLinearRateProvider(services []Service, labelBaseURL string) *LinearRateProvider {
	if services == nil {
		services = DefaultServices
	}
	return &LinearRateProvider{
		services:     services,
		labelBaseURL: strings.TrimRight(labelBaseURL, "/"),
		now:          time.Now,
	}
}

// GetRates returns one rate per service. The per-ounce part is truncated to
// whole cents using exact decimal arithmetic on the stored weight.
func (p *LinearRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	weight, ok := parseWeight(params.WeightOz)
	if !ok {
		return []Rate{}, nil
	}

	rates := make([]Rate, 0, len(p.services))
	for _, svc := range p.services {
		perOz := decimal.NewFromInt(int64(svc.PerOzCent)).Mul(weight).Truncate(0)
		rates = append(rates, Rate{
			ServiceCode: svc.Code,
			ServiceName: svc.Name,
			CostCents:   svc.BaseCents + int(perOz.IntPart()),
		})
	}
	return rates, nil
}

// CreateLabel returns the stub label for one shipment of a purchase.
func (p *LinearRateProvider) CreateLabel(ctx context.Context, params LabelParams) (*Label, error) {
	if params.PurchaseID == "" || params.ShipmentID == "" {
		return nil, ErrLabelTargetRequired
	}
	return &Label{
		LabelURL:  fmt.Sprintf("%s/%s/%s.pdf", p.labelBaseURL, params.PurchaseID, params.ShipmentID),
		CreatedAt: p.now(),
	}, nil
}

// BatchLabelURL implements Provider.
func (p *LinearRateProvider) BatchLabelURL(purchaseID string) string {
	return fmt.Sprintf("%s/%s.pdf", p.labelBaseURL, purchaseID)
}

// parseWeight accepts a positive decimal weight in ounces.
func parseWeight(value string) (decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, false
	}
	w, err := decimal.NewFromString(value)
	if err != nil || !w.IsPositive() {
		return decimal.Zero, false
	}
	return w, true
}
