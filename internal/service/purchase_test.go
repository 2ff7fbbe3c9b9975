package service

import (
	"context"
	"testing"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/shipping"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShippingFixture() (*memStore, ShippingService) {
	store := newMemStore()
	provider := shipping.NewLinearRateProvider(shipping.DefaultServices, "https://labels.test")
	return store, NewShippingService(store, provider, nil, nil)
}

func purchasable(importID uuid.UUID, row int) *domain.Shipment {
	s := readyShipment(importID, row)
	s.ValidationStatus = domain.ValidationStatusReady
	s.AddressVerificationStatus = domain.VerificationStatusCorrected
	s.SelectedService = "priority_mail"
	return s
}

func TestShippingService_QuoteByImport(t *testing.T) {
	store, svc := newShippingFixture()
	importID := uuid.New()
	a := readyShipment(importID, 3)
	a.WeightOz = "16"
	b := readyShipment(importID, 4)
	b.WeightOz = ""
	store.put(a, b)

	results, err := svc.Quote(context.Background(), QuoteRequest{ImportID: &importID})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, a.ID, results[0].ShipmentID)
	assert.Equal(t, []shipping.Rate{
		{ServiceCode: "priority_mail", ServiceName: "Priority Mail", CostCents: 660},
		{ServiceCode: "ground_shipping", ServiceName: "Ground Shipping", CostCents: 330},
	}, results[0].Quotes)
	assert.Empty(t, results[1].Quotes)
	assert.NotNil(t, results[1].Quotes)
}

func TestShippingService_QuoteByIDs(t *testing.T) {
	store, svc := newShippingFixture()
	a := readyShipment(uuid.New(), 3)
	store.put(a, readyShipment(uuid.New(), 3))

	results, err := svc.Quote(context.Background(), QuoteRequest{ShipmentIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, a.ID, results[0].ShipmentID)
}

func TestShippingService_QuoteRequiresTarget(t *testing.T) {
	_, svc := newShippingFixture()

	_, err := svc.Quote(context.Background(), QuoteRequest{})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", domain.ErrorReason(err))
	assert.Equal(t, "Either import_id or shipment_ids is required.", domain.ErrorMessage(err))
}

func TestShippingService_Purchase(t *testing.T) {
	store, svc := newShippingFixture()
	importID := uuid.New()
	ok := purchasable(importID, 3)
	noService := purchasable(importID, 4)
	noService.SelectedService = ""
	unverified := purchasable(importID, 5)
	unverified.AddressVerificationStatus = domain.VerificationStatusNotStarted
	store.put(ok, noService, unverified)

	res, err := svc.Purchase(context.Background(), importID, PurchaseRequest{LabelFormat: "PDF", AgreeToTerms: true})
	require.NoError(t, err)

	assert.Equal(t, "PDF", res.LabelFormat)
	assert.Equal(t, 1, res.PurchasedCount)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Equal(t, "https://labels.test/"+res.PurchaseID+".pdf", res.LabelDownloadURL)

	saved := store.shipment(ok.ID)
	assert.Equal(t, domain.LabelStatusPurchased, saved.LabelStatus)
	assert.Equal(t, "https://labels.test/"+res.PurchaseID+"/"+ok.ID.String()+".pdf", saved.LabelURL)
	assert.Equal(t, domain.LabelStatusNotPurchased, store.shipment(noService.ID).LabelStatus)
}

func TestShippingService_PurchaseRejections(t *testing.T) {
	store, svc := newShippingFixture()
	importID := uuid.New()

	_, err := svc.Purchase(context.Background(), importID, PurchaseRequest{})
	assert.Equal(t, "TERMS_REQUIRED", domain.ErrorReason(err))

	_, err = svc.Purchase(context.Background(), importID, PurchaseRequest{AgreeToTerms: true})
	assert.Equal(t, "EMPTY_IMPORT", domain.ErrorReason(err))

	notReady := purchasable(importID, 3)
	notReady.ValidationStatus = domain.ValidationStatusNeedsInfo
	store.put(notReady)

	_, err = svc.Purchase(context.Background(), importID, PurchaseRequest{AgreeToTerms: true})
	assert.Equal(t, "NOT_READY", domain.ErrorReason(err))
	assert.Equal(t, "No READY shipments with verified addresses and services", domain.ErrorMessage(err))
}
