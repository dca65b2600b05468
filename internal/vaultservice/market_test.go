package vaultservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/apperr"
)

func TestCreateListingGated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("for sale"), DataType: "document"})
	require.NoError(t, err)

	_, err = svc.CreateListing(ctx, ListingInput{DataID: rec.ID, Price: 10})
	require.ErrorIs(t, err, apperr.ErrPolicyViolation)

	grantAll(t, svc, rec.ID)
	listing, err := svc.CreateListing(ctx, ListingInput{DataID: rec.ID, Price: 10, Description: "a document"})
	require.NoError(t, err)
	assert.Equal(t, "USD", listing.Currency)
	assert.NotEmpty(t, listing.SellerDID)

	listings, err := svc.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestRecordPurchaseCreditsRevenue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("sold"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	listing, err := svc.CreateListing(ctx, ListingInput{DataID: rec.ID, Price: 25.5, Currency: "EUR"})
	require.NoError(t, err)

	purchase, err := svc.RecordPurchase(ctx, PurchaseInput{
		ListingID: listing.ID,
		BuyerDID:  "did:sovra:buyer",
		TxHash:    "0xsale",
	})
	require.NoError(t, err)
	assert.Equal(t, listing.Price, purchase.Price)
	assert.Equal(t, rec.ID, purchase.DataID)

	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.5, vault.Stats.TotalRevenue)

	purchases, err := svc.Purchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, purchase.ID, purchases[0].ID)
}

func TestRecordPurchaseUnknownListing(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RecordPurchase(context.Background(), PurchaseInput{ListingID: "nope"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
