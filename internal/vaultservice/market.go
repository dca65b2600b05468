package vaultservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

// ListingInput are the caller-supplied fields for a new listing.
type ListingInput struct {
	DataID      string
	Price       float64
	Currency    string
	License     *models.License
	Description string
}

// CreateListing appends a marketplace listing after the policy gate
// approves the record leaving the vault.
func (s *Service) CreateListing(_ context.Context, in ListingInput) (*models.DataListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetData(in.DataID)
	if err != nil {
		return nil, err
	}
	vault, err := s.ident.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(vault, rec, policy.ActionListing); err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	listing := &models.DataListing{
		ID:          uuid.NewString(),
		DataID:      in.DataID,
		SellerDID:   vault.DID,
		Price:       in.Price,
		Currency:    currency,
		License:     in.License,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.PutListing(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Listings returns all marketplace listings, newest first.
func (s *Service) Listings(_ context.Context) ([]models.DataListing, error) {
	return s.db.ListListings()
}

// Purchases returns all recorded sales, newest first.
func (s *Service) Purchases(_ context.Context) ([]models.DataPurchase, error) {
	return s.db.ListPurchases()
}

// PurchaseInput records a completed sale; settlement happened elsewhere.
type PurchaseInput struct {
	ListingID string
	BuyerDID  string
	TxHash    string
}

// RecordPurchase appends a purchase against a listing and credits the
// vault revenue stat.
func (s *Service) RecordPurchase(_ context.Context, in PurchaseInput) (*models.DataPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.db.GetListing(in.ListingID)
	if err != nil {
		return nil, err
	}
	purchase := &models.DataPurchase{
		ID:        uuid.NewString(),
		ListingID: listing.ID,
		DataID:    listing.DataID,
		BuyerDID:  in.BuyerDID,
		Price:     listing.Price,
		TxHash:    in.TxHash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.PutPurchase(purchase); err != nil {
		return nil, err
	}
	if err := s.ident.UpdateStats(func(st *models.VaultStats) {
		st.TotalRevenue += listing.Price
	}); err != nil {
		return nil, err
	}
	return purchase, nil
}
