package api

import (
	"net/http"

	"github.com/starford/sovra/internal/vaultservice"
)

// CreateListing handles POST /api/listings.
//
//	@Summary		Create a marketplace listing for one record
//	@Tags			market
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateListingRequest	true	"Listing"
//	@Success		201		{object}	models.DataListing
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/listings [post]
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DataID == "" || req.Price <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("dataId and a positive price are required"))
		return
	}
	listing, err := h.svc.CreateListing(r.Context(), vaultservice.ListingInput{
		DataID:      req.DataID,
		Price:       req.Price,
		Currency:    req.Currency,
		License:     req.License,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, "create listing", err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// ListListings handles GET /api/listings.
//
//	@Summary		List marketplace listings, newest first
//	@Tags			market
//	@Produce		json
//	@Success		200	{array}	models.DataListing
//	@Security		BearerAuth
//	@Router			/listings [get]
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.Listings(r.Context())
	if err != nil {
		writeError(w, "list listings", err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// ListPurchases handles GET /api/purchases.
//
//	@Summary		List recorded purchases, newest first
//	@Tags			market
//	@Produce		json
//	@Success		200	{object}	PurchaseListResponse
//	@Security		BearerAuth
//	@Router			/purchases [get]
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.svc.Purchases(r.Context())
	if err != nil {
		writeError(w, "list purchases", err)
		return
	}
	writeJSON(w, http.StatusOK, PurchaseListResponse{Purchases: purchases})
}

// RecordPurchase handles POST /api/purchases.
//
//	@Summary		Record a settled purchase against a listing
//	@Tags			market
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordPurchaseRequest	true	"Purchase"
//	@Success		201		{object}	models.DataPurchase
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/purchases [post]
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var req RecordPurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ListingID == "" || req.BuyerDID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("listingId and buyerDid are required"))
		return
	}
	purchase, err := h.svc.RecordPurchase(r.Context(), vaultservice.PurchaseInput{
		ListingID: req.ListingID,
		BuyerDID:  req.BuyerDID,
		TxHash:    req.TxHash,
	})
	if err != nil {
		writeError(w, "record purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}
