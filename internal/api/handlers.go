package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sovra/internal/identity"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/vaultservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *vaultservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *vaultservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 32<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// GetVault handles GET /api/vault.
//
//	@Summary		Get the vault record, creating it on first use
//	@Tags			vault
//	@Produce		json
//	@Success		200	{object}	models.Vault
//	@Security		BearerAuth
//	@Router			/vault [get]
func (h *Handler) GetVault(w http.ResponseWriter, r *http.Request) {
	vault, err := h.svc.Vault(r.Context())
	if err != nil {
		writeError(w, "get vault", err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// UpdateVaultConfig handles PATCH /api/vault/config.
//
//	@Summary		Update vault defaults and policies (shallow merge)
//	@Tags			vault
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	models.Vault
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vault/config [patch]
func (h *Handler) UpdateVaultConfig(w http.ResponseWriter, r *http.Request) {
	var req identity.ConfigUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	vault, err := h.svc.UpdateVaultConfig(r.Context(), req)
	if err != nil {
		writeError(w, "update vault config", err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// SetNetwork handles PUT /api/vault/networks/{network}.
//
//	@Summary		Enable or disable one storage network
//	@Tags			vault
//	@Accept			json
//	@Produce		json
//	@Param			network	path		string	true	"Network name"
//	@Success		200		{object}	models.Vault
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vault/networks/{network} [put]
func (h *Handler) SetNetwork(w http.ResponseWriter, r *http.Request) {
	networkName := chi.URLParam(r, "network")
	var req NetworkToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vault, err := h.svc.SetNetworkEnabled(r.Context(), networkName, req.Enabled)
	if err != nil {
		writeError(w, "set network", err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// StoreData handles POST /api/data.
//
//	@Summary		Encrypt and store an artifact
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StoreDataRequest	true	"Artifact to store"
//	@Success		201		{object}	models.SovereignData
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data [post]
func (h *Handler) StoreData(w http.ResponseWriter, r *http.Request) {
	var req StoreDataRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Data) == 0 || req.DataType == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("data and dataType are required"))
		return
	}
	rec, err := h.svc.Store(r.Context(), vaultservice.StoreInput{
		Data:       req.Data,
		DataType:   req.DataType,
		Metadata:   req.Metadata,
		Visibility: req.Visibility,
		Encrypt:    req.Encrypt,
	})
	if err != nil {
		writeError(w, "store data", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListData handles GET /api/data.
//
//	@Summary		List data records with optional filtering
//	@Tags			data
//	@Produce		json
//	@Param			dataType	query		string	false	"Filter by data type"
//	@Param			visibility	query		string	false	"Filter by visibility"
//	@Param			network		query		string	false	"Filter by replicated network"
//	@Success		200			{object}	DataListResponse
//	@Security		BearerAuth
//	@Router			/data [get]
func (h *Handler) ListData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), index.DataFilter{
		DataType:   q.Get("dataType"),
		Visibility: q.Get("visibility"),
		Network:    q.Get("network"),
	})
	if err != nil {
		writeError(w, "list data", err)
		return
	}
	writeJSON(w, http.StatusOK, DataListResponse{Items: items, Total: len(items)})
}

// GetData handles GET /api/data/{id}.
//
//	@Summary		Retrieve a record and its decrypted content
//	@Tags			data
//	@Produce		json
//	@Param			id	path		string	true	"Data id"
//	@Success		200	{object}	DataDetailResponse
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id} [get]
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	rec, data, err := h.svc.Retrieve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get data", err)
		return
	}
	writeJSON(w, http.StatusOK, DataDetailResponse{Record: rec, Data: data})
}

// DeleteData handles DELETE /api/data/{id}.
//
//	@Summary		Delete a record, its blobs, and its wrapped key
//	@Tags			data
//	@Param			id	path	string	true	"Data id"
//	@Success		204	"Deleted"
//	@Security		BearerAuth
//	@Router			/data/{id} [delete]
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete data", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncData handles POST /api/data/{id}/sync.
//
//	@Summary		Replicate encrypted content to one network
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Data id"
//	@Param			body	body		SyncRequest	true	"Target network"
//	@Success		200		{object}	models.SovereignData
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id}/sync [post]
func (h *Handler) SyncData(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Network == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("network is required"))
		return
	}
	rec, err := h.svc.SyncToNetwork(r.Context(), chi.URLParam(r, "id"), req.Network)
	if err != nil {
		writeError(w, "sync data", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ShareData handles POST /api/data/{id}/share.
//
//	@Summary		Re-wrap the data key for a recipient
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Data id"
//	@Param			body	body		ShareRequest	true	"Recipient"
//	@Success		200		{object}	models.SharePackage
//	@Failure		403		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id}/share [post]
func (h *Handler) ShareData(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RecipientPublicKey == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("recipientPublicKey is required"))
		return
	}
	pkg, err := h.svc.Share(r.Context(), chi.URLParam(r, "id"), req.RecipientPublicKey, req.Permissions)
	if err != nil {
		writeError(w, "share data", err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

// RevokeData handles POST /api/data/{id}/revoke.
//
//	@Summary		Remove a recipient from the shared set
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Data id"
//	@Success		200	{object}	models.SovereignData
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id}/revoke [post]
func (h *Handler) RevokeData(w http.ResponseWriter, r *http.Request) {
	var req RevokeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.svc.RevokeAccess(r.Context(), chi.URLParam(r, "id"), req.RecipientPublicKey)
	if err != nil {
		writeError(w, "revoke access", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateConsent handles POST /api/data/{id}/consent.
//
//	@Summary		Record the owner's consent grants on one record
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Data id"
//	@Success		200	{object}	models.SovereignData
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id}/consent [post]
func (h *Handler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	var req ConsentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.svc.UpdateConsent(r.Context(), chi.URLParam(r, "id"), vaultservice.ConsentUpdate{
		TrainingGranted: req.Training,
		OutboundGranted: req.Outbound,
		PaymentTxHash:   req.PaymentTxHash,
	})
	if err != nil {
		writeError(w, "update consent", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ExportData handles GET /api/data/{id}/export.
//
//	@Summary		Export a record as decrypted JSON or an encrypted bundle
//	@Tags			data
//	@Produce		json
//	@Param			id		path		string	true	"Data id"
//	@Param			format	query		string	false	"json or encrypted-bundle"
//	@Success		200		{object}	vaultservice.ExportResult
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{id}/export [get]
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Export(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "export data", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ImportData handles POST /api/data/import.
//
//	@Summary		Restore an encrypted bundle into the vault
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Bundle"
//	@Success		201		{object}	models.SovereignData
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/import [post]
func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Bundle) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("bundle is required"))
		return
	}
	rec, err := h.svc.Import(r.Context(), req.Bundle)
	if err != nil {
		writeError(w, "import data", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
