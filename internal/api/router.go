package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sovra/internal/vaultservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *vaultservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Vault identity and configuration.
	r.Get("/vault", h.GetVault)
	r.Patch("/vault/config", h.UpdateVaultConfig)
	r.Put("/vault/networks/{network}", h.SetNetwork)

	// Data lifecycle.
	r.Post("/data", h.StoreData)
	r.Get("/data", h.ListData)
	r.Post("/data/import", h.ImportData)
	r.Get("/data/{id}", h.GetData)
	r.Delete("/data/{id}", h.DeleteData)
	r.Post("/data/{id}/sync", h.SyncData)
	r.Post("/data/{id}/share", h.ShareData)
	r.Post("/data/{id}/revoke", h.RevokeData)
	r.Post("/data/{id}/consent", h.UpdateConsent)
	r.Get("/data/{id}/export", h.ExportData)

	// Durable outbox.
	r.Post("/outbox/sync", h.QueueSync)
	r.Post("/outbox/share", h.QueueShare)
	r.Get("/outbox", h.ListOutbox)
	r.Get("/outbox/{id}", h.GetOutboxJob)
	r.Post("/outbox/process", h.ProcessOutbox)

	// Policy audit trail.
	r.Get("/policy/audit", h.PolicyAudit)

	// Marketplace ledger.
	r.Post("/listings", h.CreateListing)
	r.Get("/listings", h.ListListings)
	r.Post("/purchases", h.RecordPurchase)
	r.Get("/purchases", h.ListPurchases)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
