package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// QueueSync handles POST /api/outbox/sync.
//
//	@Summary		Enqueue a durable sync job
//	@Tags			outbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueueSyncRequest	true	"Job"
//	@Success		202		{object}	models.OutboxJob
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outbox/sync [post]
func (h *Handler) QueueSync(w http.ResponseWriter, r *http.Request) {
	var req QueueSyncRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DataID == "" || req.Network == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("dataId and network are required"))
		return
	}
	job, err := h.svc.QueueSync(r.Context(), req.DataID, req.Network)
	if err != nil {
		writeError(w, "queue sync", err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// QueueShare handles POST /api/outbox/share.
//
//	@Summary		Enqueue a durable share job
//	@Tags			outbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		QueueShareRequest	true	"Job"
//	@Success		202		{object}	models.OutboxJob
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outbox/share [post]
func (h *Handler) QueueShare(w http.ResponseWriter, r *http.Request) {
	var req QueueShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DataID == "" || req.RecipientPublicKey == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("dataId and recipientPublicKey are required"))
		return
	}
	job, err := h.svc.QueueShare(r.Context(), req.DataID, req.RecipientPublicKey, req.Permissions)
	if err != nil {
		writeError(w, "queue share", err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// ListOutbox handles GET /api/outbox.
//
//	@Summary		List outbox jobs in enqueue order
//	@Tags			outbox
//	@Produce		json
//	@Success		200	{object}	OutboxListResponse
//	@Security		BearerAuth
//	@Router			/outbox [get]
func (h *Handler) ListOutbox(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListOutbox(r.Context())
	if err != nil {
		writeError(w, "list outbox", err)
		return
	}
	writeJSON(w, http.StatusOK, OutboxListResponse{Jobs: jobs})
}

// GetOutboxJob handles GET /api/outbox/{id}.
//
//	@Summary		Get one outbox job
//	@Tags			outbox
//	@Produce		json
//	@Param			id	path		string	true	"Job id"
//	@Success		200	{object}	models.OutboxJob
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/outbox/{id} [get]
func (h *Handler) GetOutboxJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.OutboxJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get outbox job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ProcessOutbox handles POST /api/outbox/process.
//
//	@Summary		Run one pass over all queued jobs
//	@Tags			outbox
//	@Produce		json
//	@Success		200	{object}	OutboxListResponse
//	@Security		BearerAuth
//	@Router			/outbox/process [post]
func (h *Handler) ProcessOutbox(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ProcessOutbox(r.Context())
	if err != nil {
		writeError(w, "process outbox", err)
		return
	}
	writeJSON(w, http.StatusOK, OutboxListResponse{Jobs: jobs})
}

// PolicyAudit handles GET /api/policy/audit.
//
//	@Summary		List policy denials, newest first
//	@Tags			policy
//	@Produce		json
//	@Success		200	{object}	AuditListResponse
//	@Security		BearerAuth
//	@Router			/policy/audit [get]
func (h *Handler) PolicyAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.PolicyAudit(r.Context())
	if err != nil {
		writeError(w, "policy audit", err)
		return
	}
	writeJSON(w, http.StatusOK, AuditListResponse{Events: events})
}
