package api

import (
	"github.com/starford/sovra/internal/models"
)

// StoreDataRequest is the request body for storing an artifact. Data is
// base64-encoded by the JSON codec.
type StoreDataRequest struct {
	Data       []byte          `json:"data" validate:"required"`
	DataType   string          `json:"dataType" example:"document" validate:"required"`
	Visibility string          `json:"visibility,omitempty" example:"private"`
	Encrypt    *bool           `json:"encrypt,omitempty"`
	Metadata   models.Metadata `json:"metadata"`
}

// DataDetailResponse is a record together with its decrypted content.
type DataDetailResponse struct {
	Record *models.SovereignData `json:"record" validate:"required"`
	Data   []byte                `json:"data" validate:"required"`
}

// DataListResponse wraps data listings.
type DataListResponse struct {
	Items []models.SovereignData `json:"items" validate:"required"`
	Total int                    `json:"total" example:"42" validate:"required"`
}

// SyncRequest names the target network for a sync.
type SyncRequest struct {
	Network string `json:"network" example:"ipfs" validate:"required"`
}

// ShareRequest carries the recipient of a share.
type ShareRequest struct {
	RecipientPublicKey string   `json:"recipientPublicKey" validate:"required"`
	Permissions        []string `json:"permissions,omitempty" example:"read"`
}

// RevokeRequest names the recipient losing access.
type RevokeRequest struct {
	RecipientPublicKey string `json:"recipientPublicKey" validate:"required"`
}

// ConsentRequest is a partial consent update; omitted fields are untouched.
type ConsentRequest struct {
	Training      *bool  `json:"training,omitempty"`
	Outbound      *bool  `json:"outbound,omitempty"`
	PaymentTxHash string `json:"paymentTxHash,omitempty" example:"0xabc"`
}

// ImportRequest carries an encrypted bundle produced by export.
type ImportRequest struct {
	Bundle []byte `json:"bundle" validate:"required"`
}

// NetworkToggleRequest enables or disables one storage network.
type NetworkToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// QueueSyncRequest enqueues a durable sync job.
type QueueSyncRequest struct {
	DataID  string `json:"dataId" validate:"required"`
	Network string `json:"network" example:"arweave" validate:"required"`
}

// QueueShareRequest enqueues a durable share job.
type QueueShareRequest struct {
	DataID             string   `json:"dataId" validate:"required"`
	RecipientPublicKey string   `json:"recipientPublicKey" validate:"required"`
	Permissions        []string `json:"permissions,omitempty"`
}

// OutboxListResponse wraps outbox jobs.
type OutboxListResponse struct {
	Jobs []models.OutboxJob `json:"jobs" validate:"required"`
}

// AuditListResponse wraps policy audit events, newest first.
type AuditListResponse struct {
	Events []models.PolicyAuditEvent `json:"events" validate:"required"`
}

// PurchaseListResponse wraps recorded purchases, newest first.
type PurchaseListResponse struct {
	Purchases []models.DataPurchase `json:"purchases" validate:"required"`
}

// CreateListingRequest is the request body for a marketplace listing.
type CreateListingRequest struct {
	DataID      string          `json:"dataId" validate:"required"`
	Price       float64         `json:"price" example:"9.99" validate:"required"`
	Currency    string          `json:"currency,omitempty" example:"USD"`
	License     *models.License `json:"license,omitempty"`
	Description string          `json:"description,omitempty"`
}

// RecordPurchaseRequest records a settled purchase against a listing.
type RecordPurchaseRequest struct {
	ListingID string `json:"listingId" validate:"required"`
	BuyerDID  string `json:"buyerDid" validate:"required"`
	TxHash    string `json:"txHash,omitempty"`
}
