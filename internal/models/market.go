package models

import "time"

// PolicyAuditEvent is appended exactly once per policy denial.
type PolicyAuditEvent struct {
	ID        string    `json:"id"`
	DataID    string    `json:"dataId"`
	Policy    string    `json:"policy"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// DataListing is an append-oriented marketplace offer for one artifact.
type DataListing struct {
	ID          string    `json:"id"`
	DataID      string    `json:"dataId"`
	SellerDID   string    `json:"sellerDid"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	License     *License  `json:"license,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DataPurchase records a completed sale against a listing. Settlement is
// out of scope; the transaction hash is recorded as-is.
type DataPurchase struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId"`
	DataID    string    `json:"dataId"`
	BuyerDID  string    `json:"buyerDid"`
	Price     float64   `json:"price"`
	TxHash    string    `json:"txHash,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
