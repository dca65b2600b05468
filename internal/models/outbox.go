package models

import "time"

// Outbox job types.
const (
	JobTypeSync  = "sync"
	JobTypeShare = "share"
)

// Outbox job states. A job transitions queued → processing → completed or
// failed, exactly once; terminal jobs are retained as an audit trail.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// OutboxJob is one durable pending outward operation.
type OutboxJob struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	DataID             string    `json:"dataId"`
	Network            string    `json:"network,omitempty"`
	RecipientPublicKey string    `json:"recipientPublicKey,omitempty"`
	Permissions        []string  `json:"permissions,omitempty"`
	Payload            any       `json:"payload,omitempty"`
	Status             string    `json:"status"`
	Error              string    `json:"error,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Terminal reports whether the job has reached a final state.
func (j *OutboxJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
