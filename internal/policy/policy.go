// Package policy implements the authorization gate consulted before any
// action that can move data off the device. Every denial leaves exactly
// one durable audit event.
package policy

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/models"
)

// Action names the outward-capable operation being authorized.
type Action string

const (
	ActionSync    Action = "sync"
	ActionShare   Action = "share"
	ActionListing Action = "listing"
	ActionExport  Action = "export"
	ActionEnqueue Action = "enqueue"
	ActionOutbox  Action = "outbox"
)

// Audit policy names.
const (
	PolicyTrainingConsent = "training-consent"
	PolicyOutboundConsent = "outbound-consent"
	PolicyOutboundPayment = "outbound-payment"
)

const (
	dataTypeTraining    = "training-data"
	licenseTrainAI      = "train-ai"
	licenseNoAITraining = "no-ai-training"
)

// Gate evaluates vault policies against one record and action.
type Gate struct {
	db index.Store
}

// NewGate creates a Gate that appends audit events through db.
func NewGate(db index.Store) *Gate {
	return &Gate{db: db}
}

// Authorize runs the training-consent and outbound checks. It is called
// inline by every outward-facing operation and again when the outbox
// executes a queued job: policy state is evaluated at execution time, not
// captured at enqueue time. On denial it appends one audit event and
// returns an error wrapping apperr.ErrPolicyViolation.
func (g *Gate) Authorize(vault *models.Vault, rec *models.SovereignData, action Action) error {
	if err := g.checkTraining(vault, rec, action); err != nil {
		return err
	}
	return g.checkOutbound(vault, rec, action)
}

// checkTraining applies only to training-data when the vault requires
// training consent. A license restriction denies even a recorded grant.
func (g *Gate) checkTraining(vault *models.Vault, rec *models.SovereignData, action Action) error {
	if rec.DataType != dataTypeTraining || !vault.Policies.Training.RequireConsent {
		return nil
	}
	lic := rec.Metadata.License
	if lic != nil && slices.Contains(lic.Restrictions, licenseNoAITraining) {
		return g.deny(rec, action, PolicyTrainingConsent, "Training use restricted by license")
	}
	if rec.Metadata.Consent.Training.Granted {
		return nil
	}
	if lic != nil && slices.Contains(lic.Permissions, licenseTrainAI) {
		return nil
	}
	return g.deny(rec, action, PolicyTrainingConsent, "Training consent required for training-data")
}

// checkOutbound applies to every record on every outward action.
func (g *Gate) checkOutbound(vault *models.Vault, rec *models.SovereignData, action Action) error {
	outbound := rec.Metadata.Consent.Outbound
	if vault.Policies.Outbound.RequireConsent && !outbound.Granted {
		return g.deny(rec, action, PolicyOutboundConsent, "Outbound consent required before data can leave the vault")
	}
	if vault.Policies.Outbound.RequirePayment && outbound.PaymentTxHash == "" {
		return g.deny(rec, action, PolicyOutboundPayment, "Outbound payment required before data can leave the vault")
	}
	return nil
}

func (g *Gate) deny(rec *models.SovereignData, action Action, policyName, message string) error {
	event := &models.PolicyAuditEvent{
		ID:        uuid.NewString(),
		DataID:    rec.ID,
		Policy:    policyName,
		Action:    string(action),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.db.AppendAudit(event); err != nil {
		return fmt.Errorf("policy: append audit: %w", err)
	}
	return fmt.Errorf("%s: %w", message, apperr.ErrPolicyViolation)
}
