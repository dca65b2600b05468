package vaultservice

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/envelope"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

// Share re-wraps the record's data key for a recipient and returns the
// portable share package. The recipient public key is a base64-encoded
// 32-byte X25519 key.
func (s *Service) Share(ctx context.Context, id, recipientPublicKey string, permissions []string) (*models.SharePackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shareLocked(ctx, id, recipientPublicKey, permissions, policy.ActionShare)
}

// shareLocked is the share body; the caller must hold s.mu.
func (s *Service) shareLocked(_ context.Context, id, recipientPublicKey string, permissions []string, action policy.Action) (*models.SharePackage, error) {
	rec, err := s.db.GetData(id)
	if err != nil {
		return nil, err
	}
	vault, err := s.ident.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(vault, rec, action); err != nil {
		return nil, err
	}
	if !rec.Encrypted || rec.EncryptionMetadata == nil {
		return nil, fmt.Errorf("vaultservice: record %s is not encrypted, nothing to share: %w", id, apperr.ErrConflict)
	}

	wrapped, err := s.blobs.GetKey(rec.EncryptionMetadata.KeyID)
	if err != nil {
		return nil, err
	}
	secret, err := s.ident.MasterSecret()
	if err != nil {
		return nil, err
	}
	dataKey, err := envelope.UnwrapKey(wrapped, secret)
	if err != nil {
		return nil, err
	}

	pubBytes, err := base64.StdEncoding.DecodeString(recipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: decode recipient key: %w", apperr.ErrCryptoFailure)
	}
	sealed, err := envelope.WrapForRecipient(dataKey, pubBytes)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(rec.EncryptionMetadata.SharedWith, recipientPublicKey) {
		rec.EncryptionMetadata.SharedWith = append(rec.EncryptionMetadata.SharedWith, recipientPublicKey)
	}
	rec.Visibility = models.VisibilityShared
	rec.UpdatedAt = time.Now().UTC()
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}

	local, _ := rec.LocalHash()
	s.emit(Event{Type: EventShared, DataID: id})
	return &models.SharePackage{
		DataHash:           local.Hash,
		RecipientPublicKey: recipientPublicKey,
		Permissions:        permissions,
		EncryptedKey:       sealed,
	}, nil
}

// RevokeAccess removes a recipient from the shared set; when the set
// becomes empty the record reverts to private visibility.
func (s *Service) RevokeAccess(_ context.Context, id, recipientPublicKey string) (*models.SovereignData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetData(id)
	if err != nil {
		return nil, err
	}
	if rec.EncryptionMetadata == nil {
		return rec, nil
	}

	shared := rec.EncryptionMetadata.SharedWith
	rec.EncryptionMetadata.SharedWith = slices.DeleteFunc(shared, func(k string) bool {
		return k == recipientPublicKey
	})
	if len(rec.EncryptionMetadata.SharedWith) == 0 && rec.Visibility == models.VisibilityShared {
		rec.Visibility = models.VisibilityPrivate
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ConsentUpdate is a partial consent change; nil fields are untouched.
type ConsentUpdate struct {
	TrainingGranted *bool
	OutboundGranted *bool
	PaymentTxHash   string
}

// UpdateConsent records the owner's consent grants on one record.
func (s *Service) UpdateConsent(_ context.Context, id string, update ConsentUpdate) (*models.SovereignData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetData(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if update.TrainingGranted != nil {
		rec.Metadata.Consent.Training.Granted = *update.TrainingGranted
		rec.Metadata.Consent.Training.GrantedAt = now
	}
	if update.OutboundGranted != nil {
		rec.Metadata.Consent.Outbound.Granted = *update.OutboundGranted
		rec.Metadata.Consent.Outbound.GrantedAt = now
	}
	if update.PaymentTxHash != "" {
		rec.Metadata.Consent.Outbound.PaymentTxHash = update.PaymentTxHash
	}
	rec.UpdatedAt = now
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
