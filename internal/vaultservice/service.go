// Package vaultservice coordinates the envelope, blob store, index,
// identity, and policy gate into the vault's core operations. Mutating
// operations are serialised by a single mutex: one task per request, and
// no two tasks for the same vault enter a write critical section
// concurrently.
package vaultservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/blobstore"
	"github.com/starford/sovra/internal/envelope"
	"github.com/starford/sovra/internal/identity"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/network"
	"github.com/starford/sovra/internal/policy"
)

// Event types published to the event callback.
const (
	EventStored          = "data.stored"
	EventDeleted         = "data.deleted"
	EventSynced          = "data.synced"
	EventShared          = "data.shared"
	EventOutboxProcessed = "outbox.processed"
)

// Event is a vault change notification for the renderer layer.
type Event struct {
	Type    string `json:"type"`
	DataID  string `json:"dataId,omitempty"`
	Network string `json:"network,omitempty"`
}

// Service is the vault core. Construct one per vault directory and inject
// it; there are no package-level singletons.
type Service struct {
	mu       sync.Mutex
	blobs    *blobstore.Store
	db       index.Store
	ident    *identity.Manager
	gate     *policy.Gate
	networks *network.Registry
	events   func(Event)
}

// New creates a Service from its dependencies.
func New(blobs *blobstore.Store, db index.Store, ident *identity.Manager, gate *policy.Gate, networks *network.Registry) *Service {
	return &Service{
		blobs:    blobs,
		db:       db,
		ident:    ident,
		gate:     gate,
		networks: networks,
	}
}

// SetEventFunc registers a callback invoked after successful mutations.
func (s *Service) SetEventFunc(fn func(Event)) {
	s.events = fn
}

func (s *Service) emit(e Event) {
	if s.events != nil {
		s.events(e)
	}
}

// Vault returns the vault record, creating it on first use.
func (s *Service) Vault(_ context.Context) (*models.Vault, error) {
	return s.ident.GetOrCreate()
}

// UpdateVaultConfig shallow-merges a partial config and persists it.
func (s *Service) UpdateVaultConfig(_ context.Context, update identity.ConfigUpdate) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident.UpdateConfig(update)
}

// SetNetworkEnabled toggles one network in the vault storage config.
func (s *Service) SetNetworkEnabled(_ context.Context, networkName string, enabled bool) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ident.SetNetworkEnabled(networkName, enabled)
}

// StoreInput carries one artifact into the vault.
type StoreInput struct {
	Data       []byte
	DataType   string
	Metadata   models.Metadata
	Visibility string // empty uses the vault default
	Encrypt    *bool  // nil means true
}

// Store encrypts and persists rawBytes, indexes the record, and bumps the
// vault stats. Storing identical bytes twice yields the same id and
// silently overwrites: the store is idempotent by content, and the
// superseded wrapped key is removed.
func (s *Service) Store(_ context.Context, in StoreInput) (*models.SovereignData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vault, err := s.ident.GetOrCreate()
	if err != nil {
		return nil, err
	}

	fullHash, err := envelope.Hash(in.Data, "")
	if err != nil {
		return nil, err
	}
	id := fullHash[:16]

	visibility := in.Visibility
	if visibility == "" {
		visibility = vault.Defaults.Visibility
	}
	encrypt := in.Encrypt == nil || *in.Encrypt

	prev, err := s.db.GetData(id)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	isNew := prev == nil

	var encMeta *models.EncryptionMetadata
	if encrypt {
		key, keyID, err := envelope.GenerateDataKey()
		if err != nil {
			return nil, err
		}
		enc, err := envelope.Encrypt(in.Data, key)
		if err != nil {
			return nil, err
		}
		secret, err := s.ident.MasterSecret()
		if err != nil {
			return nil, err
		}
		wrapped, err := envelope.WrapKey(key, secret)
		if err != nil {
			return nil, err
		}
		if err := s.blobs.PutKey(keyID, wrapped); err != nil {
			return nil, err
		}
		if err := s.blobs.PutObject(fullHash, enc); err != nil {
			return nil, err
		}
		encMeta = &models.EncryptionMetadata{
			Algorithm:  envelope.AlgorithmAESGCM,
			KeyID:      keyID,
			SharedWith: []string{},
		}
	} else {
		if err := s.blobs.PutObject(fullHash, &models.EncryptedContent{
			Ciphertext: in.Data,
			Algorithm:  "plaintext",
		}); err != nil {
			return nil, err
		}
	}

	sig, err := s.ident.Sign([]byte(id))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &models.SovereignData{
		ID:             id,
		PrimaryNetwork: models.NetworkLocal,
		Hashes: []models.ContentHash{
			{Hash: fullHash, Algorithm: "sha256", Network: models.NetworkLocal, Size: int64(len(in.Data)), Timestamp: now},
		},
		Replication: []models.ReplicationState{
			{Network: models.NetworkLocal, Status: models.ReplicationSynced, LastSync: &now},
		},
		Encrypted:          encrypt,
		EncryptionMetadata: encMeta,
		DataType:           in.DataType,
		Visibility:         visibility,
		Owner:              models.Owner{DID: vault.DID, PublicKey: vault.PublicKey, Signature: sig},
		Version:            1,
		Metadata:           in.Metadata,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}

	// A re-store mints a fresh data key; drop the superseded wrapped key
	// so keys/ only holds live material.
	if prev != nil && prev.EncryptionMetadata != nil &&
		(encMeta == nil || prev.EncryptionMetadata.KeyID != encMeta.KeyID) {
		if err := s.blobs.DeleteKey(prev.EncryptionMetadata.KeyID); err != nil {
			return nil, err
		}
	}

	if isNew {
		if err := s.ident.UpdateStats(func(st *models.VaultStats) {
			st.TotalItems++
			st.TotalSize += int64(len(in.Data))
		}); err != nil {
			return nil, err
		}
	}

	s.emit(Event{Type: EventStored, DataID: id})
	return rec, nil
}

// Retrieve loads a record and decrypts its local content.
func (s *Service) Retrieve(_ context.Context, id string) (*models.SovereignData, []byte, error) {
	rec, err := s.db.GetData(id)
	if err != nil {
		return nil, nil, err
	}
	local, ok := rec.LocalHash()
	if !ok {
		return nil, nil, fmt.Errorf("vaultservice: record %s has no local content: %w", id, apperr.ErrNotFound)
	}
	enc, err := s.blobs.GetObject(local.Hash)
	if err != nil {
		return nil, nil, err
	}

	if !rec.Encrypted {
		return rec, enc.Ciphertext, nil
	}
	if rec.EncryptionMetadata == nil {
		return nil, nil, fmt.Errorf("vaultservice: record %s missing encryption metadata: %w", id, apperr.ErrNotFound)
	}
	plaintext, err := s.decryptLocal(rec, enc)
	if err != nil {
		return nil, nil, err
	}
	return rec, plaintext, nil
}

// List returns index records matching the filter.
func (s *Service) List(_ context.Context, f index.DataFilter) ([]models.SovereignData, error) {
	return s.db.ListData(f)
}

// Delete removes the index entry, local content blobs, and the wrapped
// key together. Cleanup is best-effort: missing pieces are tolerated and
// deleting an unknown id succeeds as a no-op.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetData(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var localSize int64
	for _, h := range rec.Hashes {
		if h.Network != models.NetworkLocal {
			continue
		}
		localSize = h.Size
		if err := s.blobs.DeleteObject(h.Hash); err != nil {
			return err
		}
	}
	if rec.EncryptionMetadata != nil {
		if err := s.blobs.DeleteKey(rec.EncryptionMetadata.KeyID); err != nil {
			return err
		}
	}
	if err := s.db.DeleteData(id); err != nil {
		return err
	}

	if err := s.ident.UpdateStats(func(st *models.VaultStats) {
		st.TotalItems--
		st.TotalSize -= localSize
	}); err != nil {
		return err
	}

	s.emit(Event{Type: EventDeleted, DataID: id})
	return nil
}

// decryptLocal unwraps the record's data key and opens the envelope.
func (s *Service) decryptLocal(rec *models.SovereignData, enc *models.EncryptedContent) ([]byte, error) {
	wrapped, err := s.blobs.GetKey(rec.EncryptionMetadata.KeyID)
	if err != nil {
		return nil, err
	}
	secret, err := s.ident.MasterSecret()
	if err != nil {
		return nil, err
	}
	key, err := envelope.UnwrapKey(wrapped, secret)
	if err != nil {
		return nil, err
	}
	return envelope.Decrypt(enc, key)
}
