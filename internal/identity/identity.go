// Package identity owns the vault's identity: its DID, its signing
// keypair, and the persisted vault configuration record. The private key
// lives in a 0600 file under the data directory and is never part of the
// vault record itself.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/models"
)

const (
	identityDir = "identity"
	keyFileName = "owner.key"
)

// Manager lazily creates and maintains the singleton vault record.
type Manager struct {
	db   index.Store
	root string // vault data directory
}

// NewManager creates a Manager persisting through db, with key material
// under root.
func NewManager(db index.Store, root string) *Manager {
	return &Manager{db: db, root: root}
}

// GetOrCreate returns the vault record, creating identity and defaults on
// first use. On load, missing config sections are backfilled with defaults
// so the schema can evolve without migration scripts.
func (m *Manager) GetOrCreate() (*models.Vault, error) {
	v, err := m.db.GetVault()
	if err == nil {
		if normalize(v) {
			if err := m.db.PutVault(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate keypair: %w", err)
	}
	if err := m.writeKeyFile(priv.Seed()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v = &models.Vault{
		DID:           "did:sovra:" + uuid.NewString(),
		PublicKey:     hex.EncodeToString(pub),
		StorageConfig: models.DefaultStorageConfig(),
		Defaults:      models.DefaultVaultDefaults(),
		Policies:      models.DefaultPolicies(),
		Stats:         models.VaultStats{NetworkUsage: []models.NetworkUsage{}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.db.PutVault(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ConfigUpdate is a partial vault configuration; nil sections are left
// untouched (shallow merge).
type ConfigUpdate struct {
	Defaults *models.VaultDefaults `json:"defaults,omitempty"`
	Policies *models.VaultPolicies `json:"policies,omitempty"`
}

// UpdateConfig shallow-merges the update into the vault and persists it.
func (m *Manager) UpdateConfig(update ConfigUpdate) (*models.Vault, error) {
	v, err := m.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if update.Defaults != nil {
		v.Defaults = *update.Defaults
	}
	if update.Policies != nil {
		v.Policies = *update.Policies
	}
	v.UpdatedAt = time.Now().UTC()
	if err := m.db.PutVault(v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetNetworkEnabled upserts one storageConfig entry.
func (m *Manager) SetNetworkEnabled(network string, enabled bool) (*models.Vault, error) {
	v, err := m.GetOrCreate()
	if err != nil {
		return nil, err
	}
	found := false
	for i := range v.StorageConfig {
		if v.StorageConfig[i].Network == network {
			v.StorageConfig[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		v.StorageConfig = append(v.StorageConfig, models.StorageConfig{
			Network:            network,
			Enabled:            enabled,
			EncryptionRequired: true,
		})
	}
	v.UpdatedAt = time.Now().UTC()
	if err := m.db.PutVault(v); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateStats applies mut to the vault stats and persists. Stats are
// best-effort counters, not transactional with the index.
func (m *Manager) UpdateStats(mut func(*models.VaultStats)) error {
	v, err := m.GetOrCreate()
	if err != nil {
		return err
	}
	mut(&v.Stats)
	v.UpdatedAt = time.Now().UTC()
	return m.db.PutVault(v)
}

// MasterSecret returns the private key seed used to wrap data keys.
func (m *Manager) MasterSecret() ([]byte, error) {
	data, err := os.ReadFile(m.keyPath())
	if err != nil {
		return nil, fmt.Errorf("identity: read key file: %w", err)
	}
	seed, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("identity: decode key file: %w", apperr.ErrCryptoFailure)
	}
	return seed, nil
}

// Sign returns a hex ed25519 signature over msg with the owner key.
func (m *Manager) Sign(msg []byte) (string, error) {
	seed, err := m.MasterSecret()
	if err != nil {
		return "", err
	}
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("identity: malformed key seed: %w", apperr.ErrCryptoFailure)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return hex.EncodeToString(ed25519.Sign(priv, msg)), nil
}

func (m *Manager) keyPath() string {
	return filepath.Join(m.root, identityDir, keyFileName)
}

func (m *Manager) writeKeyFile(seed []byte) error {
	dir := filepath.Join(m.root, identityDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("identity: mkdir: %w", err)
	}
	if err := os.WriteFile(m.keyPath(), []byte(hex.EncodeToString(seed)), 0o600); err != nil {
		return fmt.Errorf("identity: write key file: %w", err)
	}
	return nil
}

// normalize backfills sections missing from vaults persisted by older
// schema versions. Reports whether anything changed.
func normalize(v *models.Vault) bool {
	changed := false
	if len(v.StorageConfig) == 0 {
		v.StorageConfig = models.DefaultStorageConfig()
		changed = true
	}
	if v.Defaults.Visibility == "" {
		v.Defaults = models.DefaultVaultDefaults()
		changed = true
	}
	if v.Policies == (models.VaultPolicies{}) {
		v.Policies = models.DefaultPolicies()
		changed = true
	}
	if v.Stats.NetworkUsage == nil {
		v.Stats.NetworkUsage = []models.NetworkUsage{}
		changed = true
	}
	return changed
}
