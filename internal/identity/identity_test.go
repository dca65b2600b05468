package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/models"
)

func testManager(t *testing.T) (*Manager, *index.DB, string) {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sovra-identity-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	return NewManager(db, root), db, root
}

func TestGetOrCreateFirstUse(t *testing.T) {
	m, _, root := testManager(t)

	v, err := m.GetOrCreate()
	require.NoError(t, err)
	assert.Contains(t, v.DID, "did:sovra:")
	assert.NotEmpty(t, v.PublicKey)
	assert.True(t, v.Policies.Training.RequireConsent)
	assert.False(t, v.Policies.Training.RequirePayment)
	assert.True(t, v.Policies.Outbound.RequireConsent)
	assert.True(t, v.Policies.Outbound.RequirePayment)
	assert.Equal(t, models.VisibilityPrivate, v.Defaults.Visibility)

	// Key file exists with restricted permissions; record carries no key.
	keyFile := filepath.Join(root, "identity", "owner.key")
	info, err := os.Stat(keyFile)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	// Second call loads the same vault.
	again, err := m.GetOrCreate()
	require.NoError(t, err)
	assert.Equal(t, v.DID, again.DID)
	assert.Equal(t, v.PublicKey, again.PublicKey)
}

func TestBackfillsMissingPolicies(t *testing.T) {
	m, db, _ := testManager(t)

	// Simulate a vault persisted before policies and defaults existed.
	require.NoError(t, db.PutVault(&models.Vault{
		DID:       "did:sovra:legacy",
		PublicKey: "pk",
	}))

	v, err := m.GetOrCreate()
	require.NoError(t, err)
	assert.Equal(t, "did:sovra:legacy", v.DID)
	assert.True(t, v.Policies.Outbound.RequireConsent)
	assert.Equal(t, models.VisibilityPrivate, v.Defaults.Visibility)
	assert.NotEmpty(t, v.StorageConfig)
	assert.NotNil(t, v.Stats.NetworkUsage)
}

func TestUpdateConfigShallowMerge(t *testing.T) {
	m, _, _ := testManager(t)
	_, err := m.GetOrCreate()
	require.NoError(t, err)

	v, err := m.UpdateConfig(ConfigUpdate{
		Defaults: &models.VaultDefaults{Visibility: models.VisibilityPublic, StorageTier: "archive", ReplicationCount: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, v.Defaults.Visibility)
	// Policies untouched.
	assert.True(t, v.Policies.Outbound.RequirePayment)
}

func TestSetNetworkEnabled(t *testing.T) {
	m, _, _ := testManager(t)

	v, err := m.SetNetworkEnabled(models.NetworkIPFS, true)
	require.NoError(t, err)
	var ipfs *models.StorageConfig
	for i := range v.StorageConfig {
		if v.StorageConfig[i].Network == models.NetworkIPFS {
			ipfs = &v.StorageConfig[i]
		}
	}
	require.NotNil(t, ipfs)
	assert.True(t, ipfs.Enabled)

	// Unknown network is upserted.
	v, err = m.SetNetworkEnabled("swarm", true)
	require.NoError(t, err)
	assert.True(t, v.StorageConfig[len(v.StorageConfig)-1].Enabled)
	assert.Equal(t, "swarm", v.StorageConfig[len(v.StorageConfig)-1].Network)
}

func TestSignVerifies(t *testing.T) {
	m, _, _ := testManager(t)
	v, err := m.GetOrCreate()
	require.NoError(t, err)

	sig, err := m.Sign([]byte("artifact-id"))
	require.NoError(t, err)

	pub, err := hex.DecodeString(v.PublicKey)
	require.NoError(t, err)
	raw, err := hex.DecodeString(sig)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte("artifact-id"), raw))
}
