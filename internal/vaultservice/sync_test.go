package vaultservice

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

func TestSyncTrainingDataNeedsConsent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("labels"), DataType: "training-data"})
	require.NoError(t, err)

	_, err = svc.SyncToNetwork(ctx, rec.ID, models.NetworkIPFS)
	require.ErrorIs(t, err, apperr.ErrPolicyViolation)
	assert.Contains(t, err.Error(), "Training consent required")

	audit, err := svc.PolicyAudit(ctx)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, policy.PolicyTrainingConsent, audit[0].Policy)
	assert.Equal(t, rec.ID, audit[0].DataID)

	grantAll(t, svc, rec.ID)
	synced, err := svc.SyncToNetwork(ctx, rec.ID, models.NetworkIPFS)
	require.NoError(t, err)
	assert.True(t, synced.HasNetwork(models.NetworkIPFS))
}

func TestSyncRecordsNetworkAddress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("replicate me"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	synced, err := svc.SyncToNetwork(ctx, rec.ID, models.NetworkIPFS)
	require.NoError(t, err)

	var ipfsHash *models.ContentHash
	for i := range synced.Hashes {
		if synced.Hashes[i].Network == models.NetworkIPFS {
			ipfsHash = &synced.Hashes[i]
		}
	}
	require.NotNil(t, ipfsHash)
	assert.True(t, strings.HasPrefix(ipfsHash.Hash, "baf"), "expected CIDv1, got %q", ipfsHash.Hash)

	var repl *models.ReplicationState
	for i := range synced.Replication {
		if synced.Replication[i].Network == models.NetworkIPFS {
			repl = &synced.Replication[i]
		}
	}
	require.NotNil(t, repl)
	assert.Equal(t, models.ReplicationSynced, repl.Status)
	assert.True(t, repl.Pinned)
	assert.NotNil(t, repl.LastSync)

	// The local copy stays the primary.
	assert.Equal(t, models.NetworkLocal, synced.PrimaryNetwork)
}

func TestSyncTwiceUpsertsNotDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("twice"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, err = svc.SyncToNetwork(ctx, rec.ID, models.NetworkArweave)
	require.NoError(t, err)
	synced, err := svc.SyncToNetwork(ctx, rec.ID, models.NetworkArweave)
	require.NoError(t, err)

	count := 0
	for _, h := range synced.Hashes {
		if h.Network == models.NetworkArweave {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// Usage stats count the first sync only.
	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	require.Len(t, vault.Stats.NetworkUsage, 1)
	assert.Equal(t, 1, vault.Stats.NetworkUsage[0].Items)
}

func TestSyncUnsupportedNetwork(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("nowhere"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, err = svc.SyncToNetwork(ctx, rec.ID, "floppynet")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedNetwork)
}
