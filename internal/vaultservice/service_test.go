package vaultservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/identity"
	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/network"
	"github.com/starford/sovra/internal/policy"
	"github.com/starford/sovra/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	_, blobs := testutil.TestBlobs(t)
	db := testutil.TestDB(t)
	ident := identity.NewManager(db, blobs.Root())
	return New(blobs, db, ident, policy.NewGate(db), network.DefaultRegistry())
}

// grantAll records the consent and payment every outward action needs
// under the default policies.
func grantAll(t *testing.T, svc *Service, id string) {
	t.Helper()
	yes := true
	_, err := svc.UpdateConsent(context.Background(), id, ConsentUpdate{
		TrainingGranted: &yes,
		OutboundGranted: &yes,
		PaymentTxHash:   "0xabc",
	})
	require.NoError(t, err)
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{
		Data:     []byte("Hello"),
		DataType: "document",
		Metadata: models.Metadata{Name: "t"},
	})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 16)
	assert.True(t, rec.Encrypted)
	require.NotEmpty(t, rec.Hashes)
	assert.Equal(t, models.NetworkLocal, rec.Hashes[0].Network)
	require.NotNil(t, rec.EncryptionMetadata)
	assert.NotEmpty(t, rec.Owner.Signature)

	got, data, err := svc.Retrieve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))
	assert.Equal(t, rec.ID, got.ID)
}

func TestStoreIdempotentByContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Store(ctx, StoreInput{Data: []byte("same bytes"), DataType: "document"})
	require.NoError(t, err)
	second, err := svc.Store(ctx, StoreInput{Data: []byte("same bytes"), DataType: "document"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Stats count the artifact once.
	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, vault.Stats.TotalItems)
}

func TestRestoreReplacesWrappedKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Store(ctx, StoreInput{Data: []byte("same bytes"), DataType: "document"})
	require.NoError(t, err)
	second, err := svc.Store(ctx, StoreInput{Data: []byte("same bytes"), DataType: "document"})
	require.NoError(t, err)
	require.NotNil(t, second.EncryptionMetadata)
	assert.NotEqual(t, first.EncryptionMetadata.KeyID, second.EncryptionMetadata.KeyID)

	// The superseded wrapped key is gone; the live one still decrypts.
	_, err = svc.blobs.GetKey(first.EncryptionMetadata.KeyID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, data, err := svc.Retrieve(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "same bytes", string(data))

	// Re-storing the same content unencrypted also retires the key.
	no := false
	third, err := svc.Store(ctx, StoreInput{Data: []byte("same bytes"), DataType: "document", Encrypt: &no})
	require.NoError(t, err)
	assert.Nil(t, third.EncryptionMetadata)
	_, err = svc.blobs.GetKey(second.EncryptionMetadata.KeyID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// faultyIndex fails vault writes on demand, standing in for a crash
// between the index write and the stats update.
type faultyIndex struct {
	index.Store
	failVaultWrites bool
}

func (f *faultyIndex) PutVault(v *models.Vault) error {
	if f.failVaultWrites {
		return errors.New("index: put vault: disk full")
	}
	return f.Store.PutVault(v)
}

// Stats are best-effort counters, not transactional with the index: when
// the stats write fails after the record is indexed, the index keeps the
// record and the counters stay behind. The skew is visible, not repaired.
func TestInterruptedStoreLeavesStatsBehind(t *testing.T) {
	_, blobs := testutil.TestBlobs(t)
	db := &faultyIndex{Store: testutil.TestDB(t)}
	ident := identity.NewManager(db, blobs.Root())
	svc := New(blobs, db, ident, policy.NewGate(db), network.DefaultRegistry())
	ctx := context.Background()

	// Create the vault while writes still succeed.
	_, err := svc.Vault(ctx)
	require.NoError(t, err)

	db.failVaultWrites = true
	_, err = svc.Store(ctx, StoreInput{Data: []byte("orphan"), DataType: "document"})
	require.Error(t, err)
	db.failVaultWrites = false

	// The record survived the failed store and is fully readable...
	recs, err := svc.List(ctx, index.DataFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, data, err := svc.Retrieve(ctx, recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "orphan", string(data))

	// ...but the counters never saw it.
	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, vault.Stats.TotalItems)
	assert.Equal(t, int64(0), vault.Stats.TotalSize)
}

func TestStoreUnencrypted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	no := false
	rec, err := svc.Store(ctx, StoreInput{Data: []byte("plain"), DataType: "document", Encrypt: &no})
	require.NoError(t, err)
	assert.False(t, rec.Encrypted)
	assert.Nil(t, rec.EncryptionMetadata)

	_, data, err := svc.Retrieve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))
}

func TestRetrieveNotFound(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Retrieve(context.Background(), "ffffffffffffffff")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTamperedCiphertextFailsClosed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("integrity matters"), DataType: "document"})
	require.NoError(t, err)

	// Flip one bit in the stored ciphertext.
	local, ok := rec.LocalHash()
	require.True(t, ok)
	enc, err := svc.blobs.GetObject(local.Hash)
	require.NoError(t, err)
	enc.Ciphertext[0] ^= 0x01
	require.NoError(t, svc.blobs.PutObject(local.Hash, enc))

	_, _, err = svc.Retrieve(ctx, rec.ID)
	assert.ErrorIs(t, err, apperr.ErrCryptoFailure)
}

func TestDeleteCompleteness(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("doomed"), DataType: "document"})
	require.NoError(t, err)
	local, _ := rec.LocalHash()
	keyID := rec.EncryptionMetadata.KeyID

	require.NoError(t, svc.Delete(ctx, rec.ID))

	_, _, err = svc.Retrieve(ctx, rec.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.blobs.GetObject(local.Hash)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.blobs.GetKey(keyID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Deleting a missing id is a no-op that still succeeds.
	require.NoError(t, svc.Delete(ctx, rec.ID))

	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, vault.Stats.TotalItems)
	assert.Equal(t, int64(0), vault.Stats.TotalSize)
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Store(ctx, StoreInput{Data: []byte("a doc"), DataType: "document"})
	require.NoError(t, err)
	training, err := svc.Store(ctx, StoreInput{Data: []byte("a dataset"), DataType: "training-data"})
	require.NoError(t, err)

	all, err := svc.List(ctx, index.DataFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(ctx, index.DataFilter{DataType: "training-data"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, training.ID, filtered[0].ID)
}

func TestEventsEmitted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var events []Event
	svc.SetEventFunc(func(e Event) { events = append(events, e) })

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("evented"), DataType: "document"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, rec.ID))

	require.Len(t, events, 2)
	assert.Equal(t, EventStored, events[0].Type)
	assert.Equal(t, EventDeleted, events[1].Type)
	assert.Equal(t, rec.ID, events[0].DataID)
}
