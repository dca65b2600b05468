package vaultservice

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/envelope"
	"github.com/starford/sovra/internal/models"
)

func TestShareGatedByOutboundConsent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("secret report"), DataType: "document"})
	require.NoError(t, err)

	_, pub, err := envelope.GenerateRecipientKeyPair()
	require.NoError(t, err)
	pubB64 := base64.StdEncoding.EncodeToString(pub)

	_, err = svc.Share(ctx, rec.ID, pubB64, []string{"read"})
	require.ErrorIs(t, err, apperr.ErrPolicyViolation)
	assert.Contains(t, err.Error(), "Outbound consent required")

	grantAll(t, svc, rec.ID)
	pkg, err := svc.Share(ctx, rec.ID, pubB64, []string{"read"})
	require.NoError(t, err)
	assert.Equal(t, pubB64, pkg.RecipientPublicKey)
	assert.Equal(t, []string{"read"}, pkg.Permissions)
}

func TestShareRecipientCanDecrypt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plaintext := []byte("shared between vaults")
	rec, err := svc.Store(ctx, StoreInput{Data: plaintext, DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	priv, pub, err := envelope.GenerateRecipientKeyPair()
	require.NoError(t, err)
	pkg, err := svc.Share(ctx, rec.ID, base64.StdEncoding.EncodeToString(pub), []string{"read"})
	require.NoError(t, err)

	// Recipient side: unwrap the data key, fetch the blob by hash, decrypt.
	dataKey, err := envelope.UnwrapFromSender(pkg.EncryptedKey, priv)
	require.NoError(t, err)
	enc, err := svc.blobs.GetObject(pkg.DataHash)
	require.NoError(t, err)
	got, err := envelope.Decrypt(enc, dataKey)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestShareAndRevokeVisibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("v"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, pub, err := envelope.GenerateRecipientKeyPair()
	require.NoError(t, err)
	pubB64 := base64.StdEncoding.EncodeToString(pub)

	_, err = svc.Share(ctx, rec.ID, pubB64, nil)
	require.NoError(t, err)
	// Sharing twice with the same recipient keeps one entry.
	_, err = svc.Share(ctx, rec.ID, pubB64, nil)
	require.NoError(t, err)

	got, _, err := svc.Retrieve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityShared, got.Visibility)
	assert.Equal(t, []string{pubB64}, got.EncryptionMetadata.SharedWith)

	revoked, err := svc.RevokeAccess(ctx, rec.ID, pubB64)
	require.NoError(t, err)
	assert.Empty(t, revoked.EncryptionMetadata.SharedWith)
	assert.Equal(t, models.VisibilityPrivate, revoked.Visibility)
}

func TestShareUnencryptedConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	no := false
	rec, err := svc.Store(ctx, StoreInput{Data: []byte("open"), DataType: "document", Encrypt: &no})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, pub, err := envelope.GenerateRecipientKeyPair()
	require.NoError(t, err)
	_, err = svc.Share(ctx, rec.ID, base64.StdEncoding.EncodeToString(pub), nil)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateConsentPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("c"), DataType: "document"})
	require.NoError(t, err)

	yes := true
	got, err := svc.UpdateConsent(ctx, rec.ID, ConsentUpdate{OutboundGranted: &yes})
	require.NoError(t, err)
	assert.True(t, got.Metadata.Consent.Outbound.Granted)
	assert.False(t, got.Metadata.Consent.Training.Granted)
	assert.Empty(t, got.Metadata.Consent.Outbound.PaymentTxHash)

	got, err = svc.UpdateConsent(ctx, rec.ID, ConsentUpdate{PaymentTxHash: "0xfee"})
	require.NoError(t, err)
	assert.True(t, got.Metadata.Consent.Outbound.Granted)
	assert.Equal(t, "0xfee", got.Metadata.Consent.Outbound.PaymentTxHash)
}
