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

func TestQueueSyncFailsFastOnPolicy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("gated"), DataType: "document"})
	require.NoError(t, err)

	_, err = svc.QueueSync(ctx, rec.ID, models.NetworkIPFS)
	require.ErrorIs(t, err, apperr.ErrPolicyViolation)

	jobs, err := svc.ListOutbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestQueueSyncUnknownNetworkOrData(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.QueueSync(ctx, "ffffffffffffffff", models.NetworkIPFS)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("g"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, err = svc.QueueSync(ctx, rec.ID, "floppynet")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedNetwork)
}

func TestProcessOutboxCompletesSync(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("durable"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	job, err := svc.QueueSync(ctx, rec.ID, models.NetworkArweave)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)

	jobs, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobCompleted, jobs[0].Status)
	assert.Empty(t, jobs[0].Error)
	assert.NotNil(t, jobs[0].Payload)

	got, _, err := svc.Retrieve(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.HasNetwork(models.NetworkArweave))
}

func TestProcessOutboxIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("once"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, err = svc.QueueSync(ctx, rec.ID, models.NetworkIPFS)
	require.NoError(t, err)

	first, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)
	second, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, models.JobCompleted, first[0].Status)
	assert.Equal(t, models.JobCompleted, second[0].Status)
	assert.True(t, first[0].UpdatedAt.Equal(second[0].UpdatedAt), "terminal job must not be touched again")
}

func TestProcessOutboxResumesInterruptedJob(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("resumed"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	job, err := svc.QueueSync(ctx, rec.ID, models.NetworkIPFS)
	require.NoError(t, err)

	// Simulate a pass that died after claiming the job.
	job.Status = models.JobProcessing
	require.NoError(t, svc.db.PutJob(job))

	jobs, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobCompleted, jobs[0].Status)
}

func TestOutboxJobLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("looked up"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	job, err := svc.QueueSync(ctx, rec.ID, models.NetworkIPFS)
	require.NoError(t, err)

	got, err := svc.OutboxJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobQueued, got.Status)

	_, err = svc.OutboxJob(ctx, "no-such-job")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProcessOutboxIsolatesFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doomed, err := svc.Store(ctx, StoreInput{Data: []byte("will fail"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, doomed.ID)
	fine, err := svc.Store(ctx, StoreInput{Data: []byte("will pass"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, fine.ID)

	j1, err := svc.QueueSync(ctx, doomed.ID, models.NetworkIPFS)
	require.NoError(t, err)
	j2, err := svc.QueueSync(ctx, fine.ID, models.NetworkIPFS)
	require.NoError(t, err)

	// Revoke consent after enqueue: the gate re-runs at execution time.
	no := false
	_, err = svc.UpdateConsent(ctx, doomed.ID, ConsentUpdate{OutboundGranted: &no})
	require.NoError(t, err)

	jobs, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)

	byID := map[string]models.OutboxJob{}
	for _, j := range jobs {
		byID[j.ID] = j
	}
	assert.Equal(t, models.JobFailed, byID[j1.ID].Status)
	assert.Contains(t, byID[j1.ID].Error, "Outbound consent required")
	assert.Equal(t, models.JobCompleted, byID[j2.ID].Status)
}

func TestProcessOutboxShareJob(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Store(ctx, StoreInput{Data: []byte("queued share"), DataType: "document"})
	require.NoError(t, err)
	grantAll(t, svc, rec.ID)

	_, pub, err := envelope.GenerateRecipientKeyPair()
	require.NoError(t, err)
	pubB64 := base64.StdEncoding.EncodeToString(pub)

	_, err = svc.QueueShare(ctx, rec.ID, pubB64, []string{"read"})
	require.NoError(t, err)

	jobs, err := svc.ProcessOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobCompleted, jobs[0].Status)

	got, _, err := svc.Retrieve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Contains(t, got.EncryptionMetadata.SharedWith, pubB64)
}
