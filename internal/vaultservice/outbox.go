package vaultservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

// QueueSync validates the data and policy now (fail fast) and enqueues a
// durable sync job for later processing.
func (s *Service) QueueSync(_ context.Context, dataID, networkName string) (*models.OutboxJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateEnqueue(dataID); err != nil {
		return nil, err
	}
	if _, err := s.networks.Get(networkName); err != nil {
		return nil, err
	}
	return s.appendJob(&models.OutboxJob{
		Type:    models.JobTypeSync,
		DataID:  dataID,
		Network: networkName,
	})
}

// QueueShare validates and enqueues a durable share job.
func (s *Service) QueueShare(_ context.Context, dataID, recipientPublicKey string, permissions []string) (*models.OutboxJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateEnqueue(dataID); err != nil {
		return nil, err
	}
	return s.appendJob(&models.OutboxJob{
		Type:               models.JobTypeShare,
		DataID:             dataID,
		RecipientPublicKey: recipientPublicKey,
		Permissions:        permissions,
	})
}

// ListOutbox returns every job, including terminal ones, in enqueue order.
func (s *Service) ListOutbox(_ context.Context) ([]models.OutboxJob, error) {
	return s.db.ListJobs()
}

// OutboxJob returns one job by id.
func (s *Service) OutboxJob(_ context.Context, id string) (*models.OutboxJob, error) {
	return s.db.GetJob(id)
}

// ProcessOutbox makes one pass over all persisted jobs. Pending jobs run
// through the policy gate again (policy may have changed since enqueue)
// and transition to exactly one terminal state; jobs already terminal
// pass through unchanged, so re-invocation is idempotent. A job left in
// processing by an interrupted pass is picked up again. One job's failure
// never aborts the pass.
func (s *Service) ProcessOutbox(ctx context.Context) ([]models.OutboxJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.db.ListJobs()
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		job := &jobs[i]
		if job.Terminal() {
			continue
		}

		job.Status = models.JobProcessing
		job.UpdatedAt = time.Now().UTC()
		if err := s.db.PutJob(job); err != nil {
			return nil, err
		}

		payload, execErr := s.executeJob(ctx, job)
		if execErr != nil {
			job.Status = models.JobFailed
			job.Error = execErr.Error()
		} else {
			job.Status = models.JobCompleted
			job.Payload = payload
		}
		job.UpdatedAt = time.Now().UTC()
		if err := s.db.PutJob(job); err != nil {
			return nil, err
		}
	}

	s.emit(Event{Type: EventOutboxProcessed})
	return jobs, nil
}

// executeJob dispatches one queued job. Errors are returned, not
// propagated: the caller converts them into a failed job status.
func (s *Service) executeJob(ctx context.Context, job *models.OutboxJob) (any, error) {
	switch job.Type {
	case models.JobTypeSync:
		rec, err := s.syncLocked(ctx, job.DataID, job.Network, policy.ActionOutbox)
		if err != nil {
			return nil, err
		}
		for _, h := range rec.Hashes {
			if h.Network == job.Network {
				return h, nil
			}
		}
		return nil, nil
	case models.JobTypeShare:
		pkg, err := s.shareLocked(ctx, job.DataID, job.RecipientPublicKey, job.Permissions, policy.ActionOutbox)
		if err != nil {
			return nil, err
		}
		return pkg, nil
	default:
		return nil, fmt.Errorf("vaultservice: unknown job type %q", job.Type)
	}
}

// validateEnqueue checks the record exists and passes the gate at enqueue
// time so obviously doomed jobs are rejected immediately.
func (s *Service) validateEnqueue(dataID string) error {
	rec, err := s.db.GetData(dataID)
	if err != nil {
		return err
	}
	vault, err := s.ident.GetOrCreate()
	if err != nil {
		return err
	}
	return s.gate.Authorize(vault, rec, policy.ActionEnqueue)
}

func (s *Service) appendJob(job *models.OutboxJob) (*models.OutboxJob, error) {
	now := time.Now().UTC()
	job.ID = uuid.NewString()
	job.Status = models.JobQueued
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := s.db.PutJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// PolicyAudit returns the policy denial trail, newest first.
func (s *Service) PolicyAudit(_ context.Context) ([]models.PolicyAuditEvent, error) {
	return s.db.ListAudit()
}
