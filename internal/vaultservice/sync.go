package vaultservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

// SyncToNetwork replicates the local encrypted content to one external
// network and records the returned address on the record.
func (s *Service) SyncToNetwork(ctx context.Context, id, networkName string) (*models.SovereignData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx, id, networkName, policy.ActionSync)
}

// syncLocked is the sync body; the caller must hold s.mu. The policy gate
// runs here so outbox execution re-validates at execution time.
func (s *Service) syncLocked(ctx context.Context, id, networkName string, action policy.Action) (*models.SovereignData, error) {
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
	adapter, err := s.networks.Get(networkName)
	if err != nil {
		return nil, err
	}

	local, ok := rec.LocalHash()
	if !ok {
		return nil, fmt.Errorf("vaultservice: record %s has no local content: %w", id, apperr.ErrNotFound)
	}
	enc, err := s.blobs.GetObject(local.Hash)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: encode payload: %w", err)
	}

	ch, err := adapter.Publish(ctx, id, payload)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: publish to %s: %w", networkName, err)
	}

	now := time.Now().UTC()
	firstSync := !rec.HasNetwork(networkName)
	upsertHash(rec, ch)
	upsertReplication(rec, models.ReplicationState{
		Network:  networkName,
		Status:   models.ReplicationSynced,
		LastSync: &now,
		Pinned:   true,
	})
	rec.UpdatedAt = now
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}

	if firstSync {
		if err := s.ident.UpdateStats(func(st *models.VaultStats) {
			for i := range st.NetworkUsage {
				if st.NetworkUsage[i].Network == networkName {
					st.NetworkUsage[i].Items++
					st.NetworkUsage[i].Bytes += ch.Size
					return
				}
			}
			st.NetworkUsage = append(st.NetworkUsage, models.NetworkUsage{
				Network: networkName, Items: 1, Bytes: ch.Size,
			})
		}); err != nil {
			return nil, err
		}
	}

	s.emit(Event{Type: EventSynced, DataID: id, Network: networkName})
	return rec, nil
}

func upsertHash(rec *models.SovereignData, ch models.ContentHash) {
	for i := range rec.Hashes {
		if rec.Hashes[i].Network == ch.Network {
			rec.Hashes[i] = ch
			return
		}
	}
	rec.Hashes = append(rec.Hashes, ch)
}

func upsertReplication(rec *models.SovereignData, state models.ReplicationState) {
	for i := range rec.Replication {
		if rec.Replication[i].Network == state.Network {
			rec.Replication[i] = state
			return
		}
	}
	rec.Replication = append(rec.Replication, state)
}
