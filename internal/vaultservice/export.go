package vaultservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
	"github.com/starford/sovra/internal/policy"
)

// Export formats.
const (
	FormatJSON            = "json"
	FormatEncryptedBundle = "encrypted-bundle"
)

// ExportResult is the portable form of one artifact. The json format
// carries decrypted plaintext; the encrypted-bundle format carries an
// xz-compressed bundle of the record, envelope, and wrapped key.
type ExportResult struct {
	Format string                `json:"format"`
	Record *models.SovereignData `json:"record"`
	Data   []byte                `json:"data,omitempty"`
	Bundle []byte                `json:"bundle,omitempty"`
}

// bundleDoc is the encrypted-bundle payload before compression.
type bundleDoc struct {
	Record     *models.SovereignData    `json:"record"`
	Content    *models.EncryptedContent `json:"content"`
	WrappedKey *models.EncryptedContent `json:"wrappedKey,omitempty"`
}

// Export produces a portable form of one artifact. Both formats move data
// outward, so the policy gate is consulted first.
func (s *Service) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.db.GetData(id)
	if err != nil {
		return nil, err
	}
	vault, err := s.ident.GetOrCreate()
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(vault, rec, policy.ActionExport); err != nil {
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

	switch format {
	case "", FormatJSON:
		data := enc.Ciphertext
		if rec.Encrypted {
			if data, err = s.decryptLocal(rec, enc); err != nil {
				return nil, err
			}
		}
		return &ExportResult{Format: FormatJSON, Record: rec, Data: data}, nil

	case FormatEncryptedBundle:
		doc := bundleDoc{Record: rec, Content: enc}
		if rec.EncryptionMetadata != nil {
			wrapped, err := s.blobs.GetKey(rec.EncryptionMetadata.KeyID)
			if err != nil {
				return nil, err
			}
			doc.WrappedKey = wrapped
		}
		bundle, err := compressBundle(doc)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Format: FormatEncryptedBundle, Record: rec, Bundle: bundle}, nil

	default:
		return nil, fmt.Errorf("vaultservice: unknown export format %q", format)
	}
}

// Import restores an encrypted bundle into the vault. Re-importing an
// existing id bumps the version and records the prior local hash as the
// previous version.
func (s *Service) Import(_ context.Context, bundle []byte) (*models.SovereignData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := decompressBundle(bundle)
	if err != nil {
		return nil, err
	}
	rec := doc.Record
	if rec == nil || rec.ID == "" {
		return nil, fmt.Errorf("vaultservice: bundle has no record")
	}
	local, ok := rec.LocalHash()
	if !ok {
		return nil, fmt.Errorf("vaultservice: bundle record has no local hash")
	}

	if err := s.blobs.PutObject(local.Hash, doc.Content); err != nil {
		return nil, err
	}
	if doc.WrappedKey != nil && rec.EncryptionMetadata != nil {
		if err := s.blobs.PutKey(rec.EncryptionMetadata.KeyID, doc.WrappedKey); err != nil {
			return nil, err
		}
	}

	existing, getErr := s.db.GetData(rec.ID)
	isNew := errors.Is(getErr, apperr.ErrNotFound)
	if getErr == nil {
		rec.Version = existing.Version + 1
		if prior, ok := existing.LocalHash(); ok {
			rec.PreviousVersion = prior.Hash
		}
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := s.db.PutData(rec); err != nil {
		return nil, err
	}

	// Importing over an existing record can change its key id; drop the
	// wrapped key that no longer backs anything.
	if getErr == nil && existing.EncryptionMetadata != nil &&
		(rec.EncryptionMetadata == nil || existing.EncryptionMetadata.KeyID != rec.EncryptionMetadata.KeyID) {
		if err := s.blobs.DeleteKey(existing.EncryptionMetadata.KeyID); err != nil {
			return nil, err
		}
	}

	if isNew {
		if err := s.ident.UpdateStats(func(st *models.VaultStats) {
			st.TotalItems++
			st.TotalSize += local.Size
		}); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func compressBundle(doc bundleDoc) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: encode bundle: %w", err)
	}
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: xz writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("vaultservice: compress bundle: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("vaultservice: close bundle: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressBundle(bundle []byte) (*bundleDoc, error) {
	r, err := xz.NewReader(bytes.NewReader(bundle))
	if err != nil {
		return nil, fmt.Errorf("vaultservice: xz reader: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vaultservice: decompress bundle: %w", err)
	}
	var doc bundleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("vaultservice: decode bundle: %w", err)
	}
	return &doc, nil
}
