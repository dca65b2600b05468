// Package blobstore is the on-disk content-addressed store: encrypted
// blobs keyed by content hash and wrapped data keys keyed by key id.
package blobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

const (
	objectsDir = "objects"
	keysDir    = "keys"
)

// Store is a file-system backed blob and key store rooted at one directory.
type Store struct {
	root string // absolute path to the vault data directory
}

// New creates a Store rooted at the given directory, creating the blob and
// key subdirectories if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blobstore: resolve root: %w", err)
	}
	for _, sub := range []string{objectsDir, keysDir} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, fmt.Errorf("blobstore: mkdir %s: %w", sub, err)
		}
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute data directory.
func (s *Store) Root() string {
	return s.root
}

// PutObject persists an encrypted blob under its content hash.
func (s *Store) PutObject(hash string, enc *models.EncryptedContent) error {
	path, err := s.entryPath(objectsDir, hash)
	if err != nil {
		return err
	}
	return writeJSONAtomic(path, enc, 0o644)
}

// GetObject loads the encrypted blob stored under hash.
func (s *Store) GetObject(hash string) (*models.EncryptedContent, error) {
	path, err := s.entryPath(objectsDir, hash)
	if err != nil {
		return nil, err
	}
	return readEnvelope(path, "object", hash)
}

// DeleteObject removes the blob for hash. Missing blobs are tolerated;
// delete is best-effort cleanup.
func (s *Store) DeleteObject(hash string) error {
	path, err := s.entryPath(objectsDir, hash)
	if err != nil {
		return err
	}
	return removeTolerant(path)
}

// PutKey persists a wrapped data key with owner-only permissions.
func (s *Store) PutKey(keyID string, wrapped *models.EncryptedContent) error {
	path, err := s.entryPath(keysDir, keyID)
	if err != nil {
		return err
	}
	return writeJSONAtomic(path, wrapped, 0o600)
}

// GetKey loads the wrapped data key stored under keyID.
func (s *Store) GetKey(keyID string) (*models.EncryptedContent, error) {
	path, err := s.entryPath(keysDir, keyID)
	if err != nil {
		return nil, err
	}
	return readEnvelope(path, "key", keyID)
}

// DeleteKey removes the wrapped key for keyID, tolerating a missing file.
func (s *Store) DeleteKey(keyID string) error {
	path, err := s.entryPath(keysDir, keyID)
	if err != nil {
		return err
	}
	return removeTolerant(path)
}

// entryPath resolves a hex name inside sub and rejects anything that could
// escape the store root (directory traversal).
func (s *Store) entryPath(sub, name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("blobstore: invalid entry name %q", name)
	}
	return filepath.Join(s.root, sub, name+".json"), nil
}

// validName accepts lowercase hex digests only; everything the store files
// by name is a hash or key id.
func validName(name string) bool {
	if len(name) < 16 || len(name) > 128 {
		return false
	}
	for _, c := range name {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// writeJSONAtomic writes v as JSON: tmp file → fsync → rename.
func writeJSONAtomic(path string, v any, mode fs.FileMode) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("blobstore: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sovra-tmp-*")
	if err != nil {
		return fmt.Errorf("blobstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("blobstore: chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("blobstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("blobstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blobstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("blobstore: rename: %w", err)
	}
	success = true
	return nil
}

func readEnvelope(path, kind, name string) (*models.EncryptedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blobstore: %s %s: %w", kind, name, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("blobstore: read %s %s: %w", kind, name, err)
	}
	var enc models.EncryptedContent
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("blobstore: decode %s %s: %w", kind, name, err)
	}
	return &enc, nil
}

func removeTolerant(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blobstore: delete: %w", err)
	}
	return nil
}
