package blobstore

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

const testHash = "9b74c9897bac770ffc029102a200c5de9b74c9897bac770ffc029102a200c5de"

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestObjectRoundTrip(t *testing.T) {
	s := tempStore(t)
	enc := &models.EncryptedContent{
		Ciphertext: []byte("ciphertext"),
		Algorithm:  "aes-256-gcm",
		IV:         []byte("0123456789abcdef"),
		AuthTag:    []byte("tag"),
	}
	require.NoError(t, s.PutObject(testHash, enc))

	got, err := s.GetObject(testHash)
	require.NoError(t, err)
	assert.Equal(t, enc, got)
}

func TestGetObjectNotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.GetObject(strings.Repeat("ab", 32))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteObjectIdempotent(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.PutObject(testHash, &models.EncryptedContent{Ciphertext: []byte("x")}))
	require.NoError(t, s.DeleteObject(testHash))
	// Second delete of a missing object still succeeds.
	require.NoError(t, s.DeleteObject(testHash))
	_, err := s.GetObject(testHash)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestKeyRoundTripAndPermissions(t *testing.T) {
	s := tempStore(t)
	keyID := "00112233aabbccdd"
	wrapped := &models.EncryptedContent{
		Ciphertext: []byte("wrapped-key"),
		Algorithm:  "aes-256-gcm",
		KeyDerivation: &models.KeyDerivation{
			Algorithm:  "pbkdf2-sha512",
			Salt:       []byte("salt"),
			Iterations: 120000,
		},
	}
	require.NoError(t, s.PutKey(keyID, wrapped))

	got, err := s.GetKey(keyID)
	require.NoError(t, err)
	assert.Equal(t, wrapped, got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(s.Root(), "keys", keyID+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestRejectsInvalidNames(t *testing.T) {
	s := tempStore(t)
	for _, name := range []string{
		"",
		"short",
		"../../../etc/passwd",
		"ABCDEF0123456789", // uppercase
		strings.Repeat("zz", 16),
	} {
		err := s.PutObject(name, &models.EncryptedContent{})
		assert.Error(t, err, "name %q", name)
	}
}
