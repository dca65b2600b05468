// Package envelope implements the cryptographic envelope: data key
// generation, AEAD encryption, content hashing, and key derivation.
// All functions are pure; no I/O happens here.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

const (
	// KeySize is the data key length in bytes (AES-256).
	KeySize = 32
	// IVSize is the AEAD nonce length in bytes.
	IVSize = 16
	// AlgorithmAESGCM names the AEAD cipher used for all envelopes.
	AlgorithmAESGCM = "aes-256-gcm"
	// KDFAlgorithm names the slow KDF used for key wrapping.
	KDFAlgorithm = "pbkdf2-sha512"
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations = 120_000
	// SaltSize is the wrap salt length in bytes.
	SaltSize = 16

	keyIDLen = 16
)

// GenerateDataKey returns a fresh 256-bit data key and its key id: the
// first 16 hex characters of SHA-256(key).
func GenerateDataKey() (key []byte, keyID string, err error) {
	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, "", fmt.Errorf("envelope: generate key: %w", err)
	}
	sum := sha256.Sum256(key)
	return key, hex.EncodeToString(sum[:])[:keyIDLen], nil
}

// Encrypt seals plaintext under key with AES-256-GCM and a random 128-bit
// IV. A key of the wrong length is a programming error and panics.
func Encrypt(plaintext, key []byte) (*models.EncryptedContent, error) {
	gcm := mustGCM(key)

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("envelope: generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	tagStart := len(sealed) - gcm.Overhead()
	return &models.EncryptedContent{
		Ciphertext: sealed[:tagStart],
		Algorithm:  AlgorithmAESGCM,
		IV:         iv,
		AuthTag:    sealed[tagStart:],
	}, nil
}

// Decrypt opens an envelope. A failed authentication tag (tamper or wrong
// key) returns an error wrapping apperr.ErrCryptoFailure; callers must not
// swallow it.
func Decrypt(enc *models.EncryptedContent, key []byte) ([]byte, error) {
	if enc.Algorithm != AlgorithmAESGCM {
		return nil, fmt.Errorf("envelope: unsupported algorithm %q: %w", enc.Algorithm, apperr.ErrCryptoFailure)
	}
	gcm := mustGCM(key)
	if len(enc.IV) != IVSize {
		return nil, fmt.Errorf("envelope: bad iv length %d: %w", len(enc.IV), apperr.ErrCryptoFailure)
	}

	sealed := make([]byte, 0, len(enc.Ciphertext)+len(enc.AuthTag))
	sealed = append(sealed, enc.Ciphertext...)
	sealed = append(sealed, enc.AuthTag...)

	plaintext, err := gcm.Open(nil, enc.IV, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("envelope: authentication failed: %w", apperr.ErrCryptoFailure)
	}
	return plaintext, nil
}

// Hash returns the hex digest of data. Supported algorithms are "sha256"
// (the default when algorithm is empty) and "sha512".
func Hash(data []byte, algorithm string) (string, error) {
	switch algorithm {
	case "", "sha256":
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case "sha512":
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("envelope: unsupported hash algorithm %q", algorithm)
	}
}

// DeriveKey stretches secret into a 256-bit key with PBKDF2-HMAC-SHA512.
func DeriveKey(secret, salt []byte) []byte {
	return pbkdf2.Key(secret, salt, KDFIterations, KeySize, sha512.New)
}

// mustGCM builds the AEAD or panics on a malformed key length.
func mustGCM(key []byte) cipher.AEAD {
	if len(key) != KeySize {
		panic(fmt.Sprintf("envelope: data key must be %d bytes, got %d", KeySize, len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(fmt.Sprintf("envelope: %v", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		panic(fmt.Sprintf("envelope: %v", err))
	}
	return gcm
}
