package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

var shareInfo = []byte("sovra/share/v1")

// WrapKey encrypts dataKey under a key derived from secret with a fresh
// random salt. The KDF parameters are recorded in the envelope so UnwrapKey
// can reverse it.
func WrapKey(dataKey, secret []byte) (*models.EncryptedContent, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("envelope: generate salt: %w", err)
	}
	kek := DeriveKey(secret, salt)
	enc, err := Encrypt(dataKey, kek)
	if err != nil {
		return nil, err
	}
	enc.KeyDerivation = &models.KeyDerivation{
		Algorithm:  KDFAlgorithm,
		Salt:       salt,
		Iterations: KDFIterations,
	}
	return enc, nil
}

// UnwrapKey reverses WrapKey using the recorded KDF parameters.
func UnwrapKey(wrapped *models.EncryptedContent, secret []byte) ([]byte, error) {
	if wrapped.KeyDerivation == nil {
		return nil, fmt.Errorf("envelope: wrapped key missing derivation parameters: %w", apperr.ErrCryptoFailure)
	}
	kek := DeriveKey(secret, wrapped.KeyDerivation.Salt)
	return Decrypt(wrapped, kek)
}

// WrapForRecipient seals dataKey for the holder of recipientPublicKey
// (a 32-byte X25519 public key): ephemeral X25519 agreement, HKDF-SHA256,
// AES-256-GCM. Only the matching private key can unwrap.
func WrapForRecipient(dataKey, recipientPublicKey []byte) (*models.SealedKey, error) {
	if len(recipientPublicKey) != curve25519.PointSize {
		return nil, fmt.Errorf("envelope: recipient public key must be %d bytes, got %d: %w",
			curve25519.PointSize, len(recipientPublicKey), apperr.ErrCryptoFailure)
	}

	ephPriv := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(ephPriv); err != nil {
		return nil, fmt.Errorf("envelope: generate ephemeral key: %w", err)
	}
	ephPub, err := curve25519.X25519(ephPriv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("envelope: ephemeral public key: %w", err)
	}

	kek, err := agreeKey(ephPriv, recipientPublicKey, ephPub, recipientPublicKey)
	if err != nil {
		return nil, err
	}
	enc, err := Encrypt(dataKey, kek)
	if err != nil {
		return nil, err
	}
	return &models.SealedKey{
		EphemeralPublicKey: ephPub,
		IV:                 enc.IV,
		Ciphertext:         enc.Ciphertext,
		AuthTag:            enc.AuthTag,
	}, nil
}

// UnwrapFromSender opens a SealedKey with the recipient's X25519 private key.
func UnwrapFromSender(sealed *models.SealedKey, recipientPrivateKey []byte) ([]byte, error) {
	recipientPub, err := curve25519.X25519(recipientPrivateKey, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("envelope: recipient public key: %w", err)
	}
	kek, err := agreeKey(recipientPrivateKey, sealed.EphemeralPublicKey, sealed.EphemeralPublicKey, recipientPub)
	if err != nil {
		return nil, err
	}
	return Decrypt(&models.EncryptedContent{
		Ciphertext: sealed.Ciphertext,
		Algorithm:  AlgorithmAESGCM,
		IV:         sealed.IV,
		AuthTag:    sealed.AuthTag,
	}, kek)
}

// GenerateRecipientKeyPair returns a fresh X25519 keypair for sharing.
func GenerateRecipientKeyPair() (priv, pub []byte, err error) {
	priv = make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(priv); err != nil {
		return nil, nil, fmt.Errorf("envelope: generate recipient key: %w", err)
	}
	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("envelope: recipient public key: %w", err)
	}
	return priv, pub, nil
}

// agreeKey derives the shared wrap key. The HKDF salt binds both public
// keys so the key is unique per (ephemeral, recipient) pair.
func agreeKey(priv, pub, ephPub, recipientPub []byte) ([]byte, error) {
	shared, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, fmt.Errorf("envelope: key agreement: %w", apperr.ErrCryptoFailure)
	}
	salt := make([]byte, 0, len(ephPub)+len(recipientPub))
	salt = append(salt, ephPub...)
	salt = append(salt, recipientPub...)

	kek := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, shareInfo), kek); err != nil {
		return nil, fmt.Errorf("envelope: hkdf: %w", err)
	}
	return kek, nil
}
