package network

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/starford/sovra/internal/models"
)

// Arweave is the reference Arweave adapter. Transaction ids on Arweave are
// base64url digests; the reference producer derives one from the payload
// so the address is stable across retries.
type Arweave struct{}

// NewArweave creates the reference Arweave adapter.
func NewArweave() *Arweave {
	return &Arweave{}
}

// Name implements Adapter.
func (a *Arweave) Name() string {
	return models.NetworkArweave
}

// Publish implements Adapter.
func (a *Arweave) Publish(_ context.Context, _ string, payload []byte) (models.ContentHash, error) {
	sum := sha256.Sum256(payload)
	return models.ContentHash{
		Hash:      base64.RawURLEncoding.EncodeToString(sum[:]),
		Algorithm: "sha256",
		Network:   models.NetworkArweave,
		Size:      int64(len(payload)),
		Timestamp: time.Now().UTC(),
	}, nil
}
