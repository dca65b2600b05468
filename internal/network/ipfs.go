package network

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/starford/sovra/internal/models"
)

// IPFS is the reference IPFS adapter. It computes the genuine CIDv1
// (raw + sha2-256) the content would have on the network without talking
// to a gateway; a real client returns the same address after pinning.
type IPFS struct{}

// NewIPFS creates the reference IPFS adapter.
func NewIPFS() *IPFS {
	return &IPFS{}
}

// Name implements Adapter.
func (a *IPFS) Name() string {
	return models.NetworkIPFS
}

// Publish implements Adapter.
func (a *IPFS) Publish(_ context.Context, _ string, payload []byte) (models.ContentHash, error) {
	sum, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		return models.ContentHash{}, fmt.Errorf("network: ipfs multihash: %w", err)
	}
	return models.ContentHash{
		Hash:      cid.NewCidV1(cid.Raw, sum).String(),
		Algorithm: "sha256",
		Network:   models.NetworkIPFS,
		Size:      int64(len(payload)),
		Timestamp: time.Now().UTC(),
	}, nil
}
