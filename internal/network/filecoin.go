package network

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/starford/sovra/internal/models"
)

// Filecoin is the reference Filecoin adapter. It produces a CIDv1 under
// the Filecoin unsealed-commitment codec over a plain sha2-256 multihash;
// a real client would compute the padded piece commitment during deal
// making.
type Filecoin struct{}

// NewFilecoin creates the reference Filecoin adapter.
func NewFilecoin() *Filecoin {
	return &Filecoin{}
}

// Name implements Adapter.
func (a *Filecoin) Name() string {
	return models.NetworkFilecoin
}

// Publish implements Adapter.
func (a *Filecoin) Publish(_ context.Context, _ string, payload []byte) (models.ContentHash, error) {
	sum, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		return models.ContentHash{}, fmt.Errorf("network: filecoin multihash: %w", err)
	}
	return models.ContentHash{
		Hash:      cid.NewCidV1(cid.FilCommitmentUnsealed, sum).String(),
		Algorithm: "sha256",
		Network:   models.NetworkFilecoin,
		Size:      int64(len(payload)),
		Timestamp: time.Now().UTC(),
	}, nil
}
