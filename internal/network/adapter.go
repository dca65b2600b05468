// Package network defines the sync adapter contract and the reference
// adapters for each supported external network. Real protocol clients
// substitute cleanly by implementing Adapter; the core only depends on
// this one-call contract.
package network

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

// Adapter publishes locally encrypted content to one external network and
// returns that network's address for it.
type Adapter interface {
	Name() string
	Publish(ctx context.Context, dataID string, payload []byte) (models.ContentHash, error)
}

// Registry holds the configured adapters keyed by network name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// DefaultRegistry returns a registry with the reference adapters for all
// supported networks.
func DefaultRegistry() *Registry {
	return NewRegistry(NewIPFS(), NewArweave(), NewFilecoin())
}

// Get returns the adapter for network, or apperr.ErrUnsupportedNetwork
// naming the supported networks.
func (r *Registry) Get(network string) (Adapter, error) {
	a, ok := r.adapters[network]
	if !ok {
		return nil, fmt.Errorf("network %q (supported: %s): %w",
			network, strings.Join(r.Names(), ", "), apperr.ErrUnsupportedNetwork)
	}
	return a, nil
}

// Names returns the registered network names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
