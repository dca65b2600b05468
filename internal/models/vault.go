// Package models defines the domain types for Sovra.
package models

import "time"

// Network names understood by the vault. "local" is always present;
// the others require a registered sync adapter.
const (
	NetworkLocal    = "local"
	NetworkIPFS     = "ipfs"
	NetworkArweave  = "arweave"
	NetworkFilecoin = "filecoin"
)

// Visibility levels for stored data.
const (
	VisibilityPrivate     = "private"
	VisibilityShared      = "shared"
	VisibilityPublic      = "public"
	VisibilityMarketplace = "marketplace"
)

// Vault is the single per-installation identity and configuration record.
// Private key material is never part of this record; it lives in a
// restricted-permission file managed by the identity package.
type Vault struct {
	DID           string          `json:"did"`
	PublicKey     string          `json:"publicKey"`
	StorageConfig []StorageConfig `json:"storageConfig"`
	Defaults      VaultDefaults   `json:"defaults"`
	Policies      VaultPolicies   `json:"policies"`
	Stats         VaultStats      `json:"stats"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// StorageConfig is the per-network replication configuration.
type StorageConfig struct {
	Network            string `json:"network"`
	Enabled            bool   `json:"enabled"`
	AutoSync           bool   `json:"autoSync"`
	EncryptionRequired bool   `json:"encryptionRequired"`
}

// VaultDefaults are applied to newly stored data when the caller does not
// override them.
type VaultDefaults struct {
	Visibility       string `json:"visibility"`
	StorageTier      string `json:"storageTier"`
	ReplicationCount int    `json:"replicationCount"`
}

// VaultPolicies gates every path that can move data off the device.
type VaultPolicies struct {
	Training PolicyRule `json:"training"`
	Outbound PolicyRule `json:"outbound"`
}

// PolicyRule is one consent/payment requirement pair.
type PolicyRule struct {
	RequireConsent bool `json:"requireConsent"`
	RequirePayment bool `json:"requirePayment"`
}

// VaultStats are best-effort counters; they are not transactional with the
// index (an interrupted store can leave them out of sync).
type VaultStats struct {
	TotalItems   int            `json:"totalItems"`
	TotalSize    int64          `json:"totalSize"`
	TotalRevenue float64        `json:"totalRevenue"`
	NetworkUsage []NetworkUsage `json:"networkUsage"`
}

// NetworkUsage tracks how many items have been replicated to one network.
type NetworkUsage struct {
	Network string `json:"network"`
	Items   int    `json:"items"`
	Bytes   int64  `json:"bytes"`
}

// DefaultPolicies returns the policy set applied to a fresh vault and
// backfilled onto vaults persisted before a policy field existed.
func DefaultPolicies() VaultPolicies {
	return VaultPolicies{
		Training: PolicyRule{RequireConsent: true, RequirePayment: false},
		Outbound: PolicyRule{RequireConsent: true, RequirePayment: true},
	}
}

// DefaultVaultDefaults returns the storage defaults for a fresh vault.
func DefaultVaultDefaults() VaultDefaults {
	return VaultDefaults{
		Visibility:       VisibilityPrivate,
		StorageTier:      "standard",
		ReplicationCount: 1,
	}
}

// DefaultStorageConfig enables local storage only; external networks are
// opt-in via enable-network.
func DefaultStorageConfig() []StorageConfig {
	return []StorageConfig{
		{Network: NetworkLocal, Enabled: true, AutoSync: true, EncryptionRequired: true},
		{Network: NetworkIPFS, Enabled: false, AutoSync: false, EncryptionRequired: true},
		{Network: NetworkArweave, Enabled: false, AutoSync: false, EncryptionRequired: true},
		{Network: NetworkFilecoin, Enabled: false, AutoSync: false, EncryptionRequired: true},
	}
}
