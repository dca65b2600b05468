package models

import "time"

// Replication statuses.
const (
	ReplicationPending = "pending"
	ReplicationSynced  = "synced"
	ReplicationFailed  = "failed"
)

// SovereignData is the index record for one stored artifact. The id is the
// first 16 hex characters of the SHA-256 of the plaintext. It is a lookup
// key, not a commitment to the stored ciphertext.
type SovereignData struct {
	ID                 string              `json:"id"`
	Hashes             []ContentHash       `json:"hashes"`
	PrimaryNetwork     string              `json:"primaryNetwork"`
	Replication        []ReplicationState  `json:"replication"`
	Encrypted          bool                `json:"encrypted"`
	EncryptionMetadata *EncryptionMetadata `json:"encryptionMetadata,omitempty"`
	DataType           string              `json:"dataType"`
	Visibility         string              `json:"visibility"`
	Owner              Owner               `json:"owner"`
	Version            int                 `json:"version"`
	PreviousVersion    string              `json:"previousVersion,omitempty"`
	Metadata           Metadata            `json:"metadata"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// LocalHash returns the "local" content hash entry, if present.
func (d *SovereignData) LocalHash() (ContentHash, bool) {
	for _, h := range d.Hashes {
		if h.Network == NetworkLocal {
			return h, true
		}
	}
	return ContentHash{}, false
}

// HasNetwork reports whether the content has a hash on the given network.
func (d *SovereignData) HasNetwork(network string) bool {
	for _, h := range d.Hashes {
		if h.Network == network {
			return true
		}
	}
	return false
}

// ContentHash is one network-specific address of the content.
type ContentHash struct {
	Hash      string    `json:"hash"`
	Algorithm string    `json:"algorithm"`
	Network   string    `json:"network"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplicationState tracks per-network sync progress.
type ReplicationState struct {
	Network  string     `json:"network"`
	Status   string     `json:"status"`
	LastSync *time.Time `json:"lastSync,omitempty"`
	Pinned   bool       `json:"pinned,omitempty"`
}

// EncryptionMetadata describes how the artifact is encrypted and who holds
// a wrapped copy of its data key.
type EncryptionMetadata struct {
	Algorithm  string   `json:"algorithm"`
	KeyID      string   `json:"keyId"`
	SharedWith []string `json:"sharedWith"`
}

// Owner identifies and signs for the vault owner.
type Owner struct {
	DID       string `json:"did"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// Metadata is caller-supplied descriptive data plus consent state.
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	License     *License `json:"license,omitempty"`
	Pricing     *Pricing `json:"pricing,omitempty"`
	Consent     Consent  `json:"consent"`
}

// License declares what a consumer may and may not do with the data.
type License struct {
	Name         string   `json:"name,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

// Pricing is the asking price when the data is listed.
type Pricing struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Consent records the owner's explicit grants per data use.
type Consent struct {
	Training ConsentGrant `json:"training"`
	Outbound ConsentGrant `json:"outbound"`
}

// ConsentGrant is one recorded grant, optionally backed by a payment.
type ConsentGrant struct {
	Granted       bool      `json:"granted"`
	GrantedAt     time.Time `json:"grantedAt,omitempty"`
	PaymentTxHash string    `json:"paymentTxHash,omitempty"`
}

// EncryptedContent is the AEAD envelope for one blob. Immutable once written.
type EncryptedContent struct {
	Ciphertext    []byte         `json:"ciphertext"`
	Algorithm     string         `json:"algorithm"`
	IV            []byte         `json:"iv"`
	AuthTag       []byte         `json:"authTag,omitempty"`
	KeyDerivation *KeyDerivation `json:"keyDerivation,omitempty"`
}

// KeyDerivation records the KDF parameters used to wrap a key so the wrap
// can be reversed later.
type KeyDerivation struct {
	Algorithm  string `json:"algorithm"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
}

// SealedKey is a data key wrapped for a specific recipient via X25519
// agreement. The ephemeral public key travels with the ciphertext.
type SealedKey struct {
	EphemeralPublicKey []byte `json:"ephemeralPublicKey"`
	IV                 []byte `json:"iv"`
	Ciphertext         []byte `json:"ciphertext"`
	AuthTag            []byte `json:"authTag"`
}

// SharePackage is the portable result of sharing an artifact with a
// recipient: everything they need besides their own private key.
type SharePackage struct {
	DataHash           string     `json:"dataHash"`
	RecipientPublicKey string     `json:"recipientPublicKey"`
	Permissions        []string   `json:"permissions"`
	EncryptedKey       *SealedKey `json:"encryptedKey"`
}
