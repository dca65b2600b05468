package index

import "github.com/starford/sovra/internal/models"

// Store defines the persistence operations the vault depends on.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	GetVault() (*models.Vault, error)
	PutVault(v *models.Vault) error

	PutData(d *models.SovereignData) error
	GetData(id string) (*models.SovereignData, error)
	DeleteData(id string) error
	ListData(f DataFilter) ([]models.SovereignData, error)

	PutJob(j *models.OutboxJob) error
	GetJob(id string) (*models.OutboxJob, error)
	ListJobs() ([]models.OutboxJob, error)

	AppendAudit(e *models.PolicyAuditEvent) error
	ListAudit() ([]models.PolicyAuditEvent, error)

	PutListing(l *models.DataListing) error
	GetListing(id string) (*models.DataListing, error)
	ListListings() ([]models.DataListing, error)
	PutPurchase(p *models.DataPurchase) error
	ListPurchases() ([]models.DataPurchase, error)

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
