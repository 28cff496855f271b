// Package persistence defines the storage contracts shared by the file and
// postgres implementations.
package persistence

import (
	"context"

	"github.com/gardenlabs/bazaar/pkg/models"
)

type Persistence interface {
	Definitions() DefinitionRepository
	LedgerEntries() LedgerRepository
	Snapshots() SnapshotRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// DefinitionRepository stores workflow definitions keyed by service type.
type DefinitionRepository interface {
	Save(ctx context.Context, def *models.WorkflowDefinition) error
	FetchByServiceType(ctx context.Context, serviceType string) (*models.WorkflowDefinition, error)
	All(ctx context.Context) ([]*models.WorkflowDefinition, error)
}

// LedgerRepository mirrors the in-memory ledger. Save upserts by entry id so
// status flips on the payment path reuse it.
type LedgerRepository interface {
	Save(ctx context.Context, entry *models.LedgerEntry) error
	FetchByTxID(ctx context.Context, txID string) (*models.LedgerEntry, error)
	ListByPayer(ctx context.Context, payer string) ([]*models.LedgerEntry, error)
	ListByStatus(ctx context.Context, status models.EntryStatus) ([]*models.LedgerEntry, error)
}

type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *models.Snapshot) error
	FetchByTxID(ctx context.Context, txID string) (*models.Snapshot, error)
	LatestByProvider(ctx context.Context, providerUUID string) (*models.Snapshot, error)
}
