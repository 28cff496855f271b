package file

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir(), slog.Default())
	require.NoError(t, err)

	return p
}

func TestDefinitionRoundTrip(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	def := &models.WorkflowDefinition{
		Name:        "hotel booking",
		ServiceType: "hotel",
		InitialStep: "query",
		Steps:       []*models.Step{{ID: "query", Type: models.StepTypeAction}},
		FinalSteps:  []string{"query"},
	}

	require.NoError(t, p.Definitions().Save(ctx, def))

	fetched, err := p.Definitions().FetchByServiceType(ctx, "hotel")
	require.NoError(t, err)
	assert.Equal(t, "hotel booking", fetched.Name)
	assert.Equal(t, "query", fetched.InitialStep)

	all, err := p.Definitions().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = p.Definitions().FetchByServiceType(ctx, "flight")
	require.ErrorIs(t, err, persistence.ErrDefinitionNotFound)
}

func TestLedgerRepository(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	entry := &models.LedgerEntry{
		EntryID: "entry-1", TxID: "tx-1", Payer: "ada",
		Amount: 40, Status: models.EntryStatusPending,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, p.LedgerEntries().Save(ctx, entry))

	// Upsert on status change.
	entry.Status = models.EntryStatusProcessed
	require.NoError(t, p.LedgerEntries().Save(ctx, entry))

	fetched, err := p.LedgerEntries().FetchByTxID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusProcessed, fetched.Status)

	byPayer, err := p.LedgerEntries().ListByPayer(ctx, "ada")
	require.NoError(t, err)
	assert.Len(t, byPayer, 1)

	byStatus, err := p.LedgerEntries().ListByStatus(ctx, models.EntryStatusProcessed)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	_, err = p.LedgerEntries().FetchByTxID(ctx, "tx-ghost")
	require.ErrorIs(t, err, persistence.ErrEntryNotFound)
}

func TestSnapshotLatestByProvider(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	older := &models.Snapshot{TxID: "tx-1", ProviderUUID: "prov-1", Amount: 10,
		Timestamp: time.Now().UTC().Add(-time.Hour)}
	newer := &models.Snapshot{TxID: "tx-2", ProviderUUID: "prov-1", Amount: 20,
		Timestamp: time.Now().UTC()}

	require.NoError(t, p.Snapshots().Save(ctx, older))
	require.NoError(t, p.Snapshots().Save(ctx, newer))

	latest, err := p.Snapshots().LatestByProvider(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-2", latest.TxID)

	_, err = p.Snapshots().LatestByProvider(ctx, "prov-ghost")
	require.ErrorIs(t, err, persistence.ErrSnapshotNotFound)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)
	require.NoError(t, p.HealthCheck(context.Background()))
	require.NoError(t, p.Close(context.Background()))
}
