package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/models"
)

func newTestManager() *Manager {
	return NewManager(NewWallet(), nil, nil, nil, slog.Default())
}

func TestAddEntryAmountFallbackChain(t *testing.T) {
	manager := newTestManager()

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 0},
		"hotel", 0.5, "ada", "grand-plaza", "prov-1",
		map[string]any{"price": 25.0},
	)
	require.NoError(t, err)
	assert.Equal(t, 25.0, entry.Amount)
	assert.Equal(t, models.EntryStatusPending, entry.Status)
}

func TestAddEntryFallbackOrder(t *testing.T) {
	manager := newTestManager()

	tests := []struct {
		name     string
		snapshot *models.Snapshot
		details  map[string]any
		want     float64
	}{
		{"snapshot wins", &models.Snapshot{TxID: "a", Amount: 10}, map[string]any{"totalAmount": 99.0}, 10},
		{"totalAmount before price", &models.Snapshot{TxID: "b"}, map[string]any{"totalAmount": 30.0, "price": 99.0}, 30},
		{"baseAmount last", &models.Snapshot{TxID: "c"}, map[string]any{"baseAmount": 7.5}, 7.5},
		{"integer price accepted", &models.Snapshot{TxID: "d"}, map[string]any{"price": 25}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := manager.AddEntry(context.Background(), tt.snapshot, "hotel", 0, "ada", "", "", tt.details)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Amount)
		})
	}
}

func TestAddEntryRejectsNonPositiveAmount(t *testing.T) {
	manager := newTestManager()

	_, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 0},
		"hotel", 0, "ada", "", "",
		map[string]any{"price": -3.0},
	)
	require.ErrorIs(t, err, ErrNonPositiveAmount)
	assert.Empty(t, manager.Entries(), "rejected booking must create no entry")
}

func TestProcessPaymentHappyPath(t *testing.T) {
	manager := newTestManager()
	manager.Wallet().Credit("ada", 100)

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 40}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	ok, err := manager.ProcessPayment(context.Background(), entry, "ada")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.EntryStatusProcessed, entry.Status)
	assert.Equal(t, 60.0, manager.Wallet().Balance("ada"))
	assert.Equal(t, 40.0, manager.TotalProcessed())
}

func TestProcessPaymentIdempotentRetry(t *testing.T) {
	manager := newTestManager()
	manager.Wallet().Credit("ada", 100)

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 40}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	ok, err := manager.ProcessPayment(context.Background(), entry, "ada")
	require.NoError(t, err)
	require.True(t, ok)

	// Retrying the debit intent must not double-charge.
	require.NoError(t, manager.Wallet().Debit("ada", entry.TxID, entry.EntryID, entry.Amount))
	assert.Equal(t, 60.0, manager.Wallet().Balance("ada"))
}

func TestProcessPaymentInsufficientFunds(t *testing.T) {
	manager := newTestManager()
	manager.Wallet().Credit("ada", 10)

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 40}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	ok, err := manager.ProcessPayment(context.Background(), entry, "ada")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.EntryStatusFailed, entry.Status)
	assert.Equal(t, 10.0, manager.Wallet().Balance("ada"), "failed payment must not debit")
}

func TestCompleteBookingTerminal(t *testing.T) {
	manager := newTestManager()
	manager.Wallet().Credit("ada", 100)

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 40}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	_, err = manager.ProcessPayment(context.Background(), entry, "ada")
	require.NoError(t, err)

	require.NoError(t, manager.CompleteBooking(context.Background(), entry))
	assert.Equal(t, models.EntryStatusCompleted, entry.Status)

	err = manager.CompleteBooking(context.Background(), entry)
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)
}

func TestCompleteBookingRequiresProcessed(t *testing.T) {
	manager := newTestManager()

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 40}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	err = manager.CompleteBooking(context.Background(), entry)
	require.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	assert.Equal(t, models.EntryStatusPending, entry.Status)
}

func TestQueries(t *testing.T) {
	manager := newTestManager()

	_, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: 10}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	_, err = manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-2", Amount: 20}, "flight", 0, "bob", "", "", nil)
	require.NoError(t, err)

	assert.Len(t, manager.EntriesByPayer("ada"), 1)
	assert.Len(t, manager.EntriesByPayer("bob"), 1)
	assert.Empty(t, manager.EntriesByPayer("eve"))

	entry, ok := manager.EntryByTxID("tx-2")
	require.True(t, ok)
	assert.Equal(t, 20.0, entry.Amount)
}

func TestWalletDebitValidation(t *testing.T) {
	wallet := NewWallet()
	wallet.Credit("ada", 10)

	require.Error(t, wallet.Debit("ada", "tx", "entry", 0))
	require.Error(t, wallet.Debit("ada", "tx", "entry", -1))
	require.ErrorIs(t, wallet.Debit("ada", "tx", "entry", 11), ErrInsufficientFunds)
	assert.Equal(t, 10.0, wallet.Balance("ada"))
}
