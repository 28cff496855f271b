package payment

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/models"
)

func bookEntry(t *testing.T, manager *ledger.Manager, amount float64) *models.LedgerEntry {
	t.Helper()

	entry, err := manager.AddEntry(context.Background(),
		&models.Snapshot{TxID: "tx-1", Amount: amount}, "hotel", 0, "ada", "", "", nil)
	require.NoError(t, err)

	return entry
}

func TestPaymentAction(t *testing.T) {
	manager := ledger.NewManager(ledger.NewWallet(), nil, nil, nil, slog.Default())
	manager.Wallet().Credit("ada", 100)
	bookEntry(t, manager, 40)

	action, err := NewAction(manager)
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", map[string]any{"txId": "tx-1"})

	result, err := action.Execute(context.Background(), ctx, map[string]any{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, true, result["paymentProcessed"])
	assert.Equal(t, "processed", result["entryStatus"])
}

func TestPaymentActionInsufficientFundsIsBusinessOutcome(t *testing.T) {
	manager := ledger.NewManager(ledger.NewWallet(), nil, nil, nil, slog.Default())
	bookEntry(t, manager, 40)

	action, err := NewAction(manager)
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	result, err := action.Execute(context.Background(), ctx, map[string]any{"tx_id": "tx-1"}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, false, result["paymentProcessed"])
	assert.Equal(t, "failed", result["entryStatus"])
}

func TestPaymentActionUnknownEntryFails(t *testing.T) {
	manager := ledger.NewManager(ledger.NewWallet(), nil, nil, nil, slog.Default())

	action, err := NewAction(manager)
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	_, err = action.Execute(context.Background(), ctx, map[string]any{"tx_id": "tx-ghost"}, slog.Default())
	require.ErrorIs(t, err, ErrEntryNotFound)
}
