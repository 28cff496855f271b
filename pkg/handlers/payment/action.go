// Package payment implements the payer debit action.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/models"
)

var ErrEntryNotFound = errors.New("ledger entry not found for payment")

type Action struct {
	ledger *ledger.Manager
}

func NewAction(manager *ledger.Manager) (*Action, error) {
	return &Action{ledger: manager}, nil
}

// Execute debits the payer for the entry booked earlier in the run.
// Insufficient funds is a business outcome, contributed to the context for
// transition routing; validation problems fail the action.
func (a *Action) Execute(ctx context.Context, executionCtx *models.ExecutionContext, params map[string]any, logger *slog.Logger) (map[string]any, error) {
	txID, _ := params["tx_id"].(string)
	if txID == "" {
		if value, ok := executionCtx.Get("txId"); ok {
			txID, _ = value.(string)
		}
	}

	entry, ok := a.ledger.EntryByTxID(txID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, txID)
	}

	user, _ := params["user"].(string)
	if user == "" {
		user = entry.Payer
	}

	processed, err := a.ledger.ProcessPayment(ctx, entry, user)
	if err != nil {
		return nil, err
	}

	logger.Info("payment action completed", "tx_id", txID, "processed", processed)

	return map[string]any{
		"paymentProcessed": processed,
		"entryStatus":      string(entry.Status),
	}, nil
}
