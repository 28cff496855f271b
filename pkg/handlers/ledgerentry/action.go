// Package ledgerentry implements the booking action that records a
// transaction in the ledger.
package ledgerentry

import (
	"context"
	"log/slog"

	"github.com/gardenlabs/bazaar/pkg/ledger"
	"github.com/gardenlabs/bazaar/pkg/models"
)

type Action struct {
	ledger *ledger.Manager
}

func NewAction(manager *ledger.Manager) (*Action, error) {
	return &Action{ledger: manager}, nil
}

// Execute builds a snapshot from the action params and books it. The
// ledger's amount invariant propagates as an action failure, which keeps
// zero-value bookings out of the run entirely.
func (a *Action) Execute(ctx context.Context, executionCtx *models.ExecutionContext, params map[string]any, logger *slog.Logger) (map[string]any, error) {
	snapshot := &models.Snapshot{}

	if txID, ok := params["tx_id"].(string); ok {
		snapshot.TxID = txID
	}

	if amount, ok := floatParam(params["amount"]); ok {
		snapshot.Amount = amount
	}

	serviceType, _ := params["service_type"].(string)
	if serviceType == "" {
		serviceType = executionCtx.ServiceType
	}

	iGasCost, _ := floatParam(params["igas_cost"])

	payer := stringParam(params, executionCtx, "payer")
	merchant := stringParam(params, executionCtx, "merchant")
	providerUUID, _ := params["provider_uuid"].(string)

	if providerUUID == "" {
		if value, ok := executionCtx.Get("providerUuid"); ok {
			providerUUID, _ = value.(string)
		}
	}

	details, _ := params["booking_details"].(map[string]any)
	if details == nil {
		if value, ok := executionCtx.Get("booking"); ok {
			details, _ = value.(map[string]any)
		}
	}

	entry, err := a.ledger.AddEntry(ctx, snapshot, serviceType, iGasCost, payer, merchant, providerUUID, details)
	if err != nil {
		return nil, err
	}

	logger.Info("ledger entry action completed", "entry_id", entry.EntryID, "tx_id", entry.TxID)

	return map[string]any{
		"ledgerEntry": map[string]any{
			"entry_id": entry.EntryID,
			"tx_id":    entry.TxID,
			"amount":   entry.Amount,
			"status":   string(entry.Status),
		},
		"entryId": entry.EntryID,
		"txId":    entry.TxID,
		"amount":  entry.Amount,
	}, nil
}

func stringParam(params map[string]any, executionCtx *models.ExecutionContext, key string) string {
	if value, ok := params[key].(string); ok && value != "" {
		return value
	}

	if value, ok := executionCtx.Get(key); ok {
		if typed, ok := value.(string); ok {
			return typed
		}
	}

	return ""
}

func floatParam(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}
