package trade

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/models"
)

func testEngine() *amm.Engine {
	engine := amm.NewEngine(amm.LookupStrict, nil, slog.Default())
	engine.AddPool(&models.Pool{
		PoolID:       "HOTEL",
		TokenReserve: 100000,
		BaseReserve:  100,
	})

	return engine
}

func TestTradeAction(t *testing.T) {
	action, err := NewAction(testEngine())
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", map[string]any{"payer": "ada"})

	result, err := action.Execute(context.Background(), ctx, map[string]any{
		"pool_id":      "HOTEL",
		"side":         "BUY",
		"token_amount": 1000.0,
	}, slog.Default())
	require.NoError(t, err)

	baseAmount, ok := result["baseAmount"].(float64)
	require.True(t, ok)
	assert.Greater(t, baseAmount, 1.0)

	pool, ok := result["pool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 99000.0, pool["token_reserve"])
}

func TestTradeActionPoolFromContext(t *testing.T) {
	action, err := NewAction(testEngine())
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", map[string]any{
		"poolId": "HOTEL",
		"payer":  "ada",
	})

	_, err = action.Execute(context.Background(), ctx, map[string]any{
		"token_amount": 10.0,
	}, slog.Default())
	require.NoError(t, err)
}

func TestTradeActionMissingParams(t *testing.T) {
	action, err := NewAction(testEngine())
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	_, err = action.Execute(context.Background(), ctx, map[string]any{
		"token_amount": 10.0,
	}, slog.Default())
	require.ErrorIs(t, err, ErrMissingTradeParams)

	_, err = action.Execute(context.Background(), ctx, map[string]any{
		"pool_id": "HOTEL",
	}, slog.Default())
	require.ErrorIs(t, err, ErrMissingTradeParams)
}

func TestTradeActionValidationErrorSurfaces(t *testing.T) {
	action, err := NewAction(testEngine())
	require.NoError(t, err)

	ctx := models.NewExecutionContext("exec-1", "hotel", nil)

	_, err = action.Execute(context.Background(), ctx, map[string]any{
		"pool_id":      "HOTEL",
		"token_amount": 100000.0,
	}, slog.Default())
	require.ErrorIs(t, err, amm.ErrInsufficientTokenReserve)
}
