package amm

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardenlabs/bazaar/pkg/models"
)

func newTestEngine(mode LookupMode) *Engine {
	return NewEngine(mode, nil, slog.Default())
}

func seedPool() *models.Pool {
	return &models.Pool{
		PoolID:        "HOTEL",
		TokenSymbol:   "HOTEL",
		BaseToken:     "IGAS",
		TokenReserve:  100000,
		BaseReserve:   100,
		PoolLiquidity: 100,
	}
}

func TestBuyTradeMath(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	trade, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 1000, "ada")
	require.NoError(t, err)

	expectedBase := 100.0 * 1000.0 / 99000.0 * (1 + PriceImpactPerTrade)
	assert.InDelta(t, expectedBase, trade.BaseAmount, 1e-12)
	assert.InDelta(t, trade.BaseAmount*ITaxRate, trade.ITax, 1e-12)

	pool, ok := engine.Pool("HOTEL")
	require.True(t, ok)
	assert.Equal(t, 99000.0, pool.TokenReserve)
	assert.Equal(t, pool.BaseReserve/pool.TokenReserve, trade.Price)
	assert.Equal(t, pool.Price, trade.Price)
	assert.Equal(t, int64(1), pool.TotalTrades)
}

func TestBuyRejectsReserveExhaustion(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	_, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 100000, "ada")
	require.ErrorIs(t, err, ErrInsufficientTokenReserve)

	// A rejected trade must not touch the pool.
	pool, _ := engine.Pool("HOTEL")
	assert.Equal(t, 100000.0, pool.TokenReserve)
	assert.Equal(t, 100.0, pool.BaseReserve)
	assert.Equal(t, int64(0), pool.TotalTrades)
}

func TestTradeRejectsNonPositiveAmount(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	_, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 0, "ada")
	require.ErrorIs(t, err, ErrNonPositiveTokenAmount)

	_, err = engine.Trade(context.Background(), "HOTEL", models.TradeSideSell, -5, "ada")
	require.ErrorIs(t, err, ErrNonPositiveTokenAmount)
}

func TestRoundTripExtractsValue(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	before, _ := engine.Pool("HOTEL")

	_, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 1000, "ada")
	require.NoError(t, err)

	_, err = engine.Trade(context.Background(), "HOTEL", models.TradeSideSell, 1000, "ada")
	require.NoError(t, err)

	after, _ := engine.Pool("HOTEL")
	assert.Less(t, after.BaseReserve, before.BaseReserve,
		"a buy/sell round trip must extract value from the pool")
	assert.Equal(t, before.TokenReserve, after.TokenReserve)
}

func TestTaxSplitAndGlobalLiquidity(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	trade, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 1000, "ada")
	require.NoError(t, err)

	total := trade.FeeSplit["rootCA"] + trade.FeeSplit["indexer"] + trade.FeeSplit["trader"]
	assert.InDelta(t, trade.ITax, total, 1e-12)
	assert.InDelta(t, trade.ITax*RootCAShare, trade.FeeSplit["rootCA"], 1e-12)
	assert.InDelta(t, trade.FeeSplit["rootCA"], engine.GlobalLiquidity(), 1e-12)
}

func TestAmplifiedProviderPaysDoubleTax(t *testing.T) {
	engine := newTestEngine(LookupStrict)

	pool := seedPool()
	pool.ProviderType = AmplifiedProviderType
	engine.AddPool(pool)

	trade, err := engine.Trade(context.Background(), "HOTEL", models.TradeSideBuy, 1000, "ada")
	require.NoError(t, err)

	assert.InDelta(t, trade.BaseAmount*ITaxRate*AmplifiedTaxMultiplier, trade.ITax, 1e-12)
}

func TestNormalizedPoolLookup(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(seedPool())

	_, err := engine.Trade(context.Background(), "  hotel ", models.TradeSideBuy, 10, "ada")
	require.NoError(t, err)
}

func TestStrictLookupRejectsUnknownPool(t *testing.T) {
	engine := newTestEngine(LookupStrict)

	_, err := engine.Trade(context.Background(), "GHOST", models.TradeSideBuy, 10, "ada")
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestLenientLookupCreatesSyntheticPool(t *testing.T) {
	engine := newTestEngine(LookupLenient)

	trade, err := engine.Trade(context.Background(), "ghost", models.TradeSideBuy, 10, "ada")
	require.NoError(t, err)
	assert.Equal(t, "GHOST", trade.PoolID)

	pool, ok := engine.Pool("GHOST")
	require.True(t, ok)
	assert.Equal(t, float64(syntheticTokenReserve)-10, pool.TokenReserve)
}

func TestSellRejectsBaseReserveExhaustion(t *testing.T) {
	engine := newTestEngine(LookupStrict)
	engine.AddPool(&models.Pool{
		PoolID:       "TINY",
		TokenReserve: 10,
		BaseReserve:  1,
	})

	// Selling most of the token supply would drain the base reserve once
	// the tax is added on top.
	_, err := engine.Trade(context.Background(), "TINY", models.TradeSideSell, 1e9, "ada")
	require.ErrorIs(t, err, ErrInsufficientBaseReserve)
}
