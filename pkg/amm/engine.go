// Package amm implements the constant-product trade engine with per-trade
// price impact and protocol tax.
package amm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gardenlabs/bazaar/pkg/eventbus"
	"github.com/gardenlabs/bazaar/pkg/events"
	"github.com/gardenlabs/bazaar/pkg/models"
	"github.com/gardenlabs/bazaar/pkg/otelhelper"
)

const (
	PriceImpactPerTrade    = 0.0025
	ITaxRate               = 0.03
	AmplifiedTaxMultiplier = 2.0

	// iTax distribution ratios.
	RootCAShare  = 0.5
	IndexerShare = 0.3
	TraderShare  = 0.2

	// Reserves for pools fabricated on a lenient-mode miss.
	syntheticTokenReserve = 1_000_000
	syntheticBaseReserve  = 1_000

	// Provider type whose pools pay the amplified tax rate.
	AmplifiedProviderType = "amplified"
)

type LookupMode string

const (
	LookupStrict  LookupMode = "strict"
	LookupLenient LookupMode = "lenient"
)

var (
	ErrPoolNotFound             = errors.New("pool not found")
	ErrNonPositiveTokenAmount   = errors.New("token amount must be positive")
	ErrInsufficientTokenReserve = errors.New("token amount exceeds pool reserve")
	ErrInsufficientBaseReserve  = errors.New("base amount exceeds pool reserve")
	ErrUnknownTradeSide         = errors.New("unknown trade side")
)

// Engine owns every pool. All mutation goes through Trade under one lock,
// so a trade is atomic with respect to concurrent runs.
type Engine struct {
	mu              sync.Mutex
	pools           map[string]*models.Pool
	globalLiquidity float64
	lookupMode      LookupMode
	publisher       eventbus.EventPublisher
	tracer          trace.Tracer
	logger          *slog.Logger
}

func NewEngine(lookupMode LookupMode, publisher eventbus.EventPublisher, logger *slog.Logger) *Engine {
	if lookupMode == "" {
		lookupMode = LookupLenient
	}

	return &Engine{
		pools:      make(map[string]*models.Pool),
		lookupMode: lookupMode,
		publisher:  publisher,
		tracer:     otel.Tracer("bazaar/amm"),
		logger:     logger,
	}
}

func normalizePoolID(poolID string) string {
	return strings.ToUpper(strings.TrimSpace(poolID))
}

func (e *Engine) AddPool(pool *models.Pool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pool.Price == 0 && pool.TokenReserve > 0 {
		pool.Price = pool.BaseReserve / pool.TokenReserve
	}

	e.pools[normalizePoolID(pool.PoolID)] = pool
}

// Pool returns a copy of the pool; callers never see live reserves.
func (e *Engine) Pool(poolID string) (*models.Pool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, ok := e.pools[normalizePoolID(poolID)]
	if !ok {
		return nil, false
	}

	return pool.Clone(), true
}

func (e *Engine) Pools() []*models.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pools := make([]*models.Pool, 0, len(e.pools))
	for _, pool := range e.pools {
		pools = append(pools, pool.Clone())
	}

	return pools
}

// GlobalLiquidity reports the accumulated root-authority share of iTax.
func (e *Engine) GlobalLiquidity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.globalLiquidity
}

// Trade swaps tokenAmount against the pool. Inputs are validated before any
// reserve is touched; a rejected trade leaves the pool untouched.
func (e *Engine) Trade(ctx context.Context, poolID string, side models.TradeSide, tokenAmount float64, trader string) (*models.Trade, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "amm.trade",
		attribute.String(otelhelper.PoolIDKey, poolID),
		attribute.String(otelhelper.TradeSideKey, string(side)),
	)
	defer span.End()

	if tokenAmount <= 0 {
		return nil, fmt.Errorf("%w: %f", ErrNonPositiveTokenAmount, tokenAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.resolvePool(poolID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	taxRate := ITaxRate
	if pool.ProviderType == AmplifiedProviderType {
		taxRate *= AmplifiedTaxMultiplier
	}

	var baseAmount, tax float64

	switch side {
	case models.TradeSideBuy:
		if tokenAmount >= pool.TokenReserve {
			return nil, fmt.Errorf("%w: %f >= %f", ErrInsufficientTokenReserve, tokenAmount, pool.TokenReserve)
		}

		baseAmount = pool.BaseReserve * tokenAmount / (pool.TokenReserve - tokenAmount) * (1 + PriceImpactPerTrade)
		tax = baseAmount * taxRate

		pool.BaseReserve += baseAmount - tax
		pool.TokenReserve -= tokenAmount
	case models.TradeSideSell:
		baseAmount = pool.BaseReserve * tokenAmount / (pool.TokenReserve + tokenAmount) * (1 - PriceImpactPerTrade)
		tax = baseAmount * taxRate

		if baseAmount+tax >= pool.BaseReserve {
			return nil, fmt.Errorf("%w: %f >= %f", ErrInsufficientBaseReserve, baseAmount+tax, pool.BaseReserve)
		}

		pool.BaseReserve -= baseAmount + tax
		pool.TokenReserve += tokenAmount
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTradeSide, side)
	}

	pool.Price = pool.BaseReserve / pool.TokenReserve
	pool.PoolLiquidity *= 1 + PriceImpactPerTrade
	pool.TotalVolume += baseAmount
	pool.TotalTrades++

	feeSplit := map[string]float64{
		"rootCA":  tax * RootCAShare,
		"indexer": tax * IndexerShare,
		"trader":  tax * TraderShare,
	}
	e.globalLiquidity += feeSplit["rootCA"]

	trade := &models.Trade{
		TradeID:     "trade-" + uuid.New().String()[:8],
		PoolID:      pool.PoolID,
		Side:        side,
		TokenAmount: tokenAmount,
		BaseAmount:  baseAmount,
		Price:       pool.Price,
		ITax:        tax,
		FeeSplit:    feeSplit,
		Trader:      trader,
		Timestamp:   time.Now().UTC(),
	}

	e.logger.Info("trade executed",
		"pool_id", pool.PoolID,
		"side", side,
		"token_amount", tokenAmount,
		"base_amount", baseAmount,
		"itax", tax,
		"price", pool.Price,
	)

	e.notify(ctx, trade, pool.Clone())

	return trade, nil
}

// resolvePool looks a pool up by normalized id. In lenient mode a miss
// fabricates a synthetic pool; strict mode surfaces the miss to the caller.
func (e *Engine) resolvePool(poolID string) (*models.Pool, error) {
	normalized := normalizePoolID(poolID)

	pool, ok := e.pools[normalized]
	if ok {
		return pool, nil
	}

	if e.lookupMode == LookupStrict {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	e.logger.Warn("pool not found, creating synthetic pool", "pool_id", poolID)

	pool = &models.Pool{
		PoolID:        normalized,
		TokenSymbol:   normalized,
		BaseToken:     "IGAS",
		TokenReserve:  syntheticTokenReserve,
		BaseReserve:   syntheticBaseReserve,
		Price:         float64(syntheticBaseReserve) / float64(syntheticTokenReserve),
		PoolLiquidity: syntheticBaseReserve,
	}
	e.pools[normalized] = pool

	return pool, nil
}

func (e *Engine) notify(ctx context.Context, trade *models.Trade, pool *models.Pool) {
	if e.publisher == nil {
		return
	}

	event := events.TradeExecuted{
		BaseEvent: events.NewBaseEvent(events.TradeExecutedEvent, pool.ProviderType),
		Trade:     *trade,
	}
	event.Metadata["pool"] = pool

	if err := e.publisher.Publish(ctx, trade.PoolID, event); err != nil {
		e.logger.Warn("failed to publish trade event", "trade_id", trade.TradeID, "error", err)
	}
}
