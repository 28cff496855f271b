// Package trade implements the AMM trade execution action.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gardenlabs/bazaar/pkg/amm"
	"github.com/gardenlabs/bazaar/pkg/models"
)

var ErrMissingTradeParams = errors.New("missing trade parameters")

type Action struct {
	engine *amm.Engine
}

func NewAction(engine *amm.Engine) (*Action, error) {
	return &Action{engine: engine}, nil
}

// Execute runs a swap with parameters resolved from the action params,
// falling back to context values set by earlier steps. Trade validation
// errors surface as action failures for the engine to route.
func (a *Action) Execute(ctx context.Context, executionCtx *models.ExecutionContext, params map[string]any, logger *slog.Logger) (map[string]any, error) {
	poolID, _ := params["pool_id"].(string)
	if poolID == "" {
		if value, ok := executionCtx.Get("poolId"); ok {
			poolID, _ = value.(string)
		}
	}

	if poolID == "" {
		return nil, fmt.Errorf("%w: pool_id", ErrMissingTradeParams)
	}

	side := models.TradeSideBuy
	if raw, ok := params["side"].(string); ok && raw != "" {
		side = models.TradeSide(strings.ToUpper(strings.TrimSpace(raw)))
	}

	tokenAmount, ok := floatParam(params["token_amount"])
	if !ok {
		return nil, fmt.Errorf("%w: token_amount", ErrMissingTradeParams)
	}

	trader, _ := params["trader"].(string)
	if trader == "" {
		if value, ok := executionCtx.Get("payer"); ok {
			trader, _ = value.(string)
		}
	}

	trade, err := a.engine.Trade(ctx, poolID, side, tokenAmount, trader)
	if err != nil {
		return nil, err
	}

	pool, _ := a.engine.Pool(trade.PoolID)

	logger.Info("trade action completed", "trade_id", trade.TradeID, "pool_id", trade.PoolID)

	return map[string]any{
		"trade": map[string]any{
			"trade_id":     trade.TradeID,
			"pool_id":      trade.PoolID,
			"side":         string(trade.Side),
			"token_amount": trade.TokenAmount,
			"base_amount":  trade.BaseAmount,
			"price":        trade.Price,
			"itax":         trade.ITax,
		},
		"baseAmount": trade.BaseAmount,
		"tradePrice": trade.Price,
		"iTax":       trade.ITax,
		"pool": map[string]any{
			"pool_id":       pool.PoolID,
			"token_reserve": pool.TokenReserve,
			"base_reserve":  pool.BaseReserve,
			"price":         pool.Price,
		},
	}, nil
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
