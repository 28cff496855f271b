package models

import "time"

// Pool is one provider-bound liquidity pool. Reserves follow the
// constant-product shape; Price is quoted in base token per service token.
type Pool struct {
	PoolID        string  `json:"pool_id"       validate:"required"`
	TokenSymbol   string  `json:"token_symbol"`
	BaseToken     string  `json:"base_token"`
	TokenReserve  float64 `json:"token_reserve" validate:"gt=0"`
	BaseReserve   float64 `json:"base_reserve"  validate:"gt=0"`
	Price         float64 `json:"price"`
	PoolLiquidity float64 `json:"pool_liquidity"`
	TotalVolume   float64 `json:"total_volume"`
	TotalTrades   int64   `json:"total_trades"`
	ProviderUUID  string  `json:"provider_uuid"`
	ProviderType  string  `json:"provider_type"`
}

func (p *Pool) Clone() *Pool {
	copied := *p

	return &copied
}

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Trade is the record of one executed swap, including the tax split that
// was distributed when it settled.
type Trade struct {
	TradeID     string             `json:"trade_id"`
	PoolID      string             `json:"pool_id"`
	Side        TradeSide          `json:"side"`
	TokenAmount float64            `json:"token_amount"`
	BaseAmount  float64            `json:"base_amount"`
	Price       float64            `json:"price"`
	ITax        float64            `json:"itax"`
	FeeSplit    map[string]float64 `json:"fee_split,omitempty"`
	Trader      string             `json:"trader"`
	Timestamp   time.Time          `json:"timestamp"`
}
