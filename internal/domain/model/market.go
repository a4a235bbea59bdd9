package model

// MarketData is the per-cycle market snapshot handed to the signal oracle
// and the trend scorer. Candles are chronological, oldest first.
type MarketData struct {
	Price          float64  `json:"price"`
	PriceChangePct float64  `json:"price_change_pct"`
	High           float64  `json:"high"`
	Low            float64  `json:"low"`
	Volume         float64  `json:"volume"`
	Candles        []Candle `json:"candles"`
}

// Sentiment is an aggregate market-sentiment reading passed through to the
// oracle. A zero value is a neutral reading.
type Sentiment struct {
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
	NetSentiment  float64 `json:"net_sentiment"`
}

// TradingConfig is the immutable per-cycle configuration snapshot consumed by
// the sizing, reversal and execution logic. The core never mutates it.
type TradingConfig struct {
	Symbol              string  `json:"symbol"`
	MarginMode          string  `json:"margin_mode"`
	Leverage            int     `json:"leverage"`
	Timeframe           string  `json:"timeframe"`
	RiskPercent         float64 `json:"risk_percent"`
	MinOrderSize        float64 `json:"min_order_size"`
	MaxOrderSize        float64 `json:"max_order_size"`
	MaxPositionSize     float64 `json:"max_position_size"`
	MaxLossPercent      float64 `json:"max_loss_percent"`
	TargetProfitPercent float64 `json:"target_profit_percent"`
}

// TradeSummary is the reporting roll-up over the ledger and live account
// state.
type TradeSummary struct {
	CurrentPrice    float64   `json:"current_price"`
	CurrentPosition *Position `json:"current_position,omitempty"`
	TotalTrades     int       `json:"total_trades"`
	BuyTrades       int       `json:"buy_trades"`
	SellTrades      int       `json:"sell_trades"`
	LastSignal      *Signal   `json:"last_signal,omitempty"`
	LastUpdated     string    `json:"last_updated"`
}
