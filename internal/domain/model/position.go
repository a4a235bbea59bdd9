package model

// PositionSide is the direction of an open position.
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
	SideFlat  PositionSide = "flat"
)

// Position is the exchange-reported state of the account's position in the
// traded instrument. The exchange is the source of truth: the core never
// mutates a Position locally, it only re-reads it and emits orders.
// Invariant: Size == 0 iff Side == SideFlat.
type Position struct {
	Side          PositionSide `json:"side"`
	Size          float64      `json:"size"`
	EntryPrice    float64      `json:"entry_price"`
	UnrealizedPnL float64      `json:"unrealized_pnl"`
}

// Open reports whether the position has exposure.
func (p *Position) Open() bool {
	return p != nil && p.Size > 0 && p.Side != SideFlat
}

// PnLPercent returns the unrealized PnL as a percentage of the position's
// entry notional, or 0 when the position has no notional.
func (p *Position) PnLPercent() float64 {
	if !p.Open() || p.EntryPrice <= 0 {
		return 0
	}
	return p.UnrealizedPnL / (p.Size * p.EntryPrice) * 100
}

// Balance is the account equity snapshot used for position sizing.
type Balance struct {
	TotalEquity     float64 `json:"total_equity"`
	AvailableMargin float64 `json:"available_margin"`
	Currency        string  `json:"currency"`
}

// Candle is one normalized OHLCV bar.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}
