package model

import "time"

// SignalAction is the advisory directive produced by the upstream oracle.
type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
	SignalHold SignalAction = "HOLD"
)

// Confidence is the oracle's conviction label attached to a signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Signal is an advisory trading directive. Immutable once created; every
// received signal is appended to the ledger's signal history.
type Signal struct {
	Action     SignalAction `json:"signal"`
	Confidence Confidence   `json:"confidence"`
	Reason     string       `json:"reason"`
	StopLoss   float64      `json:"stop_loss,omitempty"`
	TakeProfit float64      `json:"take_profit,omitempty"`
	Fallback   bool         `json:"is_fallback,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Direction maps the signal action onto the position side it argues for.
// HOLD maps to SideFlat.
func (s Signal) Direction() PositionSide {
	switch s.Action {
	case SignalBuy:
		return SideLong
	case SignalSell:
		return SideShort
	default:
		return SideFlat
	}
}

// OrderSide maps the signal action onto the order side that expresses it.
func (s Signal) OrderSide() OrderSide {
	if s.Action == SignalSell {
		return OrderSell
	}
	return OrderBuy
}

// Valid reports whether the action and confidence carry known values.
func (s Signal) Valid() bool {
	switch s.Action {
	case SignalBuy, SignalSell, SignalHold:
	default:
		return false
	}
	switch s.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}
