package model

import "time"

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// OrderRequest is a single order to be submitted to the exchange. It is
// constructed by the execution engine and never persisted; only the resulting
// TradeRecord is.
type OrderRequest struct {
	Side          OrderSide
	Size          float64
	Type          OrderType
	Price         float64 // limit orders only
	ClientOrderID string
}

// TradeAction tags what a filled order did to the position.
type TradeAction string

const (
	ActionOpen     TradeAction = "open"
	ActionAdd      TradeAction = "add"
	ActionReversal TradeAction = "reversal"
)

// TradeRecord is the durable record of one executed order.
type TradeRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Side      SignalAction `json:"side"`
	Size      float64      `json:"size"`
	OrderType OrderType    `json:"order_type"`
	Action    TradeAction  `json:"action"`
	Symbol    string       `json:"symbol"`
}
