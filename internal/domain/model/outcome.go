package model

// OutcomeStatus is the terminal status of one trading cycle.
type OutcomeStatus string

const (
	OutcomeHold    OutcomeStatus = "hold"
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeIgnored OutcomeStatus = "ignored"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome is the single terminal result of a trading cycle. Every outcome
// carries a human-readable message; OrderID and Action are set only on
// success.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message"`
	OrderID string        `json:"order_id,omitempty"`
	Action  TradeAction   `json:"action,omitempty"`
}
