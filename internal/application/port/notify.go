package port

import (
	"context"

	"sigtrader/internal/domain/model"
)

// Notifier delivers out-of-band operator alerts.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// MetricsRecorder receives observability events from the cycle runner and
// the execution engine. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordCycle(outcome model.Outcome)
	RecordOrder(side model.OrderSide, action model.TradeAction)
	SetEquity(usd float64)
	SetErrorCount(n int)
}
