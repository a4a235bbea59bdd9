package port

import (
	"context"

	"sigtrader/internal/domain/model"
)

// Exchange is the typed market and account surface of the trading venue.
//
// GetPrice and GetCandles degrade to sentinel values (0 / empty) on failure
// so a single bad read does not abort a cycle; GetPosition and GetBalance
// surface errors and return nil when the exchange reports no data.
type Exchange interface {
	GetPosition(ctx context.Context) (*model.Position, error)
	GetBalance(ctx context.Context) (*model.Balance, error)
	GetPrice(ctx context.Context) float64
	GetCandles(ctx context.Context, timeframe string, limit int) []model.Candle

	// PlaceOrder submits a single order and returns the exchange order ID.
	// Placement is never retried below this interface; duplicate-submission
	// risk is owned by the caller.
	PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error)

	// ClosePosition flattens the current position with a market order and
	// returns the closing order ID, or "" when there is nothing to close.
	ClosePosition(ctx context.Context) (string, error)

	CancelOrder(ctx context.Context, orderID string) error
	SetLeverage(ctx context.Context, leverage int) error
}
