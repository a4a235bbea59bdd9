package port

import (
	"context"

	"sigtrader/internal/domain/model"
)

// SignalProvider is the opaque upstream advisory oracle. The core passes it
// the cycle's market snapshot and context and consumes whatever signal comes
// back; how the signal is produced is not this system's concern.
type SignalProvider interface {
	Analyze(ctx context.Context, market model.MarketData, history []model.Signal,
		sentiment model.Sentiment, position *model.Position, cfg model.TradingConfig) (model.Signal, error)
}

// TrendScorer estimates trend strength in [0,1] for a signal, optionally
// using recent candles. Implementations are heuristics, not correctness
// critical paths.
type TrendScorer interface {
	Score(signal model.Signal, candles []model.Candle) float64
}
