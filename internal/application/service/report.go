package service

import (
	"context"
	"time"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

// Reporter exposes the read-only view over the ledger and live account state
// for dashboards and operators. Safe to call concurrently with the trading
// loop.
type Reporter struct {
	ledger   *Ledger
	exchange port.Exchange
}

// NewReporter creates a reporter over the given ledger and exchange.
func NewReporter(ledger *Ledger, exchange port.Exchange) *Reporter {
	return &Reporter{ledger: ledger, exchange: exchange}
}

// RecentTrades returns up to n most recent trade records, oldest first.
func (r *Reporter) RecentTrades(n int) []model.TradeRecord {
	return r.ledger.RecentTrades(n)
}

// RecentSignals returns up to n most recent signals, oldest first.
func (r *Reporter) RecentSignals(n int) []model.Signal {
	return r.ledger.RecentSignals(n)
}

// TradeSummary rolls up trade statistics with the current price, position
// and last signal.
func (r *Reporter) TradeSummary(ctx context.Context) model.TradeSummary {
	trades := r.ledger.Trades()

	var buys, sells int
	for _, t := range trades {
		switch t.Side {
		case model.SignalBuy:
			buys++
		case model.SignalSell:
			sells++
		}
	}

	position, _ := r.exchange.GetPosition(ctx)

	return model.TradeSummary{
		CurrentPrice:    r.exchange.GetPrice(ctx),
		CurrentPosition: position,
		TotalTrades:     len(trades),
		BuyTrades:       buys,
		SellTrades:      sells,
		LastSignal:      r.ledger.LastSignal(),
		LastUpdated:     time.Now().Format("2006-01-02 15:04:05"),
	}
}
