package service

import (
	"context"
	"testing"
	"time"

	"sigtrader/internal/domain/model"
)

func TestTradeSummary(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(ctx, nil)
	exchange := &mockExchange{
		price:    50000,
		position: &model.Position{Side: model.SideLong, Size: 0.5, EntryPrice: 49000},
	}
	reporter := NewReporter(ledger, exchange)

	for i, side := range []model.SignalAction{model.SignalBuy, model.SignalBuy, model.SignalSell} {
		ledger.AppendTrade(model.TradeRecord{
			Timestamp: time.Unix(int64(i), 0),
			Side:      side,
			Size:      0.1,
			OrderType: model.OrderMarket,
			Action:    model.ActionOpen,
			Symbol:    "BTC-USDT-SWAP",
		})
	}
	ledger.AppendSignal(model.Signal{Action: model.SignalBuy, Confidence: model.ConfidenceHigh})

	summary := reporter.TradeSummary(ctx)

	if summary.TotalTrades != 3 || summary.BuyTrades != 2 || summary.SellTrades != 1 {
		t.Errorf("trade counts wrong: %+v", summary)
	}
	if summary.CurrentPrice != 50000 {
		t.Errorf("price = %v, want 50000", summary.CurrentPrice)
	}
	if summary.CurrentPosition == nil || summary.CurrentPosition.Side != model.SideLong {
		t.Errorf("position wrong: %+v", summary.CurrentPosition)
	}
	if summary.LastSignal == nil || summary.LastSignal.Action != model.SignalBuy {
		t.Errorf("last signal wrong: %+v", summary.LastSignal)
	}
	if summary.LastUpdated == "" {
		t.Error("last updated missing")
	}
}
