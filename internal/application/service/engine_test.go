package service

import (
	"context"
	"errors"
	"testing"

	"sigtrader/internal/domain/model"
)

// mockExchange scripts the exchange surface for engine and runner tests.
type mockExchange struct {
	position    *model.Position
	positionErr error
	balance     *model.Balance
	balanceErr  error
	price       float64
	candles     []model.Candle

	orderID      string
	orderErr     error
	placedOrders []model.OrderRequest

	closeID        string
	closeErr       error
	closeCalls     int
	flatAfterClose bool
}

func (m *mockExchange) GetPosition(context.Context) (*model.Position, error) {
	if m.positionErr != nil {
		return nil, m.positionErr
	}
	return m.position, nil
}

func (m *mockExchange) GetBalance(context.Context) (*model.Balance, error) {
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockExchange) GetPrice(context.Context) float64 { return m.price }

func (m *mockExchange) GetCandles(context.Context, string, int) []model.Candle { return m.candles }

func (m *mockExchange) PlaceOrder(_ context.Context, req model.OrderRequest) (string, error) {
	m.placedOrders = append(m.placedOrders, req)
	return m.orderID, m.orderErr
}

func (m *mockExchange) ClosePosition(context.Context) (string, error) {
	m.closeCalls++
	if m.closeErr != nil {
		return "", m.closeErr
	}
	if m.flatAfterClose {
		m.position = nil
	}
	return m.closeID, nil
}

func (m *mockExchange) CancelOrder(context.Context, string) error { return nil }

func (m *mockExchange) SetLeverage(context.Context, int) error { return nil }

func newTestEngine(exchange *mockExchange) (*Engine, *Ledger) {
	ledger := NewLedger(context.Background(), nil)
	return NewEngine(exchange, ledger, NewSizer(nil), nil), ledger
}

func TestExecuteHoldLeavesTradesUntouched(t *testing.T) {
	exchange := &mockExchange{balance: &model.Balance{TotalEquity: 10000}, price: 50000}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalHold, Confidence: model.ConfidenceLow}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{}, testConfig())

	if outcome.Status != model.OutcomeHold {
		t.Fatalf("expected hold outcome, got %s", outcome.Status)
	}
	if len(exchange.placedOrders) != 0 {
		t.Error("hold placed an order")
	}
	if len(ledger.Trades()) != 0 {
		t.Error("hold mutated the trade history")
	}
	if len(ledger.Signals()) != 1 {
		t.Error("hold signal was not recorded in the signal history")
	}
}

func TestExecuteOpensWhenFlat(t *testing.T) {
	exchange := &mockExchange{
		balance: &model.Balance{TotalEquity: 10000},
		price:   50000,
		orderID: "ord-1",
	}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalSell, Confidence: model.ConfidenceLow, Reason: "weak momentum"}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 50000}, testConfig())

	if outcome.Status != model.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.Message)
	}
	if outcome.Action != model.ActionOpen {
		t.Errorf("expected open action, got %s", outcome.Action)
	}
	if outcome.OrderID != "ord-1" {
		t.Errorf("expected order id ord-1, got %q", outcome.OrderID)
	}
	if len(exchange.placedOrders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(exchange.placedOrders))
	}
	order := exchange.placedOrders[0]
	if order.Side != model.OrderSell {
		t.Errorf("expected sell order, got %s", order.Side)
	}
	if order.Type != model.OrderMarket {
		t.Errorf("expected market order, got %s", order.Type)
	}
	if order.ClientOrderID == "" {
		t.Error("client order id missing")
	}
	trades := ledger.Trades()
	if len(trades) != 1 || trades[0].Action != model.ActionOpen {
		t.Errorf("trade record wrong: %+v", trades)
	}
}

func TestExecuteReversesOnStopLossBreach(t *testing.T) {
	exchange := &mockExchange{
		position:       &model.Position{Side: model.SideLong, Size: 0.5, EntryPrice: 50000, UnrealizedPnL: -3000},
		balance:        &model.Balance{TotalEquity: 10000},
		price:          44000,
		orderID:        "ord-2",
		closeID:        "close-1",
		flatAfterClose: true,
	}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalSell, Confidence: model.ConfidenceLow}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 44000}, testConfig())

	if outcome.Status != model.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.Message)
	}
	if outcome.Action != model.ActionReversal {
		t.Errorf("expected reversal action, got %s", outcome.Action)
	}
	if exchange.closeCalls != 1 {
		t.Errorf("expected 1 close call, got %d", exchange.closeCalls)
	}
	if len(exchange.placedOrders) != 1 || exchange.placedOrders[0].Side != model.OrderSell {
		t.Errorf("expected one sell order after close, got %+v", exchange.placedOrders)
	}
	trades := ledger.Trades()
	if len(trades) != 1 || trades[0].Action != model.ActionReversal {
		t.Errorf("trade record wrong: %+v", trades)
	}
}

func TestExecuteIgnoresUnconvincingOpposite(t *testing.T) {
	exchange := &mockExchange{
		position: &model.Position{Side: model.SideLong, Size: 0.5, EntryPrice: 50000, UnrealizedPnL: -200},
		balance:  &model.Balance{TotalEquity: 10000},
		price:    49800,
	}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalSell, Confidence: model.ConfidenceLow}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 49800}, testConfig())

	if outcome.Status != model.OutcomeIgnored {
		t.Fatalf("expected ignored, got %s (%s)", outcome.Status, outcome.Message)
	}
	if len(exchange.placedOrders) != 0 || exchange.closeCalls != 0 {
		t.Error("ignored signal touched the exchange")
	}
	if len(ledger.Trades()) != 0 {
		t.Error("ignored signal mutated the trade history")
	}
}

func TestExecuteScalesInSameSide(t *testing.T) {
	exchange := &mockExchange{
		position: &model.Position{Side: model.SideLong, Size: 0.01, EntryPrice: 50000, UnrealizedPnL: 100},
		balance:  &model.Balance{TotalEquity: 10000},
		price:    51000,
		orderID:  "ord-3",
	}
	engine, _ := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalBuy, Confidence: model.ConfidenceMedium}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 51000}, testConfig())

	if outcome.Status != model.OutcomeSuccess || outcome.Action != model.ActionAdd {
		t.Fatalf("expected add success, got %s/%s (%s)", outcome.Status, outcome.Action, outcome.Message)
	}
	if len(exchange.placedOrders) != 1 || exchange.placedOrders[0].Side != model.OrderBuy {
		t.Errorf("expected one buy order, got %+v", exchange.placedOrders)
	}
}

func TestExecuteFailsOnInvalidSize(t *testing.T) {
	// Balance read failing means equity 0, and sizing fails closed.
	exchange := &mockExchange{balanceErr: errors.New("boom"), price: 50000}
	engine, _ := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalBuy, Confidence: model.ConfidenceHigh}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 50000}, testConfig())

	if outcome.Status != model.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if len(exchange.placedOrders) != 0 {
		t.Error("order placed despite invalid size")
	}
}

func TestExecuteFailsWhenCloseFails(t *testing.T) {
	exchange := &mockExchange{
		position: &model.Position{Side: model.SideLong, Size: 0.5, EntryPrice: 50000, UnrealizedPnL: -3000},
		balance:  &model.Balance{TotalEquity: 10000},
		price:    44000,
		closeErr: errors.New("close rejected"),
	}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalSell, Confidence: model.ConfidenceHigh}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 44000}, testConfig())

	if outcome.Status != model.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if len(exchange.placedOrders) != 0 {
		t.Error("reversal order placed although the close failed")
	}
	if len(ledger.Trades()) != 0 {
		t.Error("failed reversal mutated the trade history")
	}
}

func TestExecuteFailsWhenOrderRejected(t *testing.T) {
	exchange := &mockExchange{
		balance:  &model.Balance{TotalEquity: 10000},
		price:    50000,
		orderErr: errors.New("insufficient margin"),
	}
	engine, ledger := newTestEngine(exchange)

	sig := model.Signal{Action: model.SignalBuy, Confidence: model.ConfidenceHigh}
	outcome := engine.Execute(context.Background(), sig, model.MarketData{Price: 50000}, testConfig())

	if outcome.Status != model.OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome.Status)
	}
	if len(ledger.Trades()) != 0 {
		t.Error("rejected order was recorded as a trade")
	}
}
