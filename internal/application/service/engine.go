package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

// cycleState names the engine's decision states, for logging only.
type cycleState string

const (
	stateDeciding  cycleState = "deciding"
	stateReversing cycleState = "reversing"
	stateScaling   cycleState = "scaling"
	stateOpening   cycleState = "opening"
	stateIgnoring  cycleState = "ignoring"
)

const (
	settlePollAttempts = 5
	settlePollWait     = time.Second
)

// Engine is the execution state machine: for one cycle it reads the
// position, decides between reversing, scaling in, opening and ignoring, and
// emits orders. Exactly one terminal outcome per cycle; order-placement
// failure terminates the cycle but never the process.
type Engine struct {
	exchange port.Exchange
	ledger   *Ledger
	sizer    *Sizer
	metrics  port.MetricsRecorder // optional
}

// NewEngine creates an execution engine. metrics may be nil.
func NewEngine(exchange port.Exchange, ledger *Ledger, sizer *Sizer, metrics port.MetricsRecorder) *Engine {
	return &Engine{exchange: exchange, ledger: ledger, sizer: sizer, metrics: metrics}
}

// Execute runs one trading cycle for the given signal. The signal is always
// appended to the signal history; trade state persists only on a successful
// placement.
func (e *Engine) Execute(ctx context.Context, signal model.Signal, market model.MarketData, cfg model.TradingConfig) model.Outcome {
	log.Info().
		Str("signal", string(signal.Action)).
		Str("confidence", string(signal.Confidence)).
		Msg("executing signal")

	e.ledger.AppendSignal(signal)

	if signal.Action == model.SignalHold {
		log.Info().Msg("hold signal, keeping current state")
		return model.Outcome{Status: model.OutcomeHold, Message: "holding current state"}
	}
	if signal.Action != model.SignalBuy && signal.Action != model.SignalSell {
		return model.Outcome{Status: model.OutcomeFailed, Message: "unknown signal type"}
	}

	logState(stateDeciding, signal)

	position, err := e.exchange.GetPosition(ctx)
	if err != nil {
		log.Error().Err(err).Msg("read position failed")
		return model.Outcome{Status: model.OutcomeFailed, Message: "position read failed: " + err.Error()}
	}
	logPosition(position)

	reversalNeeded := ShouldReverse(signal, position, cfg)

	equity := e.readEquity(ctx)
	price := e.exchange.GetPrice(ctx)
	size := e.sizer.Size(signal, position, equity, price, market.Candles, cfg)
	if size <= 0 {
		return model.Outcome{Status: model.OutcomeFailed, Message: "invalid position size"}
	}

	switch {
	case reversalNeeded && position.Open():
		return e.reverse(ctx, signal, size, cfg)
	case position.Open() && position.Side == signal.Direction():
		logState(stateScaling, signal)
		return e.place(ctx, signal, size, model.ActionAdd, cfg)
	case position.Open():
		logState(stateIgnoring, signal)
		return model.Outcome{
			Status:  model.OutcomeIgnored,
			Message: "existing " + string(position.Side) + " position kept, reversal not warranted",
		}
	default:
		logState(stateOpening, signal)
		return e.place(ctx, signal, size, model.ActionOpen, cfg)
	}
}

// reverse closes the full position, waits for settlement, then opens the
// opposite side.
func (e *Engine) reverse(ctx context.Context, signal model.Signal, size float64, cfg model.TradingConfig) model.Outcome {
	logState(stateReversing, signal)

	closeID, err := e.exchange.ClosePosition(ctx)
	if err != nil || closeID == "" {
		log.Error().Err(err).Msg("close position failed, cancelling reversal")
		return model.Outcome{Status: model.OutcomeFailed, Message: "close position failed"}
	}

	e.waitUntilFlat(ctx)

	return e.place(ctx, signal, size, model.ActionReversal, cfg)
}

// waitUntilFlat polls the position until the exchange reports it closed,
// bounded at settlePollAttempts. Proceeds after the bound regardless: the
// close order was accepted, and settlement latency is the exchange's.
func (e *Engine) waitUntilFlat(ctx context.Context) {
	for i := 0; i < settlePollAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(settlePollWait):
		}

		pos, err := e.exchange.GetPosition(ctx)
		if err == nil && !pos.Open() {
			return
		}
	}
	log.Warn().Msg("position not confirmed flat after close, proceeding")
}

func (e *Engine) place(ctx context.Context, signal model.Signal, size float64, action model.TradeAction, cfg model.TradingConfig) model.Outcome {
	req := model.OrderRequest{
		Side:          signal.OrderSide(),
		Size:          size,
		Type:          model.OrderMarket,
		ClientOrderID: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	orderID, err := e.exchange.PlaceOrder(ctx, req)
	if err != nil || orderID == "" {
		log.Error().Err(err).Str("action", string(action)).Msg("order placement failed")
		return model.Outcome{Status: model.OutcomeFailed, Message: string(action) + " order failed"}
	}

	e.ledger.AppendTrade(model.TradeRecord{
		Timestamp: time.Now(),
		Side:      signal.Action,
		Size:      size,
		OrderType: model.OrderMarket,
		Action:    action,
		Symbol:    cfg.Symbol,
	})
	if err := e.ledger.Persist(ctx); err != nil {
		log.Error().Err(err).Msg("persist ledger failed")
	}
	if e.metrics != nil {
		e.metrics.RecordOrder(req.Side, action)
	}

	log.Info().
		Str("action", string(action)).
		Str("order_id", orderID).
		Float64("size", size).
		Msg("trade executed")

	return model.Outcome{
		Status:  model.OutcomeSuccess,
		Message: string(action) + " order placed",
		OrderID: orderID,
		Action:  action,
	}
}

func (e *Engine) readEquity(ctx context.Context) float64 {
	balance, err := e.exchange.GetBalance(ctx)
	if err != nil || balance == nil {
		log.Warn().Err(err).Msg("balance unavailable")
		return 0
	}
	if e.metrics != nil {
		e.metrics.SetEquity(balance.TotalEquity)
	}
	return balance.TotalEquity
}

func logState(state cycleState, signal model.Signal) {
	log.Info().Str("state", string(state)).Str("signal", string(signal.Action)).Msg("cycle transition")
}

func logPosition(p *model.Position) {
	if !p.Open() {
		log.Info().Msg("no open position")
		return
	}
	log.Info().
		Str("side", string(p.Side)).
		Float64("size", p.Size).
		Float64("entry_price", p.EntryPrice).
		Float64("unrealized_pnl", p.UnrealizedPnL).
		Msg("current position")
}
