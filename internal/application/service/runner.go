package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

const keyRunnerState = "runner_state"

const candleFetchLimit = 100

// RunnerState is the explicit per-runner context that replaces process-wide
// run flags: last cycle time, the signal currently acted on, and the
// consecutive error counter used for external alerting.
type RunnerState struct {
	Running       bool          `json:"running"`
	LastCycleTime time.Time     `json:"last_cycle_time"`
	CurrentSignal *model.Signal `json:"current_signal,omitempty"`
	ErrorCount    int           `json:"error_count"`
}

// RunnerDeps bundles the runner's collaborators. Notifier and Metrics are
// optional.
type RunnerDeps struct {
	Engine   *Engine
	Exchange port.Exchange
	Provider port.SignalProvider
	Store    port.Store
	Notifier port.Notifier
	Metrics  port.MetricsRecorder
	Ledger   *Ledger

	Config         model.TradingConfig
	CycleTimeout   time.Duration
	ErrorThreshold int
}

// Runner drives one trading cycle at a time: gather market context, ask the
// oracle, hand the signal to the engine, and account for the outcome. It is
// the only layer allowed to swallow arbitrary failures; nothing thrown
// inside a cycle may take down the scheduling loop.
type Runner struct {
	deps RunnerDeps

	mu    sync.Mutex
	state RunnerState
}

// NewRunner creates a runner, restoring persisted state when present.
func NewRunner(ctx context.Context, deps RunnerDeps) *Runner {
	if deps.CycleTimeout <= 0 {
		deps.CycleTimeout = 2 * time.Minute
	}
	if deps.ErrorThreshold <= 0 {
		deps.ErrorThreshold = 5
	}

	r := &Runner{deps: deps}
	if deps.Store != nil {
		if raw, err := deps.Store.Load(ctx, keyRunnerState); err == nil {
			if err := json.Unmarshal(raw, &r.state); err != nil {
				log.Error().Err(err).Msg("decode runner state failed")
			} else {
				r.state.Running = false // a restored state never starts mid-cycle
				log.Info().Int("error_count", r.state.ErrorCount).Msg("runner state restored")
			}
		} else if !errors.Is(err, port.ErrNotFound) {
			log.Error().Err(err).Msg("load runner state failed")
		}
	}
	return r
}

// State returns a copy of the current runner state.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RunCycle executes one full read-decide-execute pass under a cycle-scoped
// deadline. All failures, including panics, end as terminal outcomes.
func (r *Runner) RunCycle(ctx context.Context) (outcome model.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("trading cycle panicked")
			outcome = model.Outcome{Status: model.OutcomeError, Message: fmt.Sprint("cycle panic: ", rec)}
		}
		r.settle(outcome)
	}()

	ctx, cancel := context.WithTimeout(ctx, r.deps.CycleTimeout)
	defer cancel()

	r.mu.Lock()
	r.state.Running = true
	r.mu.Unlock()

	cfg := r.deps.Config
	log.Info().Str("timeframe", cfg.Timeframe).Msg("starting trading cycle")

	market, ok := r.collectMarket(ctx, cfg)
	if !ok {
		return model.Outcome{Status: model.OutcomeError, Message: "market data unavailable"}
	}

	position, err := r.deps.Exchange.GetPosition(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("position unavailable for analysis")
	}

	signal := r.analyze(ctx, market, position, cfg)
	r.setCurrentSignal(signal)

	log.Info().
		Str("signal", string(signal.Action)).
		Str("confidence", string(signal.Confidence)).
		Str("reason", signal.Reason).
		Bool("fallback", signal.Fallback).
		Msg("signal received")

	return r.deps.Engine.Execute(ctx, signal, market, cfg)
}

// collectMarket builds the cycle's market snapshot. Both the price and the
// candle history missing means there is nothing to trade on.
func (r *Runner) collectMarket(ctx context.Context, cfg model.TradingConfig) (model.MarketData, bool) {
	candles := r.deps.Exchange.GetCandles(ctx, cfg.Timeframe, candleFetchLimit)
	price := r.deps.Exchange.GetPrice(ctx)
	if price <= 0 && len(candles) == 0 {
		log.Error().Msg("no market data this cycle")
		return model.MarketData{}, false
	}

	market := model.MarketData{Price: price, Candles: candles}
	if n := len(candles); n > 0 {
		last := candles[n-1]
		market.High = last.High
		market.Low = last.Low
		market.Volume = last.Volume
		if price <= 0 {
			market.Price = last.Close
		}
		if n >= 2 && candles[n-2].Close > 0 {
			market.PriceChangePct = (last.Close - candles[n-2].Close) / candles[n-2].Close * 100
		}
	}
	return market, true
}

func (r *Runner) analyze(ctx context.Context, market model.MarketData, position *model.Position, cfg model.TradingConfig) model.Signal {
	history := r.deps.Ledger.RecentSignals(10)

	signal, err := r.deps.Provider.Analyze(ctx, market, history, model.Sentiment{}, position, cfg)
	if err != nil || !signal.Valid() {
		log.Warn().Err(err).Msg("signal analysis unavailable, falling back to hold")
		return FallbackSignal(market.Price)
	}
	if signal.Timestamp.IsZero() {
		signal.Timestamp = time.Now()
	}
	return signal
}

// settle records the outcome: state, metrics, persistence and the
// consecutive-error alert.
func (r *Runner) settle(outcome model.Outcome) {
	r.mu.Lock()
	r.state.Running = false
	r.state.LastCycleTime = time.Now()
	if outcome.Status == model.OutcomeError {
		r.state.ErrorCount++
	} else {
		r.state.ErrorCount = 0
	}
	state := r.state
	r.mu.Unlock()

	log.Info().Str("status", string(outcome.Status)).Str("message", outcome.Message).Msg("cycle finished")

	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordCycle(outcome)
		r.deps.Metrics.SetErrorCount(state.ErrorCount)
	}

	r.persistState(state)

	if state.ErrorCount >= r.deps.ErrorThreshold {
		msg := fmt.Sprintf("trading bot: %d consecutive cycle errors, last: %s", state.ErrorCount, outcome.Message)
		log.Warn().Int("error_count", state.ErrorCount).Msg("error threshold reached")
		if r.deps.Notifier != nil {
			if err := r.deps.Notifier.Notify(context.Background(), msg); err != nil {
				log.Error().Err(err).Msg("alert notification failed")
			}
		}
	}
}

func (r *Runner) setCurrentSignal(signal model.Signal) {
	r.mu.Lock()
	r.state.CurrentSignal = &signal
	r.mu.Unlock()
}

func (r *Runner) persistState(state RunnerState) {
	if r.deps.Store == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Msg("encode runner state failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.deps.Store.Save(ctx, keyRunnerState, raw); err != nil {
		log.Error().Err(err).Msg("persist runner state failed")
	}
}

// FallbackSignal is the conservative stand-in used when analysis is
// unavailable: hold, low confidence, ±2% stop/take hints around the current
// price.
func FallbackSignal(price float64) model.Signal {
	return model.Signal{
		Action:     model.SignalHold,
		Confidence: model.ConfidenceLow,
		Reason:     "analysis unavailable, holding as a precaution",
		StopLoss:   price * 0.98,
		TakeProfit: price * 1.02,
		Fallback:   true,
		Timestamp:  time.Now(),
	}
}
