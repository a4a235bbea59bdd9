package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

const (
	maxTradeRecords  = 1000
	maxSignalRecords = 100

	keyTradeHistory  = "trade_history"
	keySignalHistory = "signal_history"
)

// Ledger is the append-only, size-bounded history of executed trades and
// received signals. The in-memory slices are the authoritative working copy
// for the process lifetime; durability goes through the Store as
// read-modify-write at cycle boundaries.
//
// Single writer (the trading cycle), multiple readers (reporting); all
// access is mutex-guarded.
type Ledger struct {
	mu    sync.RWMutex
	store port.Store

	trades  []model.TradeRecord
	signals []model.Signal
}

// NewLedger creates a ledger, loading any persisted history. Load failures
// are logged and start the ledger empty rather than failing construction.
func NewLedger(ctx context.Context, store port.Store) *Ledger {
	l := &Ledger{store: store}
	l.load(ctx)
	return l
}

func (l *Ledger) load(ctx context.Context) {
	if l.store == nil {
		return
	}
	if raw, err := l.store.Load(ctx, keyTradeHistory); err == nil {
		if err := json.Unmarshal(raw, &l.trades); err != nil {
			log.Error().Err(err).Msg("decode trade history failed")
		} else {
			log.Info().Int("trades", len(l.trades)).Msg("trade history loaded")
		}
	} else if !errors.Is(err, port.ErrNotFound) {
		log.Error().Err(err).Msg("load trade history failed")
	}

	if raw, err := l.store.Load(ctx, keySignalHistory); err == nil {
		if err := json.Unmarshal(raw, &l.signals); err != nil {
			log.Error().Err(err).Msg("decode signal history failed")
		} else {
			log.Info().Int("signals", len(l.signals)).Msg("signal history loaded")
		}
	} else if !errors.Is(err, port.ErrNotFound) {
		log.Error().Err(err).Msg("load signal history failed")
	}

	l.trades = evictTrades(l.trades)
	l.signals = evictSignals(l.signals)
}

// AppendTrade records one executed order, dropping the oldest record once
// the cap is reached.
func (l *Ledger) AppendTrade(record model.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = evictTrades(append(l.trades, record))
}

// AppendSignal records one received signal, dropping the oldest once the cap
// is reached.
func (l *Ledger) AppendSignal(signal model.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = evictSignals(append(l.signals, signal))
}

// Trades returns a copy of the full trade history, oldest first.
func (l *Ledger) Trades() []model.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Signals returns a copy of the full signal history, oldest first.
func (l *Ledger) Signals() []model.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Signal, len(l.signals))
	copy(out, l.signals)
	return out
}

// RecentTrades returns up to n most recent trades, oldest first.
func (l *Ledger) RecentTrades(n int) []model.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := len(l.trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.TradeRecord, len(l.trades)-start)
	copy(out, l.trades[start:])
	return out
}

// RecentSignals returns up to n most recent signals, oldest first.
func (l *Ledger) RecentSignals(n int) []model.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := len(l.signals) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.Signal, len(l.signals)-start)
	copy(out, l.signals[start:])
	return out
}

// LastSignal returns the most recent signal, or nil when none was received.
func (l *Ledger) LastSignal() *model.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.signals) == 0 {
		return nil
	}
	s := l.signals[len(l.signals)-1]
	return &s
}

// Persist writes both histories through the store. Only the most recent
// signal tail is durable.
func (l *Ledger) Persist(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	l.mu.RLock()
	trades, errT := json.Marshal(l.trades)
	signals, errS := json.Marshal(l.signals)
	l.mu.RUnlock()

	if errT != nil {
		return errT
	}
	if errS != nil {
		return errS
	}

	if err := l.store.Save(ctx, keyTradeHistory, trades); err != nil {
		return err
	}
	return l.store.Save(ctx, keySignalHistory, signals)
}

func evictTrades(trades []model.TradeRecord) []model.TradeRecord {
	if len(trades) > maxTradeRecords {
		trades = trades[len(trades)-maxTradeRecords:]
	}
	return trades
}

func evictSignals(signals []model.Signal) []model.Signal {
	if len(signals) > maxSignalRecords {
		signals = signals[len(signals)-maxSignalRecords:]
	}
	return signals
}
