package service

import (
	"math"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

// Sizer computes order sizes from equity, risk parameters, signal confidence
// and trend strength. Pure aside from the injected scorer.
type Sizer struct {
	scorer port.TrendScorer
}

// NewSizer creates a sizer with the given trend scorer; nil defaults to the
// keyword scorer.
func NewSizer(scorer port.TrendScorer) *Sizer {
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	return &Sizer{scorer: scorer}
}

// Size computes the order size for a signal.
//
// Pipeline: risk-based base size, confidence multiplier, trend-strength
// multiplier in [0.8, 1.2], min/max clamps, 4dp rounding, then a same-side
// scale-in cap at MaxPositionSize. Fails closed (0) when equity or price is
// unusable, and returns 0 instead of a negative adjustment when the position
// already meets the cap.
func (s *Sizer) Size(signal model.Signal, position *model.Position, equity, price float64, candles []model.Candle, cfg model.TradingConfig) float64 {
	if equity <= 0 {
		log.Warn().Msg("no tradable equity, sizing to zero")
		return 0
	}
	if price <= 0 {
		log.Warn().Msg("no usable price, sizing to zero")
		return 0
	}

	base := (equity * cfg.RiskPercent / 100) * float64(cfg.Leverage) / price

	size := base * confidenceMultiplier(signal.Confidence)
	if size < cfg.MinOrderSize {
		size = cfg.MinOrderSize
	}

	strength := s.scorer.Score(signal, candles)
	size *= 0.8 + strength*0.4

	if size > cfg.MaxOrderSize {
		size = cfg.MaxOrderSize
	}
	if size < cfg.MinOrderSize {
		size = cfg.MinOrderSize
	}
	size = round4(size)

	// Same-side signal scales in: the combined position may not exceed the
	// cap, and a position already at the cap gets no trade at all.
	if position.Open() && position.Side == signal.Direction() {
		combined := position.Size + size
		if combined > cfg.MaxPositionSize {
			size = round4(cfg.MaxPositionSize - position.Size)
			if size <= 0 {
				log.Info().Msg("position at max size, skipping scale-in")
				return 0
			}
		}
	}

	log.Info().
		Float64("size", size).
		Str("confidence", string(signal.Confidence)).
		Float64("trend_strength", strength).
		Msg("position sized")
	return size
}

func confidenceMultiplier(c model.Confidence) float64 {
	switch c {
	case model.ConfidenceHigh:
		return 1.0
	case model.ConfidenceLow:
		return 0.5
	default:
		return 0.7
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
