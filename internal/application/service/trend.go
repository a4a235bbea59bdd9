package service

import (
	"strings"

	talib "github.com/markcheno/go-talib"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

var (
	strengthKeywords = []string{"breakout", "strong", "clear", "decisive"}
	shiftKeywords    = []string{"reversal", "turning", "shift"}
)

// KeywordScorer estimates trend strength from the signal's confidence label
// and rationale keywords. Brittle by nature, and scoped as a heuristic: it
// only scales order size within [0.8, 1.2].
type KeywordScorer struct{}

var _ port.TrendScorer = KeywordScorer{}

// Score returns a strength in [0,1]: a confidence base plus keyword boosts.
func (KeywordScorer) Score(signal model.Signal, _ []model.Candle) float64 {
	var base float64
	switch signal.Confidence {
	case model.ConfidenceHigh:
		base = 0.8
	case model.ConfidenceLow:
		base = 0.3
	default:
		base = 0.5
	}

	reason := strings.ToLower(signal.Reason)
	if containsAny(reason, strengthKeywords) {
		base += 0.2
	}
	if containsAny(reason, shiftKeywords) {
		base += 0.1
	}
	if base > 1.0 {
		base = 1.0
	}
	return base
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// indicatorMinCandles is the history needed for a stable ADX reading.
const indicatorMinCandles = 30

// IndicatorScorer estimates trend strength from recent candles: ADX for
// trend intensity, EMA slope for direction agreement with the signal. Falls
// back to the keyword scorer when history is too short.
type IndicatorScorer struct {
	Fallback port.TrendScorer
}

var _ port.TrendScorer = IndicatorScorer{}

func (s IndicatorScorer) Score(signal model.Signal, candles []model.Candle) float64 {
	if len(candles) < indicatorMinCandles || signal.Action == model.SignalHold {
		return s.fallback(signal, candles)
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}

	adx := talib.Adx(highs, lows, closes, 14)
	ema := talib.Ema(closes, 20)

	// ADX above ~50 is an unambiguous trend.
	strength := adx[len(adx)-1] / 50
	if strength > 1 {
		strength = 1
	}
	if strength < 0 {
		strength = 0
	}

	slopeUp := ema[len(ema)-1] > ema[len(ema)-2]
	agrees := (slopeUp && signal.Action == model.SignalBuy) ||
		(!slopeUp && signal.Action == model.SignalSell)
	if agrees {
		strength += 0.2
	} else {
		strength -= 0.1
	}

	if strength > 1 {
		strength = 1
	}
	if strength < 0 {
		strength = 0
	}
	return strength
}

func (s IndicatorScorer) fallback(signal model.Signal, candles []model.Candle) float64 {
	if s.Fallback != nil {
		return s.Fallback.Score(signal, candles)
	}
	return KeywordScorer{}.Score(signal, candles)
}
