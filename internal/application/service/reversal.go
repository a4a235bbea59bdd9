package service

import (
	"strings"

	"github.com/rs/zerolog/log"

	"sigtrader/internal/domain/model"
)

var confirmationKeywords = []string{"breakout", "reversal", "confirmed"}

// ShouldReverse decides whether an opposing signal warrants closing the
// current position and flipping to the other side.
//
// Never reverses when flat or when the signal agrees with the position. For
// an opposing signal it reverses immediately when the stop-loss or
// take-profit bound is breached, on HIGH confidence, or on MEDIUM confidence
// backed by a confirmation keyword in the rationale. LOW and unconfirmed
// MEDIUM signals are left for the scale-in/ignore paths.
func ShouldReverse(signal model.Signal, position *model.Position, cfg model.TradingConfig) bool {
	if !position.Open() {
		return false
	}

	opposite := (position.Side == model.SideLong && signal.Action == model.SignalSell) ||
		(position.Side == model.SideShort && signal.Action == model.SignalBuy)
	if !opposite {
		return false
	}

	pnlPercent := position.PnLPercent()

	if pnlPercent < -cfg.MaxLossPercent {
		log.Warn().
			Float64("pnl_percent", pnlPercent).
			Float64("max_loss_percent", cfg.MaxLossPercent).
			Msg("loss beyond threshold, reversing")
		return true
	}
	if pnlPercent > cfg.TargetProfitPercent {
		log.Info().
			Float64("pnl_percent", pnlPercent).
			Float64("target_profit_percent", cfg.TargetProfitPercent).
			Msg("profit target reached, reversing")
		return true
	}

	switch signal.Confidence {
	case model.ConfidenceHigh:
		log.Info().Msg("high confidence signal, reversing")
		return true
	case model.ConfidenceMedium:
		if containsAny(strings.ToLower(signal.Reason), confirmationKeywords) {
			log.Info().Msg("medium confidence signal with confirmation, reversing")
			return true
		}
	}
	return false
}
