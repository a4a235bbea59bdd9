// Package metrics exposes the bot's Prometheus instrumentation:
//
//   - bot_cycles_total{outcome} – trading cycles by terminal outcome
//   - bot_orders_total{side,action} – placed orders by side and action tag
//   - bot_equity_usd – account equity snapshot (gauge)
//   - bot_error_count – consecutive cycle errors (gauge)
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sigtrader/internal/application/port"
	"sigtrader/internal/domain/model"
)

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Trading cycles by terminal outcome",
		},
		[]string{"outcome"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed",
		},
		[]string{"side", "action"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_usd",
			Help: "Account equity in USD",
		},
	)

	mtxErrorCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_error_count",
			Help: "Consecutive trading cycle errors",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxOrders, mtxEquity, mtxErrorCount)
}

// Recorder implements port.MetricsRecorder over the package counters.
type Recorder struct{}

var _ port.MetricsRecorder = Recorder{}

// NewRecorder returns a recorder.
func NewRecorder() Recorder { return Recorder{} }

func (Recorder) RecordCycle(outcome model.Outcome) {
	mtxCycles.WithLabelValues(string(outcome.Status)).Inc()
}

func (Recorder) RecordOrder(side model.OrderSide, action model.TradeAction) {
	mtxOrders.WithLabelValues(string(side), string(action)).Inc()
}

func (Recorder) SetEquity(usd float64) { mtxEquity.Set(usd) }

func (Recorder) SetErrorCount(n int) { mtxErrorCount.Set(float64(n)) }

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler { return promhttp.Handler() }
