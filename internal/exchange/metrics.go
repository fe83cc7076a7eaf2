package exchange

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "fundledger/pkg/domain-errors"
)

type Metrics struct {
	SwapDuration *prometheus.HistogramVec
	BreakerOpen  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SwapDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fundledger_exchange_swap_duration_seconds",
			Help:    "Latency of swap calls to the exchange venue by outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundledger_exchange_breaker_open",
			Help: "1 while the exchange circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveSwap(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.SwapDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
