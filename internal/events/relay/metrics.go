package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published      prometheus.Counter
	PublishFailed  prometheus.Counter
	PendingBacklog prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_outbox_published_total",
			Help: "Ledger events published to Kafka",
		}),
		PublishFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_outbox_publish_failures_total",
			Help: "Outbox batches that failed to publish",
		}),
		PendingBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundledger_outbox_last_batch_size",
			Help: "Unpublished events picked up by the last relay pass",
		}),
	}
}
