package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReceiptsIssued      prometheus.Counter
	ReceiptsTransferred prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReceiptsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_receipts_issued_total",
			Help: "Total number of donor receipts minted",
		}),
		ReceiptsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_receipts_transferred_total",
			Help: "Total number of receipt ownership transfers",
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	m.ReceiptsIssued.Inc()
}

func (m *Metrics) IncrementTransferred() {
	m.ReceiptsTransferred.Inc()
}
