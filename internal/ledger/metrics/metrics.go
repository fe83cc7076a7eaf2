package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fundledger/pkg/domain"
)

// Contribution paths.
const (
	PathNative = "native"
	PathToken  = "token"
)

type Metrics struct {
	CampaignsCreated   prometheus.Counter
	Donations          *prometheus.CounterVec
	AcceptedVolume     prometheus.Counter
	Refunds            *prometheus.CounterVec
	Withdrawals        prometheus.Counter
	WithdrawalVolume   prometheus.Counter
	RejectedOperations *prometheus.CounterVec
	GuardContention    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CampaignsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_campaigns_created_total",
			Help: "Total number of campaigns created",
		}),
		Donations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundledger_donations_total",
			Help: "Total number of accepted contributions by path",
		}, []string{"path"}),
		AcceptedVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_donations_accepted_units_total",
			Help: "Settlement-asset units accepted into campaigns (approximate above 2^53)",
		}),
		Refunds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundledger_refunds_total",
			Help: "Total number of change refunds by path",
		}, []string{"path"}),
		Withdrawals: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_withdrawals_total",
			Help: "Total number of completed withdrawals",
		}),
		WithdrawalVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_withdrawn_units_total",
			Help: "Settlement-asset units paid out to campaign owners (approximate above 2^53)",
		}),
		RejectedOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundledger_ledger_rejections_total",
			Help: "Ledger operations rejected, by operation and error code",
		}, []string{"operation", "code"}),
		GuardContention: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundledger_withdraw_guard_contention_total",
			Help: "Withdrawals refused because another withdrawal held the guard",
		}),
	}
}

func (m *Metrics) IncrementCampaignsCreated() {
	m.CampaignsCreated.Inc()
}

func (m *Metrics) ObserveDonation(path string, accepted, change domain.Amount) {
	m.Donations.WithLabelValues(path).Inc()
	m.AcceptedVolume.Add(accepted.Float64())
	if !change.IsZero() {
		m.Refunds.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) ObserveWithdrawal(amount domain.Amount) {
	m.Withdrawals.Inc()
	m.WithdrawalVolume.Add(amount.Float64())
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.RejectedOperations.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) IncrementGuardContention() {
	m.GuardContention.Inc()
}
