package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	WebhookEvents      *prometheus.CounterVec
	WalletCredits      prometheus.Counter
	ResolutionFailures *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_webhook_events_total",
			Help: "Webhook events by type and processing outcome.",
		}, []string{"event_type", "outcome"}),
		WalletCredits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_wallet_credits_total",
			Help: "Wallet credits applied.",
		}),
		ResolutionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_resolution_failures_total",
			Help: "Partner resolution and reconciliation failures by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) RecordWalletCredit() {
	if m == nil {
		return
	}
	m.WalletCredits.Inc()
}

func (m *Metrics) RecordResolutionFailure(reason string) {
	if m == nil {
		return
	}
	m.ResolutionFailures.WithLabelValues(reason).Inc()
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
