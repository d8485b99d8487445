// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Operation outcomes
	IssuancesTotal *prometheus.CounterVec // outcome: ok | error
	TransfersTotal *prometheus.CounterVec // outcome: ok | error

	// Ledger interaction
	ConfirmationDuration prometheus.Histogram
	SubmissionErrors     *prometheus.CounterVec // kind label

	// Registry
	RegistrySubmissionsTotal *prometheus.CounterVec // outcome: ok | error | skipped
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_api"
	}

	return &Metrics{
		IssuancesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issuances_total",
			Help:      "Token issuance requests by outcome",
		}, []string{"outcome"}),
		TransfersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Token transfer requests by outcome",
		}, []string{"outcome"}),
		ConfirmationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_duration_seconds",
			Help:      "Time from submission to confirmed commitment",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		SubmissionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_errors_total",
			Help:      "Failed ledger operations by error kind",
		}, []string{"kind"}),
		RegistrySubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_submissions_total",
			Help:      "Registry proposal attempts by outcome",
		}, []string{"outcome"}),
	}
}
