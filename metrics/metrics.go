// Package metrics declares the prometheus collectors of the ledger, the
// forward registry and the payment batcher. They are registered with the
// default registry on import and exposed by the launcher when --metrics is
// set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hermes_build_info",
			Help: "Build information of hermes",
		},
		[]string{"version", "network"},
	)

	DistributeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_distribute_total",
			Help: "Total number of distributeRewards calls",
		},
		[]string{"status"},
	)

	DistributeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hermes_distribute_duration_seconds",
			Help:    "Duration of distributeRewards calls",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)

	RecipientsCredited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hermes_recipients_credited_total",
			Help: "Total number of recipients credited",
		},
	)

	RecipientsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hermes_recipients_forwarded_total",
			Help: "Total number of credits paid to a registered forwarder",
		},
	)

	CommitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_commit_total",
			Help: "Total number of commitDistributions calls",
		},
		[]string{"status"},
	)

	RegistryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_registry_operations_total",
			Help: "Total number of accepted registry operations",
		},
		[]string{"operation"},
	)

	RegistryRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_registry_rejected_total",
			Help: "Total number of rejected registry operations",
		},
		[]string{"reason"},
	)

	BatchSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_batch_sends_total",
			Help: "Total number of payment batches",
		},
		[]string{"status"},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hermes_batch_size",
			Help:    "Number of payees per payment batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		},
	)
)

// Status renders an error as the status label used by the vectors above.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
