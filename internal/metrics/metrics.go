// Package metrics registers the Prometheus series the pipeline emits. A
// Metrics value owns its own registry, so each task shares the one
// instance constructed at startup rather than touching Prometheus's
// global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solindexer"

// Metrics holds every counter/gauge/histogram the pipeline emits, plus the
// registry they were registered against.
type Metrics struct {
	Registry *prometheus.Registry

	UpdatesReceived       prometheus.Counter
	TransactionsProcessed prometheus.Counter
	AccountsProcessed     prometheus.Counter
	BlocksProcessed       prometheus.Counter
	StreamErrors          prometheus.Counter
	DBErrors              prometheus.Counter
	DBWriteLatencyMs      prometheus.Histogram
	IndexerLagSlots       prometheus.Gauge
}

// New builds a fresh registry and registers the full metric set against it,
// up front rather than lazily on first use. Each call returns an
// independent registry, so multiple Metrics instances (e.g. one per test)
// never collide on duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		UpdatesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_received_total",
			Help:      "Total Update items received from the upstream firehose.",
		}),
		TransactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_processed_total",
			Help:      "Total TransactionUpdate items classified by the supervisor.",
		}),
		AccountsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_processed_total",
			Help:      "Total AccountUpdate items classified by the supervisor.",
		}),
		BlocksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_processed_total",
			Help:      "Total BlockUpdate items classified by the supervisor.",
		}),
		StreamErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Total transport errors surfaced by the receiver.",
		}),
		DBErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total row-level write failures abandoned by the writer.",
		}),
		DBWriteLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_write_latency_ms",
			Help:      "Wall-clock latency of a single batch flush, in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		IndexerLagSlots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexer_lag_slots",
			Help:      "max(0, tip_slot - slot) as of the most recent block update.",
		}),
	}
}
