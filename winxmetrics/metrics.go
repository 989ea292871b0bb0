// Package winxmetrics declares the Prometheus vectors the indexer exposes
// alongside store/pebblestore's engine-internal Collector, in the same
// package-scope-*Vec style the teacher uses for its own op/sync counters.
package winxmetrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "winx"

var (
	// QueueDepth reports the current length of each shard's queue.
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "shard",
		Name:      "queue_depth",
		Help:      "Number of request IDs currently queued per shard.",
	}, []string{"shard"})

	// WorkerBusy is 1 while a shard's worker is executing a handler, 0
	// while it is idle-polling.
	WorkerBusy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "busy",
		Help:      "1 if the shard's worker is currently inside a handler call.",
	}, []string{"shard"})

	// ChunksProcessed counts chunks handed to a handler, by outcome.
	ChunksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "chunks_processed_total",
		Help:      "Chunks dispatched to a route handler, labeled by outcome.",
	}, []string{"outcome"})

	// GCRequestsPruned counts requests removed by a GC sweep, by reason.
	GCRequestsPruned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gc",
		Name:      "requests_pruned_total",
		Help:      "Requests removed from the registry by garbage collection.",
	}, []string{"reason"})

	// GCSweepDuration observes how long one GC tick took.
	GCSweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gc",
		Name:      "sweep_duration_seconds",
		Help:      "Wall time spent in one GC sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	// RegistrySize reports the live request count.
	RegistrySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "size",
		Help:      "Number of requests currently tracked in the registry.",
	})
)

// MustRegister registers every metric above with r. Called once by
// cmd/windexd at startup.
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(QueueDepth, WorkerBusy, ChunksProcessed, GCRequestsPruned, GCSweepDuration, RegistrySize)
}
