package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "kvstore"

var (
	StagedActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "staged_actions_total",
			Help:      "Counter of actions appended to the pending queue.",
		}, []string{"type"})

	CommittedActions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commit",
			Name:      "applied_actions_total",
			Help:      "Counter of pending actions applied to the store.",
		})

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commit",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of commit drain time (s).",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
		})

	SnapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of snapshot save/restore time (s).",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"op", "result"})
)

// Collectors returns the process-wide collectors so each server can expose
// them on its own registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		StagedActions,
		CommittedActions,
		CommitDuration,
		SnapshotDuration,
	}
}

// Gauges describes live sizes sampled at scrape time.
type Gauges interface {
	Len() int
	Pending() int
}

// NewRegistry builds a registry holding the package collectors plus gauges
// bound to g.
func NewRegistry(g Gauges) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	keys := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "keys",
		Help:      "Number of keys in the authoritative store.",
	}, func() float64 { return float64(g.Len()) })
	pending := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "pending_actions",
		Help:      "Number of actions waiting for commit.",
	}, func() float64 { return float64(g.Pending()) })
	for _, c := range []prometheus.Collector{keys, pending} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
