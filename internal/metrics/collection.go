package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collection pipeline metrics.
var (
	CollectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Collections by outcome",
		},
		[]string{"outcome"},
	)

	CollectionStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_step_duration_seconds",
			Help:      "Duration of each browser step of a collection",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"step"},
	)

	DetailFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_fetches_total",
			Help:      "Detail page fetches by status",
		},
		[]string{"status"}, // "ok" / "error"
	)

	BrowserSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_sessions_active",
			Help:      "Browser sessions currently acquired",
		},
	)
)

var collectionMetricsRegistered bool

// RegisterCollectionMetrics registers the collection metrics. Must be called once from main.
func RegisterCollectionMetrics() {
	if collectionMetricsRegistered {
		return
	}
	prometheus.MustRegister(CollectionsTotal)
	prometheus.MustRegister(CollectionStepDuration)
	prometheus.MustRegister(DetailFetchesTotal)
	prometheus.MustRegister(BrowserSessionsActive)
	collectionMetricsRegistered = true
}
