package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "profile_compare"

// Metrics holds the Prometheus collectors for cache, upstream and fallback activity.
// It satisfies cache.Observer, fetch.Observer and resolver.Observer.
type Metrics struct {
	cacheRequests      *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	syntheticFallbacks prometheus.Counter
	comparisons        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache name and result (hit or miss).",
		}, []string{"cache", "result"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream API calls by endpoint and outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint", "outcome"}),
		syntheticFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthetic_fallbacks_total",
			Help:      "Profiles replaced by synthetic placeholders because the upstream was unavailable.",
		}),
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Comparisons built, by whether both sides resolved.",
		}, []string{"complete"}),
	}

	if reg != nil {
		reg.MustRegister(m.cacheRequests, m.upstreamDuration, m.syntheticFallbacks, m.comparisons)
	}
	return m
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit(cache string) {
	m.cacheRequests.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss(cache string) {
	m.cacheRequests.WithLabelValues(cache, "miss").Inc()
}

// ObserveUpstream records the latency of one upstream call.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	m.upstreamDuration.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

// SyntheticFallback records a synthetic profile.
func (m *Metrics) SyntheticFallback(_ string) {
	m.syntheticFallbacks.Inc()
}

// ComparisonBuilt records a comparison.
func (m *Metrics) ComparisonBuilt(complete bool) {
	label := "false"
	if complete {
		label = "true"
	}
	m.comparisons.WithLabelValues(label).Inc()
}
