package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks meme-of-the-day cache effectiveness.
type CacheMetrics struct {
	Hits       *prometheus.CounterVec
	Misses     *prometheus.CounterVec
	Selections prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "motd_cache",
			Name:      "hits_total",
			Help:      "Total number of meme-of-the-day cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "motd_cache",
			Name:      "misses_total",
			Help:      "Total number of meme-of-the-day cache misses, by layer.",
		}, []string{"layer"}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "motd",
			Name:      "selections_total",
			Help:      "Total number of fresh meme-of-the-day selections.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Selections)
	return m
}
