// Package metrics owns the Prometheus registry and the metric families of each subsystem.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memeboard"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Set bundles every metric family the service exports.
type Set struct {
	HTTP       *HTTPMetrics
	Engagement *EngagementMetrics
	Cache      *CacheMetrics
	Store      *StoreMetrics
}

func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		HTTP:       NewHTTPMetrics(reg),
		Engagement: NewEngagementMetrics(reg),
		Cache:      NewCacheMetrics(reg),
		Store:      NewStoreMetrics(reg),
	}
}
