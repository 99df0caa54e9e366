// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed turns by intent and outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripbrain_turns_total",
		Help: "Processed conversation turns by intent and outcome.",
	}, []string{"intent", "outcome"})

	// CacheLookups counts cache reads by query kind and result
	// (hit, stale, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripbrain_cache_lookups_total",
		Help: "Cache lookups by kind and result.",
	}, []string{"kind", "result"})

	// ProviderFailures counts external provider failures by source.
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripbrain_provider_failures_total",
		Help: "External provider failures by source.",
	}, []string{"source"})

	// RequestDuration observes HTTP handler latency by route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripbrain_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
