package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCalls counts outbound Gemini calls
	UpstreamCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodifind_upstream_calls_total",
		Help: "Number of outbound generative API calls",
	})

	// Fallbacks counts discovery requests served by mock data after an
	// upstream failure. Missing-credential mock responses are not counted
	// here; that is an expected configuration, not a failure.
	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodifind_mock_fallbacks_total",
		Help: "Number of discovery results served by mock data after an upstream failure",
	})

	// CacheHits counts discovery cache hits
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodifind_cache_hits_total",
		Help: "Number of discovery cache hits",
	})

	// CacheMisses counts discovery cache misses
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodifind_cache_misses_total",
		Help: "Number of discovery cache misses",
	})

	// CacheErrors counts cache backend lookup failures, kept separate from
	// misses so a backend outage stays visible
	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodifind_cache_errors_total",
		Help: "Number of discovery cache lookup failures",
	})
)
