// Package observability wires Prometheus metrics and OpenTelemetry
// tracing around the thin HTTP transport, grounded on the teacher's
// internal/infrastructure/observability/{metrics,tracing}.go. The
// transport boundary is instrumented here, plus the lifecycle tick
// counter that the Scheduler bumps on each cron tick — other counters
// inside the Sieve/Gate/Lifecycle stay in their own structured log
// lines (internal/logging), matching spec §1's framing of metrics as
// an out-of-core-scope collaborator around the core subsystems.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every Prometheus series Cortex's HTTP boundary
// reports. Grounded on the teacher's Collector shape (a registry plus
// named CounterVec/HistogramVec fields), narrowed from the teacher's
// graph-specific business counters to Cortex's recall/ingest/lifecycle
// ones.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	IngestExtracted    prometheus.Counter
	IngestDeduplicated prometheus.Counter
	IngestSmartUpdated prometheus.Counter
	RecallInjected     prometheus.Counter
	LifecycleTicks     prometheus.Counter
}

// NewCollector builds a fresh registry and registers every series
// under namespace. Unlike the teacher's process-wide singleton,
// Cortex constructs exactly one Collector at boot and threads it
// through explicitly, so no global/mutex guard is needed.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		IngestExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_extracted_total",
			Help:      "Total memories inserted by the Sieve across both channels.",
		}),
		IngestDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_deduplicated_total",
			Help:      "Total extractions skipped as exact/semantic duplicates.",
		}),
		IngestSmartUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_smart_updated_total",
			Help:      "Total extractions that superseded an existing memory.",
		}),
		RecallInjected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recall_injected_total",
			Help:      "Total memories injected into a recall context string.",
		}),
		LifecycleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_ticks_total",
			Help:      "Total lifecycle engine passes completed.",
		}),
	}

	reg.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.IngestExtracted, c.IngestDeduplicated, c.IngestSmartUpdated,
		c.RecallInjected, c.LifecycleTicks,
	)
	return c
}

// Handler exposes the registry for scraping at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
