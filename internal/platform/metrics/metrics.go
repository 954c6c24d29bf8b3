// Package metrics exposes Prometheus collectors for the stats service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "bingo_stats"

// Outcome labels for WOM requests.
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeRateLimited = "rate_limited"
	OutcomeTransport   = "transport_error"
	OutcomeServerError = "server_error"
	OutcomeClientError = "client_error"
	OutcomeDecodeError = "decode_error"
	OutcomeCircuitOpen = "circuit_open"
)

// Recorder owns the service collectors. A nil Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	womRequests   *prometheus.CounterVec
	womRetries    *prometheus.CounterVec
	womLatency    *prometheus.HistogramVec
	bundleCache   *prometheus.CounterVec
	snapshotLoads *prometheus.CounterVec
}

type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

func WithLatencyBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// New registers all collectors on a fresh registry.
func New(opts ...Option) *Recorder {
	o := options{
		namespace: defaultNamespace,
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		womRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "wom",
			Name:      "requests_total",
			Help:      "WOM gained requests by metric and outcome.",
		}, []string{"metric", "outcome"}),
		womRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "wom",
			Name:      "retries_total",
			Help:      "WOM request retries by reason.",
		}, []string{"reason"}),
		womLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "wom",
			Name:      "request_duration_seconds",
			Help:      "Duration of single WOM request attempts.",
			Buckets:   o.buckets,
		}, []string{"metric"}),
		bundleCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "bundle_cache",
			Name:      "lookups_total",
			Help:      "Live bundle cache lookups by result.",
		}, []string{"result"}),
		snapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "snapshot",
			Name:      "loads_total",
			Help:      "Snapshot file loads by result.",
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		r.womRequests,
		r.womRetries,
		r.womLatency,
		r.bundleCache,
		r.snapshotLoads,
	)
	return r
}

func (r *Recorder) ObserveWOMRequest(metric, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.womRequests.WithLabelValues(metric, outcome).Inc()
	r.womLatency.WithLabelValues(metric).Observe(elapsed.Seconds())
}

func (r *Recorder) IncWOMRetry(reason string) {
	if r == nil {
		return
	}
	r.womRetries.WithLabelValues(reason).Inc()
}

func (r *Recorder) IncBundleCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.bundleCache.WithLabelValues(result).Inc()
}

func (r *Recorder) IncSnapshotLoad(result string) {
	if r == nil {
		return
	}
	r.snapshotLoads.WithLabelValues(result).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}
