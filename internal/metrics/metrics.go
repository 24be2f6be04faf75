// Package metrics exposes Prometheus collectors for ingestion runs and the
// read-only server.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "radar"

// Run outcomes recorded by ObserveRun.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal            *prometheus.CounterVec
	runDurationSeconds   prometheus.Histogram
	lastSuccessTimestamp prometheus.Gauge
	newListingsTotal     prometheus.Counter
	storedListings       prometheus.Gauge
	sourcePagesTotal     *prometheus.CounterVec
	sourceCandidates     *prometheus.CounterVec
	sourceStopsTotal     *prometheus.CounterVec
	publishedTotal       *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
}

// New builds a Recorder on a fresh registry. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	r := &Recorder{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of ingestion runs, labeled by outcome.",
		}, []string{"outcome"}),
		runDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Histogram of ingestion run durations.",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
		}),
		lastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful ingestion run.",
		}),
		newListingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_listings_total",
			Help:      "Total number of listings not previously stored.",
		}),
		storedListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_listings",
			Help:      "Number of listings retained after the last run.",
		}),
		sourcePagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pages_total",
			Help:      "Total number of listing pages fetched, labeled by source.",
		}, []string{"source"}),
		sourceCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_candidates_total",
			Help:      "Total number of recent candidate listings, labeled by source.",
		}, []string{"source"}),
		sourceStopsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_stops_total",
			Help:      "Pagination stops, labeled by source and reason.",
		}, []string{"source", "reason"}),
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "New-listing notifications, labeled by status.",
		}, []string{"status"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		}, []string{"method", "code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		r.runsTotal,
		r.runDurationSeconds,
		r.lastSuccessTimestamp,
		r.newListingsTotal,
		r.storedListings,
		r.sourcePagesTotal,
		r.sourceCandidates,
		r.sourceStopsTotal,
		r.publishedTotal,
		r.httpRequestsTotal,
		r.httpRequestDuration,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler returns an http.Handler for exposing the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveSource records one source's pagination outcome.
func (r *Recorder) ObserveSource(source string, pages, candidates int, reason string) {
	r.sourcePagesTotal.WithLabelValues(source).Add(float64(pages))
	r.sourceCandidates.WithLabelValues(source).Add(float64(candidates))
	r.sourceStopsTotal.WithLabelValues(source, reason).Inc()
}

// ObserveRun records a finished run. newCount and stored are only applied
// on success.
func (r *Recorder) ObserveRun(outcome string, duration time.Duration, newCount, stored int, finished time.Time) {
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runDurationSeconds.Observe(duration.Seconds())
	if outcome != OutcomeSuccess {
		return
	}
	r.newListingsTotal.Add(float64(newCount))
	r.storedListings.Set(float64(stored))
	r.lastSuccessTimestamp.Set(float64(finished.Unix()))
}

// ObservePublish records notification results.
func (r *Recorder) ObservePublish(published, failed int) {
	r.publishedTotal.WithLabelValues("ok").Add(float64(published))
	r.publishedTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (r *Recorder) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
