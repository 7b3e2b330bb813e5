// Package metrics exposes the host's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Status string

const (
	Success Status = "success"
	Failure Status = "failure"
)

// Metrics owns a private registry so several hosts (tests) can live in one
// process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	requestCounter   *prometheus.CounterVec
	latencyHistogram *prometheus.HistogramVec
	writeCounter     *prometheus.CounterVec
	uploadBytes      prometheus.Counter
	pairCounter      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		latencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latency of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		writeCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snippet_writes_total",
				Help: "Total number of snippet writes by operation",
			},
			[]string{"op", "status"},
		),
		uploadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "media_upload_bytes_total",
				Help: "Total bytes of media stored",
			},
		),
		pairCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairing_attempts_total",
				Help: "Total number of pairing attempts",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.requestCounter,
		m.latencyHistogram,
		m.writeCounter,
		m.uploadBytes,
		m.pairCounter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.latencyHistogram.With(prometheus.Labels{"method": method, "route": route}).Observe(time.Since(start).Seconds())
}

// ObserveWrite counts a create, update, delete or upload.
func (m *Metrics) ObserveWrite(op string, status Status) {
	if m == nil {
		return
	}
	m.writeCounter.With(prometheus.Labels{"op": op, "status": string(status)}).Inc()
}

func (m *Metrics) AddUploadBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadBytes.Add(float64(n))
}

func (m *Metrics) ObservePairing(status Status) {
	if m == nil {
		return
	}
	m.pairCounter.WithLabelValues(string(status)).Inc()
}

// StatusOf maps an error to Success or Failure.
func StatusOf(err error) Status {
	if err != nil {
		return Failure
	}
	return Success
}
