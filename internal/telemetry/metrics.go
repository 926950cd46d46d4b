// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer used around each refresh.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultEmpty = "empty"
	ResultStale = "stale"
)

type Metrics struct {
	registry *prometheus.Registry

	Refreshes   *prometheus.CounterVec
	FetchTime   prometheus.Histogram
	AggTime     prometheus.Histogram
	Records     prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// NewMetrics registers every collector on a private registry so tests can
// build as many as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmdash",
			Name:      "refreshes_total",
			Help:      "Dashboard refreshes by outcome.",
		}, []string{"result"}),
		FetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crmdash",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching the CRM export.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 180},
		}),
		AggTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crmdash",
			Name:      "aggregate_duration_seconds",
			Help:      "Time spent building a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(.001, 4, 8),
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crmdash",
			Name:      "records",
			Help:      "Records in the latest snapshot.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crmdash",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest stored snapshot.",
		}),
	}
	m.registry.MustRegister(
		m.Refreshes, m.FetchTime, m.AggTime, m.Records, m.LastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Observe(result string) {
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Stored(records int, at time.Time) {
	m.Records.Set(float64(records))
	m.LastSuccess.Set(float64(at.Unix()))
}
