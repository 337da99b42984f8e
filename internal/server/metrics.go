package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the prometheus instruments for the API server.
type metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	reloadsTotal      prometheus.Counter
	reloadFailures    prometheus.Counter
	reloadDuration    prometheus.Gauge
	environmentsReady prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microlens",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by path and status code.",
		}, []string{"path", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "microlens",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		reloadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "microlens",
			Name:      "pipeline_reloads_total",
			Help:      "Completed pipeline reloads, successful or not.",
		}),
		reloadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "microlens",
			Name:      "pipeline_reload_failures_total",
			Help:      "Pipeline reloads that ended in an error.",
		}),
		reloadDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "microlens",
			Name:      "pipeline_reload_duration_seconds",
			Help:      "Duration of the most recent pipeline run.",
		}),
		environmentsReady: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "microlens",
			Name:      "environments_ready",
			Help:      "Environments available in the current snapshot.",
		}),
	}
}
