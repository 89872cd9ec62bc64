// Package metrics provides application metrics collection.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus metrics.
type Collector struct {
	// Intake metrics
	IntakeRequestsTotal *prometheus.CounterVec
	UploadsTotal        *prometheus.CounterVec
	UploadBytes         prometheus.Counter

	// Ingest pipeline metrics
	IngestTransfersTotal *prometheus.CounterVec
	IngestDuration       prometheus.Histogram

	// Channel metrics
	ReadingsTotal      *prometheus.CounterVec
	ChannelFetchErrors *prometheus.CounterVec

	// Forecast metrics
	ComposeCyclesTotal *prometheus.CounterVec
	ComposeDuration    prometheus.Histogram
}

// NewCollector creates a new metrics collector registered with the default
// registry.
func NewCollector(namespace string) *Collector {
	return &Collector{
		IntakeRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_requests_total",
				Help:      "Total number of intake HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		UploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total number of camera-station uploads by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		UploadBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Total bytes received from camera-station uploads",
			},
		),

		IngestTransfersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_transfers_total",
				Help:      "Total ingest pipeline outcomes by kind and state",
			},
			[]string{"kind", "state"},
		),

		IngestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Ingest pipeline processing duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
		),

		ReadingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "readings_total",
				Help:      "Total normalized weather readings stored by channel",
			},
			[]string{"channel"},
		),

		ChannelFetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "channel_fetch_errors_total",
				Help:      "Total channel fetch failures by source",
			},
			[]string{"source"},
		),

		ComposeCyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compose_cycles_total",
				Help:      "Total forecast compose cycles by outcome",
			},
			[]string{"outcome"},
		),

		ComposeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compose_duration_seconds",
				Help:      "Forecast compose cycle duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 15.0, 30.0},
			},
		),
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
