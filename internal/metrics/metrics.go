// Package metrics holds the Prometheus collectors for capability lifecycles and
// invocations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every capctl collector is registered on.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	probesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "capctl_probes_total",
		Help: "Availability probes by capability and resulting status",
	}, []string{"kind", "status"}) // status=downloadable|downloading|available|unavailable|not_supported|error

	downloadsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "capctl_downloads_total",
		Help: "Capability resource downloads by outcome",
	}, []string{"kind", "outcome"}) // outcome=success|failure

	downloadProgress = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "capctl_download_progress_percent",
		Help: "Last reported download progress per capability",
	}, []string{"kind"})

	invocationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "capctl_invocations_total",
		Help: "Capability invocations by mode and outcome",
	}, []string{"kind", "mode", "outcome"}) // mode=once|stream, outcome=completed|cancelled|failed

	invocationDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "capctl_invocation_duration_seconds",
		Help:    "Wall time from invocation start until it settles",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind", "mode"})

	streamChunksTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "capctl_stream_chunks_total",
		Help: "Streamed chunks consumed per capability",
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordProbe counts a probe result.
func RecordProbe(kind, status string) {
	probesTotal.WithLabelValues(kind, status).Inc()
}

// RecordDownload counts a finished download.
func RecordDownload(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	downloadsTotal.WithLabelValues(kind, outcome).Inc()
}

// SetDownloadProgress publishes the latest progress value.
func SetDownloadProgress(kind string, percent float64) {
	downloadProgress.WithLabelValues(kind).Set(percent)
}

// RecordInvocation counts a settled invocation and observes its duration.
func RecordInvocation(kind, mode, outcome string, d time.Duration) {
	invocationsTotal.WithLabelValues(kind, mode, outcome).Inc()
	invocationDuration.WithLabelValues(kind, mode).Observe(d.Seconds())
}

// AddStreamChunks counts consumed stream chunks.
func AddStreamChunks(kind string, n int) {
	if n > 0 {
		streamChunksTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
