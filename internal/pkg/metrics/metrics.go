package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bbbab_files"

// Metrics holds the service collectors. The Observe methods are no-ops on a
// nil *Metrics, so callers may leave metrics unset. The accessors and Handler
// need a value from New.
type Metrics struct {
	uploads        *prometheus.CounterVec
	downloads      *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	handler        http.Handler
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by outcome.",
		}, []string{"outcome"}),
		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Download link requests by outcome.",
		}, []string{"outcome"}),
		uploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time spent in the upload pipeline.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
}

func (m *Metrics) ObserveUpload(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	m.uploadDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveDownload(outcome string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) UploadCount(outcome string) prometheus.Counter {
	return m.uploads.WithLabelValues(outcome)
}

func (m *Metrics) DownloadCount(outcome string) prometheus.Counter {
	return m.downloads.WithLabelValues(outcome)
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
