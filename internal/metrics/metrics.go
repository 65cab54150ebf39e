package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CatalogCallsTotal  *prometheus.CounterVec
	CatalogCallLatency *prometheus.HistogramVec
	CatalogRetries     *prometheus.CounterVec
	ImportsTotal       *prometheus.CounterVec
	ImportedVideos     prometheus.Counter
	ImportDuration     prometheus.Histogram
	OrphanedPlaylists  prometheus.Counter
}

// New creates the service metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CatalogCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidlist_catalog_calls_total",
				Help: "Total number of YouTube Data API calls",
			},
			[]string{"op", "status"},
		),
		CatalogCallLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vidlist_catalog_call_duration_seconds",
				Help:    "Latency of YouTube Data API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		CatalogRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidlist_catalog_retries_total",
				Help: "Total number of retried YouTube Data API calls",
			},
			[]string{"op"},
		),
		ImportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidlist_playlist_imports_total",
				Help: "Total number of playlist imports by outcome",
			},
			[]string{"status"},
		),
		ImportedVideos: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vidlist_imported_videos_total",
				Help: "Total number of videos persisted by playlist imports",
			},
		),
		ImportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidlist_playlist_import_duration_seconds",
				Help:    "End-to-end duration of playlist imports",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		OrphanedPlaylists: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vidlist_orphaned_playlists_total",
				Help: "Playlists left without videos because cleanup after a failed import also failed",
			},
		),
	}

	reg.MustRegister(
		m.CatalogCallsTotal,
		m.CatalogCallLatency,
		m.CatalogRetries,
		m.ImportsTotal,
		m.ImportedVideos,
		m.ImportDuration,
		m.OrphanedPlaylists,
	)

	return m
}

func (m *Metrics) RecordCatalogCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CatalogCallsTotal.WithLabelValues(op, status).Inc()
	m.CatalogCallLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordCatalogRetry(op string) {
	if m == nil {
		return
	}
	m.CatalogRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordImport(status string, videos int, start time.Time) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportDuration.Observe(time.Since(start).Seconds())
	if videos > 0 {
		m.ImportedVideos.Add(float64(videos))
	}
}

func (m *Metrics) RecordOrphan() {
	if m == nil {
		return
	}
	m.OrphanedPlaylists.Inc()
}
