package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCatalogCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCatalogCall("playlist_items", time.Now(), nil)
	m.RecordCatalogCall("playlist_items", time.Now(), nil)
	m.RecordCatalogCall("videos", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.CatalogCallsTotal.WithLabelValues("playlist_items", "ok")); got != 2 {
		t.Fatalf("expected 2 ok calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.CatalogCallsTotal.WithLabelValues("videos", "error")); got != 1 {
		t.Fatalf("expected 1 failed call, got %v", got)
	}
}

func TestRecordImport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordImport("success", 120, time.Now())
	m.RecordImport("upstream_error", 0, time.Now())
	m.RecordOrphan()

	if got := testutil.ToFloat64(m.ImportedVideos); got != 120 {
		t.Fatalf("expected 120 imported videos, got %v", got)
	}
	if got := testutil.ToFloat64(m.ImportsTotal.WithLabelValues("upstream_error")); got != 1 {
		t.Fatalf("expected 1 failed import, got %v", got)
	}
	if got := testutil.ToFloat64(m.OrphanedPlaylists); got != 1 {
		t.Fatalf("expected 1 orphan, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordCatalogCall("videos", time.Now(), nil)
	m.RecordCatalogRetry("videos")
	m.RecordImport("success", 1, time.Now())
	m.RecordOrphan()
}
