package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncCVAnalyses()
	ObserveCVAnalysisDurationMs(30)
	ObserveCVAnalysisDurationMs(-1)

	out := Render()
	for _, want := range []string{
		"# TYPE cv_analyses_total counter",
		"# TYPE cv_analysis_duration_ms histogram",
		`cv_analysis_duration_ms_bucket{le="+Inf"}`,
		"processing_jobs_deleted_unrecoverable_total",
		"http_rate_limited_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramCountsFirstMatchingBucket(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected 3 observations, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
}
