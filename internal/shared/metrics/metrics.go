package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	cvAnalysesTotal        atomic.Uint64
	cvAnalysesFailedTotal  atomic.Uint64
	cvExtractionEmptyTotal atomic.Uint64

	processingJobsReceivedTotal  atomic.Uint64
	processingJobsCompletedTotal atomic.Uint64
	processingJobsFailedTotal    atomic.Uint64
	processingJobsDeletedTotal   atomic.Uint64
	processingJobsRetriedTotal   atomic.Uint64

	httpPanicsRecoveredTotal atomic.Uint64
	httpRateLimitedTotal     atomic.Uint64

	cvAnalysisDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500})
)

// IncCVAnalyses counts a CV that went through classification.
func IncCVAnalyses() {
	cvAnalysesTotal.Add(1)
}

// IncCVAnalysesFailed counts a CV that could not be analyzed.
func IncCVAnalysesFailed() {
	cvAnalysesFailedTotal.Add(1)
}

// IncCVExtractionEmpty counts uploads whose text extraction produced nothing.
func IncCVExtractionEmpty() {
	cvExtractionEmptyTotal.Add(1)
}

func IncProcessingJobsReceived() {
	processingJobsReceivedTotal.Add(1)
}

func IncProcessingJobsCompleted() {
	processingJobsCompletedTotal.Add(1)
}

func IncProcessingJobsFailed() {
	processingJobsFailedTotal.Add(1)
}

func IncProcessingJobsRetried() {
	processingJobsRetriedTotal.Add(1)
}

// IncProcessingJobsDeletedUnrecoverable counts queue messages dropped because they can never succeed.
func IncProcessingJobsDeletedUnrecoverable() {
	processingJobsDeletedTotal.Add(1)
}

func IncPanicsRecovered() {
	httpPanicsRecoveredTotal.Add(1)
}

// IncRateLimited counts requests rejected with 429.
func IncRateLimited() {
	httpRateLimitedTotal.Add(1)
}

// ObserveCVAnalysisDurationMs records a single-CV analysis duration in milliseconds.
func ObserveCVAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	cvAnalysisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "cv_analyses_total", "Total CVs analyzed", cvAnalysesTotal.Load())
	writeCounter(&buf, "cv_analyses_failed_total", "Total CV analyses failed", cvAnalysesFailedTotal.Load())
	writeCounter(&buf, "cv_extraction_empty_total", "Total uploads with no extractable text", cvExtractionEmptyTotal.Load())
	writeCounter(&buf, "processing_jobs_received_total", "Total processing jobs received", processingJobsReceivedTotal.Load())
	writeCounter(&buf, "processing_jobs_completed_total", "Total processing jobs completed", processingJobsCompletedTotal.Load())
	writeCounter(&buf, "processing_jobs_failed_total", "Total processing jobs failed", processingJobsFailedTotal.Load())
	writeCounter(&buf, "processing_jobs_retried_total", "Total processing jobs scheduled for retry", processingJobsRetriedTotal.Load())
	writeCounter(&buf, "processing_jobs_deleted_unrecoverable_total", "Total unrecoverable queue messages deleted", processingJobsDeletedTotal.Load())
	writeCounter(&buf, "http_panics_recovered_total", "Total handler panics recovered", httpPanicsRecoveredTotal.Load())
	writeCounter(&buf, "http_rate_limited_total", "Total requests rejected by the rate limiter", httpRateLimitedTotal.Load())
	writeHistogram(&buf, "cv_analysis_duration_ms", "CV analysis duration in milliseconds", cvAnalysisDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Since returns the elapsed milliseconds since start.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
