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
	runsStartedTotal        atomic.Uint64
	runsCompletedTotal      atomic.Uint64
	runsRejectedTotal       atomic.Uint64
	extractionFailedTotal   atomic.Uint64
	generationFailedTotal   atomic.Uint64
	extractionFallbackTotal atomic.Uint64

	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	extractionDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncRunStarted counts an upload entering the pipeline.
func IncRunStarted() {
	runsStartedTotal.Add(1)
}

// IncRunCompleted counts a run that produced generated questions.
func IncRunCompleted() {
	runsCompletedTotal.Add(1)
}

// IncRunRejected counts a run stopped by the size or content gate.
func IncRunRejected() {
	runsRejectedTotal.Add(1)
}

// IncExtractionFailed counts a run whose text extraction failed.
func IncExtractionFailed() {
	extractionFailedTotal.Add(1)
}

// IncExtractionFallback counts a PDF served by a non-primary strategy.
func IncExtractionFallback() {
	extractionFallbackTotal.Add(1)
}

// IncGenerationFailed counts a failed chat-completion call.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// ObserveGenerationDurationMs records a chat-completion duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// ObserveExtractionDurationMs records a text extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
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
	writeCounter(&buf, "interview_runs_started_total", "Total uploads entering the pipeline", runsStartedTotal.Load())
	writeCounter(&buf, "interview_runs_completed_total", "Total runs that produced questions", runsCompletedTotal.Load())
	writeCounter(&buf, "interview_runs_rejected_total", "Total runs stopped by a validation gate", runsRejectedTotal.Load())
	writeCounter(&buf, "interview_extraction_failed_total", "Total failed text extractions", extractionFailedTotal.Load())
	writeCounter(&buf, "interview_extraction_fallback_total", "Total PDFs extracted by a fallback strategy", extractionFallbackTotal.Load())
	writeCounter(&buf, "interview_generation_failed_total", "Total failed chat-completion calls", generationFailedTotal.Load())
	writeHistogram(&buf, "interview_extraction_duration_ms", "Text extraction duration in milliseconds", extractionDuration.Snapshot())
	writeHistogram(&buf, "interview_generation_duration_ms", "Chat-completion duration in milliseconds", generationDuration.Snapshot())
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

// Observe adds value to the first bucket whose bound holds it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
