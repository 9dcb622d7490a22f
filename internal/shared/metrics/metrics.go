package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	draftsCreatedTotal      atomic.Uint64
	draftVersionsTotal      atomic.Uint64
	draftNoChangeTotal      atomic.Uint64
	transitionsAppliedTotal atomic.Uint64
	transitionsDeniedTotal  atomic.Uint64
	stageRetainedTotal      atomic.Uint64

	completionDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500})
)

// IncDraftCreated increments the drafts-created counter.
func IncDraftCreated() {
	draftsCreatedTotal.Add(1)
}

// IncDraftVersioned increments the new-version counter.
func IncDraftVersioned() {
	draftVersionsTotal.Add(1)
}

// IncDraftNoChange increments the no-op completion counter.
func IncDraftNoChange() {
	draftNoChangeTotal.Add(1)
}

// IncTransitionApplied increments the applied stage-transition counter.
func IncTransitionApplied() {
	transitionsAppliedTotal.Add(1)
}

// IncTransitionDenied increments the denied stage-transition counter.
func IncTransitionDenied() {
	transitionsDeniedTotal.Add(1)
}

// IncStageRetained counts automatic re-versions that kept the current
// stage because the computed target failed validation. A non-zero value
// makes the lenient-degrade fallback visible to operators.
func IncStageRetained() {
	stageRetainedTotal.Add(1)
}

// ObserveCompletionDurationMs records how long a completion event took to handle.
func ObserveCompletionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	completionDuration.Observe(value)
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
	writeCounter(&buf, "draft_created_total", "Total drafts created", draftsCreatedTotal.Load())
	writeCounter(&buf, "draft_versions_total", "Total draft versions produced", draftVersionsTotal.Load())
	writeCounter(&buf, "draft_no_change_total", "Total completion events that produced no change", draftNoChangeTotal.Load())
	writeCounter(&buf, "draft_transitions_applied_total", "Total stage transitions applied", transitionsAppliedTotal.Load())
	writeCounter(&buf, "draft_transitions_denied_total", "Total stage transitions denied by validation", transitionsDeniedTotal.Load())
	writeCounter(&buf, "draft_stage_retained_total", "Total automatic re-versions that retained the current stage", stageRetainedTotal.Load())
	writeHistogram(&buf, "draft_completion_duration_ms", "Completion handling duration in milliseconds", completionDuration.Snapshot())
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
