package metrics

import (
	"strings"
	"testing"
)

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}
	if snap.sum != 555 {
		t.Fatalf("unexpected sum: %v", snap.sum)
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	before := runsStartedTotal.Load()
	IncRunStarted()
	ObserveGenerationDurationMs(-1)

	out := Render()
	if !strings.Contains(out, "# TYPE interview_runs_started_total counter") {
		t.Fatalf("missing counter type line:\n%s", out)
	}
	if runsStartedTotal.Load() != before+1 {
		t.Fatalf("counter not incremented")
	}
	if !strings.Contains(out, `interview_generation_duration_ms_bucket{le="+Inf"}`) {
		t.Fatalf("missing histogram +Inf bucket:\n%s", out)
	}
}
