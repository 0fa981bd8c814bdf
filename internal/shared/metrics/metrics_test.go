package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesScreeningSeries(t *testing.T) {
	IncScreeningStarted()
	IncScreeningCompleted()
	IncScreeningFailed()
	ObserveScreeningDurationMs(120)

	out := Render()
	for _, series := range []string{
		"screening_started_total",
		"screening_completed_total",
		"screening_failed_total",
		"screening_duration_ms_bucket",
		"screening_duration_ms_sum",
		"screening_duration_ms_count",
	} {
		if !strings.Contains(out, series) {
			t.Fatalf("expected %s in output:\n%s", series, out)
		}
	}
}

func TestObserveNegativeClampedToZero(t *testing.T) {
	before := screeningDuration.Snapshot()
	ObserveScreeningDurationMs(-5)
	after := screeningDuration.Snapshot()
	if after.count != before.count+1 {
		t.Fatalf("expected one more observation, got %d -> %d", before.count, after.count)
	}
	if after.sum != before.sum {
		t.Fatalf("expected negative value clamped, sum %v -> %v", before.sum, after.sum)
	}
}
