package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	load := timer.Begin("load")
	timer.End(load, "")
	build := timer.Begin("build")
	timer.End(build, "2 functions")
	timer.End(7, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[1].Name != "build" || report.Phases[1].Note != "2 functions" {
		t.Errorf("phase[1] = %+v", report.Phases[1])
	}
	if timer.Duration(7) != 0 {
		t.Errorf("Duration of an unknown phase = %v, want 0", timer.Duration(7))
	}

	summary := timer.Summary()
	for _, want := range []string{"timings:", "load", "build", "// 2 functions", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary does not contain %q:\n%s", want, summary)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Errorf("empty timer report = %+v", r)
	}
}

func TestReportMerge(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "build", DurationMS: 2}}}
	b := Report{TotalMS: 10, Phases: []PhaseReport{{Name: "build", DurationMS: 6}, {Name: "validate", DurationMS: 4}}}

	got := a.Merge(b)
	if got.TotalMS != 13 {
		t.Errorf("TotalMS = %v, want 13", got.TotalMS)
	}
	want := []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "build", DurationMS: 8}, {Name: "validate", DurationMS: 4}}
	if len(got.Phases) != len(want) {
		t.Fatalf("phases = %+v, want %+v", got.Phases, want)
	}
	for i := range want {
		if got.Phases[i] != want[i] {
			t.Errorf("phase[%d] = %+v, want %+v", i, got.Phases[i], want[i])
		}
	}
}

func TestDurationMeasured(t *testing.T) {
	timer := NewTimer()
	idx := timer.Begin("sleep")
	time.Sleep(2 * time.Millisecond)
	timer.End(idx, "")
	if timer.Duration(idx) < 2*time.Millisecond {
		t.Errorf("Duration = %v, want at least 2ms", timer.Duration(idx))
	}
}
