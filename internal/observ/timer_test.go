package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	load := tm.Begin("load")
	tm.End(load, "1 function")
	emit := tm.Begin("emit")
	tm.End(emit, "")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "load" || r.Phases[0].Note != "1 function" {
		t.Fatalf("unexpected report: %+v", r)
	}
	s := tm.Summary()
	if !strings.Contains(s, "load") || !strings.Contains(s, "// 1 function") || !strings.Contains(s, "total") {
		t.Fatalf("summary missing entries:\n%s", s)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer recorded phases: %+v", r)
	}
}
