package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeFunction) {
		t.Fatal("phase level must keep passes and drop functions")
	}
	if !LevelDetail.ShouldEmit(ScopeFunction) || LevelDetail.ShouldEmit(ScopeRegion) {
		t.Fatal("detail level must keep functions and drop regions")
	}
	if !LevelDebug.ShouldEmit(ScopeRegion) {
		t.Fatal("debug level must keep regions")
	}
	if LevelError.ShouldEmit(ScopeDriver) {
		t.Fatal("error level streams nothing")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	span := Begin(tr, ScopeFunction, "func:main", 0)
	Point(tr, ScopeRegion, "finally", "dropped", span.ID(), nil)
	span.WithExtra("instrs", "12").End("ok")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("region event leaked at detail level:\n%s", out)
	}
	if !strings.Contains(out, "→ func:main") || !strings.Contains(out, "← func:main (ok) {instrs=12}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeRegion, "finally", "exits=2", 7, map[string]string{"width": "3"})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("bad json %q: %v", buf.String(), err)
	}
	if got["scope"] != "region" || got["detail"] != "exits=2" || got["parent_id"] != float64(7) {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, n := range []string{"a", "b", "c"} {
		Point(r, ScopePass, n, "", 0, nil)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestMultiTracerFindsRing(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(4, LevelPhase)
	m := NewMultiTracer(LevelPhase, NewStreamTracer(&buf, LevelPhase, FormatText), ring)
	Begin(m, ScopeDriver, "compile", 0).End("")
	if m.Ring() != ring || len(ring.Snapshot()) != 2 || buf.Len() == 0 {
		t.Fatal("multi tracer must feed both back-ends")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context must give Nop")
	}
	r := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	span := Begin(FromContext(ctx), ScopePass, "emit", 0)
	ctx = WithSpan(ctx, span)
	if CurrentSpan(ctx) != span.ID() || span.ID() == 0 {
		t.Fatal("span id not propagated")
	}
}

func TestParse(t *testing.T) {
	if l, err := ParseLevel("DEBUG"); err != nil || l != LevelDebug {
		t.Fatalf("ParseLevel: %v %v", l, err)
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatal("ParseMode must reject unknown modes")
	}
	if f, err := ParseFormat("ndjson"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat: %v %v", f, err)
	}
}
