package local

import "testing"

func TestScratchSlotsAreStable(t *testing.T) {
	g := NewGen()
	tmp := g.NextUnnamed()
	exit := g.ExitID()
	ret := g.RetVal()

	if exit == tmp || ret == tmp || exit == ret {
		t.Fatalf("scratch slots must be distinct: tmp=%s exit=%s ret=%s", tmp, exit, ret)
	}
	if g.ExitID() != exit || g.RetVal() != ret {
		t.Fatalf("scratch slots must be reused")
	}
	if g.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", g.Count())
	}
}

func TestLocalString(t *testing.T) {
	if got := Named("x").String(); got != "$x" {
		t.Fatalf("named local printed as %q", got)
	}
	if got := NewGen().NextUnnamed().String(); got != "_0" {
		t.Fatalf("unnamed local printed as %q", got)
	}
}
