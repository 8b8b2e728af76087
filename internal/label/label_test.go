package label

import "testing"

func TestGenAllocatesSequentially(t *testing.T) {
	g := NewGen()
	a, b := g.NextRegular(), g.NextRegular()
	if a.String() != "L0" || b.String() != "L1" {
		t.Fatalf("unexpected labels %s %s", a, b)
	}
	if g.Count() != 2 {
		t.Fatalf("Count() = %d", g.Count())
	}
}

func TestNamedLabelsCompareByName(t *testing.T) {
	if Named("out") != Named("out") {
		t.Fatalf("named labels with the same name must be equal")
	}
	if Named("out") == Regular(0) {
		t.Fatalf("named and regular labels must differ")
	}
	if !Named("x").IsNamed() || Regular(3).IsNamed() {
		t.Fatalf("IsNamed mismatch")
	}
}
