package iterator

import "testing"

func TestGenStackDiscipline(t *testing.T) {
	g := NewGen()
	outer := g.Next()
	inner := g.Next()
	if outer.ID != 0 || inner.ID != 1 {
		t.Fatalf("unexpected ids %v %v", outer, inner)
	}
	g.Free()
	again := g.Next()
	if again.ID != 1 {
		t.Fatalf("expected slot 1 to be reused, got %v", again)
	}
	g.Free()
	g.Free()
	if g.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", g.Count())
	}
}

func TestFreeWithoutNextPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewGen().Free()
}
