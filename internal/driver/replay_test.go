package driver

import (
	"context"
	"crypto/sha256"
	"testing"

	"tfemit/internal/asm"
	"tfemit/internal/diag"
	"tfemit/internal/emit"
)

const replayUnit = "[[function]]\nname = \"f\"\nline = 1\n\n[[function.body]]\nkind = \"goto\"\nlabel = \"nowhere\"\n"

func TestCacheReplayDedupsDiagnostics(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := CachedDiag{
		Severity: uint8(diag.SevError),
		Code:     uint16(diag.EmitGotoUndefinedLabel),
		Line:     1,
		Col:      1,
		Func:     "f",
		Message:  "'goto' to undefined label 'nowhere'",
	}
	payload := &DiskPayload{
		Path:  "unit.toml",
		Funcs: []*asm.Function{{Name: "f"}},
		Diags: []CachedDiag{d, d},
	}
	key := cacheKey(sha256.Sum256([]byte(replayUnit)), emit.Options{})
	if err := cache.Put(key, payload); err != nil {
		t.Fatal(err)
	}

	res, err := CompileSource(context.Background(), "unit.toml", []byte(replayUnit), Options{Cache: cache})
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	if !res.Cached {
		t.Fatal("expected a cache hit")
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("expected duplicate diagnostics to collapse, got %d", res.Bag.Len())
	}
	got := res.Bag.Items()[0]
	if got.Func != "f" || got.Code != diag.EmitGotoUndefinedLabel || got.Primary.Line != 1 {
		t.Fatalf("replayed diagnostic = %+v", got)
	}
}

func TestLoaderErrorsAreReported(t *testing.T) {
	res, err := CompileSource(context.Background(), "bad.toml", []byte("[[function]]\n"), Options{})
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	if res.Unit != nil || res.Bag.Len() != 1 || !res.Bag.HasErrors() {
		t.Fatalf("unexpected result: unit=%v diags=%+v", res.Unit, res.Bag.Items())
	}
}
