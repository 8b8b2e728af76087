package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tfemit/internal/trace"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[emit]
srclocs = true

[driver]
jobs = 3

[trace]
level = "detail"
format = "ndjson"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Emit.SrcLocs || cfg.Emit.BreakContinueRuntimeFatal {
		t.Fatalf("emit section = %+v", cfg.Emit)
	}
	if cfg.Driver.Jobs != 3 || cfg.Driver.MaxDiagnostics != 100 {
		t.Fatalf("driver section = %+v", cfg.Driver)
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatalf("TraceConfig: %v", err)
	}
	if tc.Level != trace.LevelDetail || tc.Mode != trace.ModeStream || tc.Format != trace.FormatNDJSON {
		t.Fatalf("trace config = %+v", tc)
	}
	if opts := cfg.EmitOptions(); !opts.SrcLocs {
		t.Fatalf("emit options = %+v", opts)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"[driver]\njobs = -1\n":             "jobs must not be negative",
		"[driver]\nmax_diagnostics = 0\n":   "max_diagnostics must be positive",
		"[trace]\nlevel = \"loud\"\n":       "[trace]",
		"[emit]\nsrclocs = true\nfoo = 1\n": "unknown keys: emit.foo",
		"[emit\n":                           "failed to parse TOML",
	}
	for content, want := range cases {
		path := writeConfig(t, t.TempDir(), content)
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Load(%q) error = %v, want %q", content, err, want)
		}
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[emit]\nbreak_continue_runtime_fatal = true\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !cfg.Emit.BreakContinueRuntimeFatal || cfg.Path == "" {
		t.Fatalf("config not found from nested dir: %+v", cfg)
	}
}
