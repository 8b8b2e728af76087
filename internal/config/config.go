// Package config loads tfemit.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"tfemit/internal/emit"
	"tfemit/internal/trace"
)

// FileName is the configuration file looked up from the working directory upward.
const FileName = "tfemit.toml"

// Config is the decoded configuration with defaults applied.
type Config struct {
	Emit   EmitConfig   `toml:"emit"`
	Driver DriverConfig `toml:"driver"`
	Trace  TraceConfig  `toml:"trace"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type EmitConfig struct {
	SrcLocs                   bool `toml:"srclocs"`
	BreakContinueRuntimeFatal bool `toml:"break_continue_runtime_fatal"`
}

type DriverConfig struct {
	Jobs           int  `toml:"jobs"` // 0 means GOMAXPROCS
	MaxDiagnostics int  `toml:"max_diagnostics"`
	Cache          bool `toml:"cache"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Driver: DriverConfig{MaxDiagnostics: 100},
		Trace:  TraceConfig{Level: "off", Mode: "stream", Format: "auto", Output: "-"},
	}
}

// EmitOptions converts the [emit] section.
func (c *Config) EmitOptions() emit.Options {
	return emit.Options{
		SrcLocs:                   c.Emit.SrcLocs,
		BreakContinueRuntimeFatal: c.Emit.BreakContinueRuntimeFatal,
	}
}

// TraceConfig converts the [trace] section. Values were validated by Load.
func (c *Config) TraceConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, Format: format, OutputPath: c.Trace.Output}, nil
}

// Find looks for tfemit.toml in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest tfemit.toml, falling back to defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("driver", "jobs") && cfg.Driver.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [driver].jobs must not be negative", path)
	}
	if meta.IsDefined("driver", "max_diagnostics") && cfg.Driver.MaxDiagnostics <= 0 {
		return Config{}, fmt.Errorf("%s: [driver].max_diagnostics must be positive", path)
	}
	if _, err := cfg.TraceConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: [trace]: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}
