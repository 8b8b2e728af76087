package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tfemit/internal/config"
	"tfemit/internal/driver"
	"tfemit/internal/observ"
)

// settings are the configuration file merged with explicitly set flags.
type settings struct {
	cfg       config.Config
	colorMode string
	timings   bool
	cache     bool
}

// useColor reports whether output written to f should be colored.
func (s *settings) useColor(f *os.File) bool {
	return s.colorMode == "on" || (s.colorMode == "auto" && isTerminal(f))
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("jobs") {
		if cfg.Driver.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Changed("max-diagnostics") {
		if cfg.Driver.MaxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	for flag, dst := range map[string]*string{
		"trace":       &cfg.Trace.Output,
		"trace-level": &cfg.Trace.Level,
		"trace-mode":  &cfg.Trace.Mode,
	} {
		if !flags.Changed(flag) {
			continue
		}
		if *dst, err = flags.GetString(flag); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	// --trace alone implies a useful level
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}

	local := cmd.Flags()
	if local.Lookup("srclocs") != nil && local.Changed("srclocs") {
		if cfg.Emit.SrcLocs, err = local.GetBool("srclocs"); err != nil {
			return nil, err
		}
	}
	if local.Lookup("runtime-fatal") != nil && local.Changed("runtime-fatal") {
		if cfg.Emit.BreakContinueRuntimeFatal, err = local.GetBool("runtime-fatal"); err != nil {
			return nil, err
		}
	}

	s := &settings{cfg: cfg, cache: cfg.Driver.Cache}
	if local.Lookup("cache") != nil && local.Changed("cache") {
		if s.cache, err = local.GetBool("cache"); err != nil {
			return nil, err
		}
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on", "off", "auto":
	default:
		return nil, fmt.Errorf("unsupported color mode %q (must be auto, on or off)", colorFlag)
	}
	s.colorMode = colorFlag
	return s, nil
}

func (s *settings) driverOptions(timer *observ.Timer) (driver.Options, error) {
	opts := driver.Options{
		Emit:           s.cfg.EmitOptions(),
		Jobs:           s.cfg.Driver.Jobs,
		MaxDiagnostics: s.cfg.Driver.MaxDiagnostics,
		Timer:          timer,
	}
	if s.cache {
		cache, err := driver.OpenDiskCache("tfemit")
		if err != nil {
			return driver.Options{}, fmt.Errorf("failed to open disk cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}
