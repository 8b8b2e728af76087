package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tfemit/internal/prof"
	"tfemit/internal/trace"
)

// setupTracing creates the tracer described by the settings and attaches it
// to the command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, s *settings) (trace.Tracer, func(), error) {
	cfg, err := s.cfg.TraceConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace configuration: %w", err)
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpTraceOnPanic writes the in-memory trace ring to stderr before letting
// a panic continue. Deferred by every command that compiles.
func dumpTraceOnPanic(tracer trace.Tracer) {
	r := recover()
	if r == nil {
		return
	}
	var ring *trace.RingTracer
	switch t := tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring = t.Ring()
	}
	if ring != nil {
		fmt.Fprintln(os.Stderr, "trace: dumping recent events after panic")
		_ = ring.Dump(os.Stderr, trace.FormatText)
	}
	panic(r)
}

// setupProfiling starts the profilers selected by the persistent flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return prof.Start(opts)
}
