package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tfemit/internal/asm"
	"tfemit/internal/diagfmt"
	"tfemit/internal/driver"
	"tfemit/internal/observ"
	"tfemit/internal/trace"
)

func addEmitFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("srclocs", false, "emit source location pseudo-instructions")
	cmd.Flags().Bool("runtime-fatal", false, "turn unresolvable break/continue into a runtime fatal instead of an error")
	cmd.Flags().Bool("cache", false, "reuse compiled units from the disk cache")
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [flags] <unit.toml>...",
		Short: "Compile units and print their bytecode",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompile,
	}
	addEmitFlags(cmd)
	cmd.Flags().String("emit", "text", "output format (text|msgpack)")
	cmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <unit.toml>...",
		Short: "Compile units and report diagnostics only",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	addEmitFlags(cmd)
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	return cmd
}

// compileUnits runs the driver on every path, handing each result to sink.
// It returns true when any unit produced an error diagnostic.
func compileUnits(cmd *cobra.Command, paths []string, sink func(*settings, *driver.Result) error) (failed bool, err error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return false, err
	}
	session, err := setupProfiling(cmd)
	if err != nil {
		return false, err
	}
	defer func() {
		if stopErr := session.Stop(); stopErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", stopErr)
		}
	}()
	tracer, cleanup, err := setupTracing(cmd, s)
	if err != nil {
		return false, err
	}
	defer cleanup()
	defer dumpTraceOnPanic(tracer)

	var timer *observ.Timer
	if s.timings {
		timer = observ.NewTimer()
	}
	opts, err := s.driverOptions(timer)
	if err != nil {
		return false, err
	}

	ctx := cmd.Context()
	for _, path := range paths {
		res, err := driver.Compile(ctx, path, opts)
		if err != nil {
			trace.Point(tracer, trace.ScopeDriver, "failed", err.Error(), 0, nil)
			return failed, fmt.Errorf("%s: %w", path, err)
		}
		if res.Bag.HasErrors() {
			failed = true
		}
		if err := sink(s, res); err != nil {
			return failed, err
		}
	}
	if timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return failed, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("emit")
	if err != nil {
		return fmt.Errorf("failed to get emit flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "text" && format != "msgpack" {
		return fmt.Errorf("unsupported emit format %q (must be text or msgpack)", format)
	}
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}

	out := cmd.OutOrStdout()
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	failed, err := compileUnits(cmd, args, func(s *settings, res *driver.Result) error {
		opts := diagfmt.PrettyOpts{Color: s.useColor(os.Stderr), Max: s.cfg.Driver.MaxDiagnostics}
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, opts); err != nil {
			return err
		}
		if res.Unit == nil {
			return nil
		}
		return writeUnit(out, format, res)
	})
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func writeUnit(out io.Writer, format string, res *driver.Result) error {
	if format == "msgpack" {
		return asm.Encode(out, &asm.Unit{Path: res.Path, Funcs: res.Funcs})
	}
	for _, f := range res.Funcs {
		if err := asm.WriteListing(out, f); err != nil {
			return err
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	out := cmd.OutOrStdout()
	failed, err := compileUnits(cmd, args, func(s *settings, res *driver.Result) error {
		if format == "json" {
			return diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{PathMode: pathMode, IncludeNotes: withNotes})
		}
		opts := diagfmt.PrettyOpts{Color: s.useColor(os.Stdout), PathMode: pathMode, ShowNotes: withNotes}
		return diagfmt.Pretty(out, res.Bag, res.FileSet, opts)
	})
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}
