// Package driver runs the pipeline for one unit file: load, compile every
// function in parallel, assemble, and collect diagnostics.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tfemit/internal/asm"
	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/emit"
	"tfemit/internal/loader"
	"tfemit/internal/observ"
	"tfemit/internal/source"
	"tfemit/internal/trace"
)

// Options configure one Compile call.
type Options struct {
	Emit           emit.Options
	Jobs           int // 0 means GOMAXPROCS
	MaxDiagnostics int
	Cache          *DiskCache // nil disables caching
	Timer          *observ.Timer
	// Timings appends an ObsTimings diagnostic with the phase report.
	Timings bool
	OnPhase PhaseObserver
}

// Result is the outcome of compiling one unit.
type Result struct {
	Path    string
	FileSet *source.FileSet
	Unit    *ast.Unit // nil when the unit failed to load
	Funcs   []*asm.Function
	Bag     *diag.Bag
	Cached  bool
}

// Compile runs the pipeline on the unit file at path. Malformed units and
// user errors are reported through Result.Bag; the returned error is reserved
// for internal failures and cancellation.
func Compile(ctx context.Context, path string, opts Options) (*Result, error) {
	fileSet := source.NewFileSet()
	return run(ctx, fileSet, path, opts, func() (*ast.Unit, error) {
		return loader.LoadFile(fileSet, path)
	})
}

// CompileSource is Compile for an in-memory unit.
func CompileSource(ctx context.Context, name string, content []byte, opts Options) (*Result, error) {
	fileSet := source.NewFileSet()
	return run(ctx, fileSet, name, opts, func() (*ast.Unit, error) {
		return loader.Load(fileSet, name, content)
	})
}

type pipeline struct {
	ctx    context.Context
	path   string
	opts   Options
	tracer trace.Tracer
	parent uint64
	rep    *diag.BagReporter
}

func (p *pipeline) phase(name string, fn func(ctx context.Context) (string, error)) error {
	if p.opts.OnPhase != nil {
		p.opts.OnPhase(PhaseEvent{Path: p.path, Name: name, Status: PhaseStart})
	}
	start := time.Now()
	idx := p.opts.Timer.Begin(name)
	span := trace.Begin(p.tracer, trace.ScopePass, name, p.parent)

	note, err := fn(trace.WithSpan(p.ctx, span))

	span.End(note)
	p.opts.Timer.End(idx, note)
	if p.opts.OnPhase != nil {
		p.opts.OnPhase(PhaseEvent{Path: p.path, Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	}
	return err
}

func run(ctx context.Context, fileSet *source.FileSet, path string, opts Options, load func() (*ast.Unit, error)) (*Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "compile "+path, trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	if opts.Timer == nil && opts.Timings {
		opts.Timer = observ.NewTimer()
	}
	res := &Result{Path: path, FileSet: fileSet, Bag: diag.NewBag(opts.MaxDiagnostics)}
	p := &pipeline{ctx: ctx, path: path, opts: opts, tracer: tracer, parent: span.ID(), rep: &diag.BagReporter{Bag: res.Bag}}

	err := p.phase("load", func(context.Context) (string, error) {
		unit, err := load()
		if err != nil {
			return "", err
		}
		res.Unit = unit
		return strconv.Itoa(len(unit.Funcs)) + " functions", nil
	})
	var loadErr *loader.Error
	switch {
	case errors.As(err, &loadErr):
		loadErr.Report(p.rep)
		return res, nil
	case err != nil:
		return nil, err
	}

	var key Digest
	if opts.Cache != nil {
		key = cacheKey(fileSet.Get(res.Unit.File).Hash, opts.Emit)
		if err := p.phase("cache", func(context.Context) (string, error) { return p.restore(res, key) }); err != nil {
			return nil, err
		}
	}

	if !res.Cached {
		if err := p.phase("emit", func(ctx context.Context) (string, error) { return p.compile(ctx, res) }); err != nil {
			return nil, err
		}
		if opts.Cache != nil {
			payload := &DiskPayload{Path: path, Funcs: res.Funcs}
			for _, d := range res.Bag.Items() {
				payload.Diags = append(payload.Diags, cacheDiag(d))
			}
			if err := opts.Cache.Put(key, payload); err != nil {
				diag.ReportWarning(forcedReporter{res.Bag}, diag.ObsCache, source.NoPos,
					fmt.Sprintf("failed to write cache entry: %v", err)).Emit()
			}
		}
	}

	res.Bag.Dedup()
	res.Bag.Sort()
	if opts.Timings {
		report := opts.Timer.Report()
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "unit", Path: path, TotalMS: report.TotalMS, Phases: report.Phases})
	}
	span.WithExtra("functions", strconv.Itoa(len(res.Funcs)))
	return res, nil
}

func (p *pipeline) compile(ctx context.Context, res *Result) (string, error) {
	results, err := compileFuncs(ctx, res.Unit, p.opts.Emit, p.opts.Jobs)
	if err != nil {
		return "", err
	}
	fatals := 0
	for i, r := range results {
		res.Funcs = append(res.Funcs, r.fn)
		if r.fatal != nil {
			fatals++
			r.fatal.Report(p.rep, res.Unit.Funcs[i].Name)
		}
	}
	return fmt.Sprintf("%d functions, %d fatal", len(results), fatals), nil
}

func (p *pipeline) restore(res *Result, key Digest) (string, error) {
	var payload DiskPayload
	hit, err := p.opts.Cache.Get(key, &payload)
	if err != nil {
		// a corrupt entry is recompiled and overwritten
		diag.ReportWarning(forcedReporter{res.Bag}, diag.ObsCache, source.NoPos,
			fmt.Sprintf("ignoring unreadable cache entry: %v", err)).Emit()
		return "miss", nil
	}
	if !hit {
		return "miss", nil
	}
	res.Cached = true
	res.Funcs = payload.Funcs
	for _, d := range payload.Diags {
		d.replay(p.rep, res.Unit.File)
	}
	return "hit", nil
}
