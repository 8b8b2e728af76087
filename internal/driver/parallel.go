package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tfemit/internal/asm"
	"tfemit/internal/ast"
	"tfemit/internal/emit"
	"tfemit/internal/trace"
)

type funcResult struct {
	fn    *asm.Function
	fatal *emit.FatalError
}

// compileFuncs compiles and assembles every function of unit in parallel.
// Results keep unit order.
func compileFuncs(ctx context.Context, unit *ast.Unit, opts emit.Options, jobs int) ([]funcResult, error) {
	n := len(unit.Funcs)
	if n == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]funcResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, n))
	for i, fn := range unit.Funcs {
		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					inv, ok := r.(emit.InvariantError)
					if !ok {
						panic(r)
					}
					err = fmt.Errorf("driver: %s: %w", fn.Name, inv)
				}
			}()

			compiled, err := emit.CompileFunc(gctx, fn, opts)
			if err != nil {
				return err
			}
			assembled, err := asm.Assemble(compiled)
			if err != nil {
				return fmt.Errorf("driver: %w", err)
			}
			results[i] = funcResult{fn: assembled, fatal: compiled.Fatal}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopePass, "emit-failed", err.Error(), trace.CurrentSpan(ctx), nil)
		return nil, err
	}
	return results, nil
}
