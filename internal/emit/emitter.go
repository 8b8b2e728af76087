// Package emit lowers function bodies to flat bytecode. Its centre is the
// try/finally rewriter: every return, break, continue and goto that leaves a
// protected region records an exit id, jumps into the finally body, and is
// resumed by a dispatch epilogue placed after it.
package emit

import (
	"tfemit/internal/ast"
	"tfemit/internal/hhbc"
	"tfemit/internal/iterator"
	"tfemit/internal/label"
	"tfemit/internal/local"
	"tfemit/internal/source"
)

// Options tune code generation.
type Options struct {
	// SrcLocs interleaves SrcLoc pseudo instructions with the code.
	SrcLocs bool
	// BreakContinueRuntimeFatal compiles an unresolvable break/continue to
	// code that fails when executed instead of rejecting the function.
	BreakContinueRuntimeFatal bool
}

// State is what return emission needs to know about the function.
type State struct {
	// NumOut is the number of inout parameters.
	NumOut int
	// VerifyOut pushes (and checks) the inout parameters before RetM.
	VerifyOut hhbc.Seq
	// VerifyReturn is the declared return type, nil when unchecked.
	VerifyReturn *ast.Hint
}

// Emitter holds the per-function generators. It is not safe for concurrent
// use; the driver creates one per function.
type Emitter struct {
	opts   Options
	labels *label.Gen
	locals *local.Gen
	iters  *iterator.Gen
	state  State
}

// NewEmitter creates an emitter for one function.
func NewEmitter(opts Options) *Emitter {
	return &Emitter{
		opts:   opts,
		labels: label.NewGen(),
		locals: local.NewGen(),
		iters:  iterator.NewGen(),
	}
}

func (e *Emitter) Options() Options         { return e.opts }
func (e *Emitter) Labels() *label.Gen       { return e.labels }
func (e *Emitter) Locals() *local.Gen       { return e.locals }
func (e *Emitter) Iterators() *iterator.Gen { return e.iters }
func (e *Emitter) State() State             { return e.state }
func (e *Emitter) SetState(st State)        { e.state = st }

// emitPos emits a SrcLoc for pos when source locations are on.
func (e *Emitter) emitPos(pos source.Pos) hhbc.Seq {
	if !e.opts.SrcLocs || pos.IsNone() {
		return hhbc.Empty()
	}
	return hhbc.One(hhbc.MakeSrcLoc(pos))
}
