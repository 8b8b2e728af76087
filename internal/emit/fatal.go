package emit

import (
	"fmt"

	"tfemit/internal/diag"
	"tfemit/internal/hhbc"
	"tfemit/internal/source"
)

// FatalKind says when a fatal error fires.
type FatalKind uint8

const (
	FatalParse FatalKind = iota
	FatalRuntime
)

func (k FatalKind) op() hhbc.FatalOp {
	if k == FatalRuntime {
		return hhbc.FatalRuntime
	}
	return hhbc.FatalParse
}

func (k FatalKind) String() string {
	if k == FatalRuntime {
		return "runtime"
	}
	return "parse"
}

// FatalError is a user error that aborts compilation of one function.
type FatalError struct {
	Kind    FatalKind
	Code    diag.Code
	Pos     source.Pos
	Message string
}

func (e *FatalError) Error() string {
	return e.Message
}

// Report emits the error as a diagnostic of function fn.
func (e *FatalError) Report(r diag.Reporter, fn string) {
	diag.ReportError(r, e.Code, e.Pos, e.Message).InFunc(fn).Emit()
}

func raiseFatalParse(pos source.Pos, code diag.Code, msg string) *FatalError {
	return &FatalError{Kind: FatalParse, Code: code, Pos: pos, Message: msg}
}

// InvariantError is the panic value for broken emitter invariants.
type InvariantError struct {
	Msg string
}

func (e InvariantError) Error() string {
	return "emit: invariant violated: " + e.Msg
}

func invariant(format string, args ...any) {
	panic(InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// posForError picks the position goto errors are reported at: the start of
// the line of the innermost function or class. Methods and lambdas are
// skipped, so a method error points at its class.
func posForError(env *Env) source.Pos {
	for _, item := range env.Scope {
		switch item.Kind {
		case ScopeFunction, ScopeClass:
			return item.Pos.FirstCharOfLine()
		}
	}
	return source.NoPos
}

// emitFatal replaces code with a failure carrying msg.
func (e *Emitter) emitFatal(kind FatalKind, pos source.Pos, msg string) hhbc.Seq {
	return hhbc.Gather(
		e.emitPos(pos),
		hhbc.List(hhbc.MakeString(msg), hhbc.MakeFatal(kind.op())),
	)
}

func breakContinueMessage(level int) string {
	suffix := "s"
	if level == 1 {
		suffix = ""
	}
	return fmt.Sprintf("Cannot break/continue %d level%s", level, suffix)
}
