package emit

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
	"tfemit/internal/local"
	"tfemit/internal/source"
	"tfemit/internal/trace"
)

// Func is a compiled function body.
type Func struct {
	Name      string
	Params    []string
	Body      hhbc.Seq
	NumLabels int
	NumLocals int
	NumIters  int
	// Fatal is set when a user error replaced the body with a Fatal.
	Fatal *FatalError
}

// CompileFunc compiles one function. User errors do not fail the call: the
// body becomes code raising the error and Func.Fatal describes it. The
// returned error reports malformed input only.
func CompileFunc(ctx context.Context, fn *ast.Func, opts Options) (*Func, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFunction, "func:"+fn.Name, trace.CurrentSpan(ctx))
	defer span.End("")

	e := NewEmitter(opts)
	out := &Func{Name: fn.Name}
	for _, p := range fn.Params {
		out.Params = append(out.Params, p.Name)
	}

	body, err := e.compileBody(fn, tracer, span.ID())
	var fatal *FatalError
	switch {
	case errors.As(err, &fatal):
		out.Fatal = fatal
		body = e.emitFatal(fatal.Kind, fatal.Pos, fatal.Message)
		span.WithExtra("fatal", fatal.Message)
	case err != nil:
		return nil, fmt.Errorf("emit: %s: %w", fn.Name, err)
	}

	out.Body = body
	out.NumLabels = e.labels.Count()
	out.NumLocals = e.locals.Count()
	out.NumIters = e.iters.Count()
	span.WithExtra("instrs", strconv.Itoa(body.Len()))
	return out, nil
}

func (e *Emitter) compileBody(fn *ast.Func, tracer trace.Tracer, spanID uint64) (hhbc.Seq, error) {
	labels, err := ast.CollectLabels(fn.Body)
	if err != nil {
		var dup *ast.DuplicateLabelError
		if errors.As(err, &dup) {
			return hhbc.Empty(), raiseFatalParse(dup.Pos, diag.LblDuplicate, dup.Error())
		}
		return hhbc.Empty(), err
	}
	env := NewEnv(fn, labels)
	e.SetState(State{
		NumOut:       fn.NumInOut(),
		VerifyOut:    emitVerifyOut(fn),
		VerifyReturn: fn.ReturnHint,
	})
	c := &funcCompiler{e: e, env: env, tracer: tracer, spanID: spanID}

	body, err := c.stmts(fn.Body)
	if err != nil {
		return hhbc.Empty(), err
	}
	// falling off the end returns null
	tail := hhbc.Gather(hhbc.One(hhbc.MakeNull()), e.EmitReturn(false, env))
	return hhbc.Gather(body, tail), nil
}

// emitVerifyOut pushes the inout parameters returned alongside the result,
// checking the annotated ones.
func emitVerifyOut(fn *ast.Func) hhbc.Seq {
	var parts []hhbc.Seq
	for i, p := range fn.Params {
		if !p.InOut {
			continue
		}
		parts = append(parts, hhbc.One(hhbc.MakeCGetL(local.Named(p.Name))))
		if p.Hint != nil {
			parts = append(parts, hhbc.One(hhbc.MakeVerifyOutType(i)))
		}
	}
	return hhbc.Gather(parts...)
}

type funcCompiler struct {
	e      *Emitter
	env    *Env
	tracer trace.Tracer
	spanID uint64
}

func (c *funcCompiler) stmts(ss []ast.Stmt) (hhbc.Seq, error) {
	parts := make([]hhbc.Seq, 0, len(ss))
	for i := range ss {
		s, err := c.stmt(&ss[i])
		if err != nil {
			return hhbc.Empty(), err
		}
		parts = append(parts, s)
	}
	return hhbc.Gather(parts...), nil
}

func (c *funcCompiler) stmt(st *ast.Stmt) (hhbc.Seq, error) {
	code, err := c.stmtCode(st)
	if err != nil {
		return hhbc.Empty(), err
	}
	return hhbc.Gather(c.e.emitPos(st.Pos), code), nil
}

func (c *funcCompiler) stmtCode(st *ast.Stmt) (hhbc.Seq, error) {
	e, env := c.e, c.env
	switch data := st.Data.(type) {
	case ast.ExprStmtData:
		x, err := c.expr(data.Expr)
		if err != nil {
			return hhbc.Empty(), err
		}
		return hhbc.Gather(x, hhbc.One(hhbc.MakePopC())), nil

	case ast.ReturnData:
		value := hhbc.One(hhbc.MakeNull())
		if data.Value != nil {
			x, err := c.expr(data.Value)
			if err != nil {
				return hhbc.Empty(), err
			}
			value = x
		}
		return hhbc.Gather(value, e.EmitReturn(false, env)), nil

	case ast.JumpData:
		if data.Level < 1 {
			return hhbc.Empty(), fmt.Errorf("%s: level must be positive, got %d", st.Kind, data.Level)
		}
		mode := ModeBreak
		if st.Kind == ast.StmtContinue {
			mode = ModeContinue
		}
		return e.EmitBreakOrContinue(mode, env, st.Pos, data.Level)

	case ast.GotoData:
		if st.Kind == ast.StmtLabel {
			return hhbc.One(hhbc.MakeLabel(label.Named(data.Label))), nil
		}
		return e.EmitGoto(false, data.Label, env)

	case ast.IfData:
		return c.ifStmt(data)
	case ast.WhileData:
		return c.whileStmt(data)
	case ast.ForeachData:
		return c.foreachStmt(data)
	case ast.SwitchData:
		return c.switchStmt(data)
	case ast.TryData:
		return c.tryStmt(st.Pos, data)
	case ast.UsingData:
		return c.usingStmt(st.Pos, data)
	case ast.BlockData:
		return c.stmts(data.Body)

	default:
		return hhbc.Empty(), fmt.Errorf("%s: unexpected payload %T", st.Kind, st.Data)
	}
}

func (c *funcCompiler) ifStmt(data ast.IfData) (hhbc.Seq, error) {
	cond, err := c.expr(data.Cond)
	if err != nil {
		return hhbc.Empty(), err
	}
	then, err := c.stmts(data.Then)
	if err != nil {
		return hhbc.Empty(), err
	}
	els, err := c.stmts(data.Else)
	if err != nil {
		return hhbc.Empty(), err
	}
	elseLabel := c.e.labels.NextRegular()
	endLabel := c.e.labels.NextRegular()
	return hhbc.Gather(
		cond,
		hhbc.One(hhbc.MakeJmpZ(elseLabel)),
		then,
		hhbc.List(hhbc.MakeJmp(endLabel), hhbc.MakeLabel(elseLabel)),
		els,
		hhbc.One(hhbc.MakeLabel(endLabel)),
	), nil
}

// whileStmt lays out `cont: cond; JmpZ brk; body; Jmp cont; brk:`.
func (c *funcCompiler) whileStmt(data ast.WhileData) (hhbc.Seq, error) {
	brk := c.e.labels.NextRegular()
	cont := c.e.labels.NextRegular()
	cond, err := c.expr(data.Cond)
	if err != nil {
		return hhbc.Empty(), err
	}
	c.env.JumpTargets.PushLoop(brk, cont, nil, ast.DirectLabels(data.Body))
	body, err := c.stmts(data.Body)
	c.env.JumpTargets.Pop()
	if err != nil {
		return hhbc.Empty(), err
	}
	return hhbc.Gather(
		hhbc.One(hhbc.MakeLabel(cont)),
		cond,
		hhbc.One(hhbc.MakeJmpZ(brk)),
		body,
		hhbc.List(hhbc.MakeJmp(cont), hhbc.MakeLabel(brk)),
	), nil
}

// foreachStmt lays out
// `coll; IterInit it brk $v; head: body; cont: IterNext it head $v; brk:`.
func (c *funcCompiler) foreachStmt(data ast.ForeachData) (hhbc.Seq, error) {
	coll, err := c.expr(data.Collection)
	if err != nil {
		return hhbc.Empty(), err
	}
	brk := c.e.labels.NextRegular()
	cont := c.e.labels.NextRegular()
	head := c.e.labels.NextRegular()
	value := local.Named(data.Value)

	it := c.e.iters.Next()
	c.env.JumpTargets.PushLoop(brk, cont, &it, ast.DirectLabels(data.Body))
	body, err := c.stmts(data.Body)
	c.env.JumpTargets.Pop()
	c.e.iters.Free()
	if err != nil {
		return hhbc.Empty(), err
	}
	return hhbc.Gather(
		coll,
		hhbc.List(hhbc.MakeIterInit(it, brk, value), hhbc.MakeLabel(head)),
		body,
		hhbc.List(
			hhbc.MakeLabel(cont),
			hhbc.MakeIterNext(it, head, value),
			hhbc.MakeLabel(brk),
		),
	), nil
}

// switchStmt stores the subject in a temporary, tests the cases in order and
// lays the bodies out back to back so they fall through.
func (c *funcCompiler) switchStmt(data ast.SwitchData) (hhbc.Seq, error) {
	e := c.e
	subject, err := c.expr(data.Subject)
	if err != nil {
		return hhbc.Empty(), err
	}
	tmp := e.locals.NextUnnamed()
	end := e.labels.NextRegular()

	var owned []string
	for i := range data.Cases {
		owned = append(owned, ast.DirectLabels(data.Cases[i].Body)...)
	}

	tests := []hhbc.Seq{subject, hhbc.List(hhbc.MakeSetL(tmp), hhbc.MakePopC())}
	bodies := make([]hhbc.Seq, 0, len(data.Cases))
	fallback := end
	c.env.JumpTargets.PushSwitch(end, owned)
	defer c.env.JumpTargets.Pop()
	for i := range data.Cases {
		cs := &data.Cases[i]
		l := e.labels.NextRegular()
		if cs.Value == nil {
			fallback = l
		} else {
			v, err := c.expr(cs.Value)
			if err != nil {
				return hhbc.Empty(), err
			}
			tests = append(tests,
				hhbc.One(hhbc.MakeCGetL(tmp)), v,
				hhbc.List(hhbc.MakeEq(), hhbc.MakeJmpNZ(l)))
		}
		body, err := c.stmts(cs.Body)
		if err != nil {
			return hhbc.Empty(), err
		}
		bodies = append(bodies, hhbc.Gather(hhbc.One(hhbc.MakeLabel(l)), body))
	}
	tests = append(tests, hhbc.One(hhbc.MakeJmp(fallback)))
	return hhbc.Gather(
		hhbc.Gather(tests...),
		hhbc.Gather(bodies...),
		hhbc.List(hhbc.MakeLabel(end), hhbc.MakeUnsetL(tmp)),
	), nil
}

func (c *funcCompiler) expr(x *ast.Expr) (hhbc.Seq, error) {
	if x == nil {
		return hhbc.Empty(), errors.New("missing expression")
	}
	switch x.Kind {
	case ast.ExprNull:
		return hhbc.One(hhbc.MakeNull()), nil
	case ast.ExprBool:
		if x.Bool {
			return hhbc.One(hhbc.MakeTrue()), nil
		}
		return hhbc.One(hhbc.MakeFalse()), nil
	case ast.ExprInt:
		return hhbc.One(hhbc.MakeInt(x.Int)), nil
	case ast.ExprString:
		return hhbc.One(hhbc.MakeString(x.Str)), nil
	case ast.ExprVar:
		return hhbc.One(hhbc.MakeCGetL(local.Named(x.Str))), nil
	case ast.ExprCall:
		parts := make([]hhbc.Seq, 0, len(x.Args)+1)
		for _, a := range x.Args {
			s, err := c.expr(a)
			if err != nil {
				return hhbc.Empty(), err
			}
			parts = append(parts, s)
		}
		parts = append(parts, hhbc.One(hhbc.MakeFCallFunc(x.Str, len(x.Args))))
		return hhbc.Gather(parts...), nil
	default:
		return hhbc.Empty(), fmt.Errorf("unknown expression kind %s", x.Kind)
	}
}

func regionName(kind string, pos source.Pos) string {
	if pos.IsNone() {
		return kind
	}
	return kind + "@" + strconv.FormatUint(uint64(pos.Line), 10)
}
