package emit

import (
	"strconv"

	"tfemit/internal/ast"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
	"tfemit/internal/local"
	"tfemit/internal/source"
	"tfemit/internal/trace"
)

// tryStmt lays out a try/finally:
//
//	TryCatchBegin
//	  <try body without exits>
//	  Jmp finallyStart
//	TryCatchMiddle
//	  <finally body, fresh labels>
//	  Throw
//	TryCatchEnd
//	finallyStart:
//	  <finally body>
//	  <epilogue>
//	finallyEnd:
func (c *funcCompiler) tryStmt(pos source.Pos, data ast.TryData) (hhbc.Seq, error) {
	e, jt := c.e, c.env.JumpTargets
	finallyStart := e.labels.NextRegular()
	finallyEnd := e.labels.NextRegular()

	jt.PushTryFinally(finallyStart, ast.DirectLabels(data.Body))
	tryBody, err := c.stmts(data.Body)
	jt.Pop()
	if err != nil {
		return hhbc.Empty(), err
	}
	jumps := CollectJumpInstructions(tryBody, jt)

	jt.PushFinally(ast.DirectLabels(data.Finally))
	finallyBody, err := c.stmts(data.Finally)
	jt.Pop()
	if err != nil {
		return hhbc.Empty(), err
	}

	return c.finishProtected(pos, "finally", tryBody, jumps, finallyBody, finallyStart, finallyEnd)
}

// usingStmt disposes the resource on every way out of the body, with the
// same layout as try/finally.
func (c *funcCompiler) usingStmt(pos source.Pos, data ast.UsingData) (hhbc.Seq, error) {
	e, jt := c.e, c.env.JumpTargets
	resource, err := c.expr(data.Resource)
	if err != nil {
		return hhbc.Empty(), err
	}
	tmp := e.locals.NextUnnamed()
	finallyStart := e.labels.NextRegular()
	finallyEnd := e.labels.NextRegular()

	jt.PushUsing(finallyStart, ast.DirectLabels(data.Body))
	body, err := c.stmts(data.Body)
	jt.Pop()
	if err != nil {
		return hhbc.Empty(), err
	}
	jumps := CollectJumpInstructions(body, jt)

	seq, err := c.finishProtected(pos, "using", body, jumps, emitDispose(tmp), finallyStart, finallyEnd)
	if err != nil {
		return hhbc.Empty(), err
	}
	return hhbc.Gather(
		resource,
		hhbc.List(hhbc.MakeSetL(tmp), hhbc.MakePopC()),
		seq,
	), nil
}

func emitDispose(resource local.Local) hhbc.Seq {
	return hhbc.List(
		hhbc.MakeCGetL(resource),
		hhbc.MakeFCallFunc("dispose", 1),
		hhbc.MakePopC(),
	)
}

func (c *funcCompiler) finishProtected(pos source.Pos, kind string, body hhbc.Seq, jumps JumpInstructions,
	finallyBody hhbc.Seq, finallyStart, finallyEnd label.Label,
) (hhbc.Seq, error) {
	e := c.e
	epilogue, err := e.EmitFinallyEpilogue(c.env, pos, jumps, finallyEnd)
	if err != nil {
		return hhbc.Empty(), err
	}
	trace.Point(c.tracer, trace.ScopeRegion, regionName(kind, pos), "", c.spanID, map[string]string{
		"exits":    strconv.Itoa(len(jumps)),
		"dispatch": strconv.Itoa(dispatchWidth(jumps)),
	})
	return hhbc.Gather(
		hhbc.One(hhbc.MakeTryCatchBegin()),
		CleanupTryBody(body),
		hhbc.List(hhbc.MakeJmp(finallyStart), hhbc.MakeTryCatchMiddle()),
		relabel(finallyBody, e.labels),
		hhbc.List(hhbc.MakeThrow(), hhbc.MakeTryCatchEnd(), hhbc.MakeLabel(finallyStart)),
		finallyBody,
		epilogue,
		hhbc.One(hhbc.MakeLabel(finallyEnd)),
	), nil
}

// dispatchWidth is the size of the epilogue switch, 0 when none is needed.
func dispatchWidth(jumps JumpInstructions) int {
	if len(jumps) < 2 {
		return 0
	}
	ids := jumps.IDs()
	return ids[len(ids)-1] + 1
}

// relabel copies seq giving every label it defines a fresh name, so the
// exceptional copy of a finally body can sit next to the normal one.
func relabel(seq hhbc.Seq, gen *label.Gen) hhbc.Seq {
	fresh := make(map[label.Label]label.Label)
	seq.Each(func(i *hhbc.Instr) bool {
		if i.Op == hhbc.OpLabel {
			fresh[i.Label] = gen.NextRegular()
		}
		return true
	})
	if len(fresh) == 0 {
		return seq
	}
	rename := func(l label.Label) label.Label {
		if nl, ok := fresh[l]; ok {
			return nl
		}
		return l
	}
	return seq.Map(func(i hhbc.Instr) hhbc.Instr {
		if i.Op == hhbc.OpLabel || i.IsJump() {
			i.Label = rename(i.Label)
		}
		if len(i.Labels) > 0 {
			ls := make([]label.Label, len(i.Labels))
			for k, l := range i.Labels {
				ls[k] = rename(l)
			}
			i.Labels = ls
		}
		return i
	})
}
