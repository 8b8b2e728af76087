package emit

import (
	"slices"

	"tfemit/internal/diag"
	"tfemit/internal/hhbc"
	"tfemit/internal/iterator"
	"tfemit/internal/jumptargets"
	"tfemit/internal/label"
	"tfemit/internal/reified"
	"tfemit/internal/source"
)

// JumpInstructions maps the exit ids used inside one try body to the flow
// marker that requested them. A later marker with the same id replaces the
// earlier one.
type JumpInstructions map[int]hhbc.Instr

// IDs returns the registered exit ids in ascending order.
func (j JumpInstructions) IDs() []int {
	ids := make([]int, 0, len(j))
	for id := range j {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CollectJumpInstructions gathers the flow markers of a compiled try body.
// It runs after the try region is popped, so levels and labels resolve the
// way the epilogue will resolve them.
func CollectJumpInstructions(seq hhbc.Seq, g *jumptargets.Gen) JumpInstructions {
	labelID := func(isBreak bool, level int) int {
		res := g.Targets().TargetForLevel(isBreak, level)
		if res.Kind == jumptargets.NotFound {
			invariant("flow marker with unresolvable level %d", level)
		}
		return g.IDForLabel(res.Target)
	}
	return hhbc.FoldLeft(seq, JumpInstructions{}, func(acc JumpInstructions, i *hhbc.Instr) JumpInstructions {
		switch i.Op {
		case hhbc.OpRetC, hhbc.OpRetM:
			acc[g.IDForReturn()] = *i
		case hhbc.OpBreak:
			acc[labelID(true, i.Count)] = *i
		case hhbc.OpContinue:
			acc[labelID(false, i.Count)] = *i
		case hhbc.OpGoto:
			acc[g.IDForLabel(label.Named(i.Str))] = *i
		}
		return acc
	})
}

// CleanupTryBody drops returns and flow markers from a try body; the
// epilogue re-emits them after the finally.
func CleanupTryBody(seq hhbc.Seq) hhbc.Seq {
	return seq.FilterMap(func(i *hhbc.Instr) (hhbc.Instr, bool) {
		if i.IsSpecialFlow() || i.IsReturn() {
			return hhbc.Instr{}, false
		}
		return *i, true
	})
}

func emitJumpToLabel(l label.Label, iters []iterator.Iter) hhbc.Seq {
	if len(iters) == 0 {
		return hhbc.One(hhbc.MakeJmp(l))
	}
	return hhbc.One(hhbc.MakeIterBreak(l, iters))
}

func (e *Emitter) emitSaveLabelID(id int) hhbc.Seq {
	return hhbc.List(
		hhbc.MakeInt(int64(id)),
		hhbc.MakeSetL(e.locals.ExitID()),
		hhbc.MakePopC(),
	)
}

// EmitGoto compiles `goto name`. In epilogue mode the exit id is already
// stored and a direct jump clears it.
func (e *Emitter) EmitGoto(inEpilogue bool, name string, env *Env) (hhbc.Seq, error) {
	inUsing, ok := env.JumpTargets.LabelsInFunction()[name]
	if !ok {
		return hhbc.Empty(), raiseFatalParse(posForError(env), diag.EmitGotoUndefinedLabel,
			"'goto' to undefined label '"+name+"'")
	}
	res := env.JumpTargets.Targets().FindGotoTarget(name)
	switch res.Kind {
	case jumptargets.GotoLabel:
		pre := hhbc.Empty()
		if inEpilogue {
			pre = hhbc.One(hhbc.MakeUnsetL(e.locals.ExitID()))
		}
		return hhbc.Gather(pre, emitJumpToLabel(label.Named(name), res.Iters)), nil
	case jumptargets.GotoFinally:
		pre := hhbc.Empty()
		if !inEpilogue {
			pre = e.emitSaveLabelID(env.JumpTargets.IDForLabel(label.Named(name)))
		}
		return hhbc.Gather(
			pre,
			emitJumpToLabel(res.FinallyStart, res.Iters),
			hhbc.One(hhbc.MakeGoto(name)),
		), nil
	case jumptargets.GotoFromFinally:
		return hhbc.Empty(), raiseFatalParse(posForError(env), diag.EmitGotoFromFinally,
			"Goto to a label outside a finally block is not supported")
	default:
		if inUsing {
			return hhbc.Empty(), raiseFatalParse(posForError(env), diag.EmitGotoIntoUsing,
				"'goto' into or across using statement is disallowed")
		}
		return hhbc.Empty(), raiseFatalParse(posForError(env), diag.EmitGotoIntoLoopOrSwitch,
			"'goto' into loop or switch statement is disallowed")
	}
}

// EmitReturn compiles a return of the value on top of the stack.
func (e *Emitter) EmitReturn(inEpilogue bool, env *Env) hhbc.Seq {
	jt := env.JumpTargets
	start, iters, ok := jt.Targets().ClosestEnclosingFinally()
	if ok {
		pre := hhbc.Empty()
		if !inEpilogue {
			pre = hhbc.Gather(
				e.emitSaveLabelID(jt.IDForReturn()),
				hhbc.List(hhbc.MakeSetL(e.locals.RetVal()), hhbc.MakePopC()),
			)
		}
		return hhbc.Gather(pre, emitJumpToLabel(start, iters), hhbc.One(hhbc.MakeRetC()))
	}

	parts := make([]hhbc.Seq, 0, 5)
	if inEpilogue {
		parts = append(parts, hhbc.One(hhbc.MakeCGetL(e.locals.RetVal())))
	}
	parts = append(parts, e.emitVerifyReturn(env), e.state.VerifyOut)
	for _, it := range jt.Targets().Iterators() {
		parts = append(parts, hhbc.One(hhbc.MakeIterFree(it)))
	}
	if e.state.NumOut != 0 {
		parts = append(parts, hhbc.One(hhbc.MakeRetM(e.state.NumOut+1)))
	} else {
		parts = append(parts, hhbc.One(hhbc.MakeRetC()))
	}
	return hhbc.Gather(parts...)
}

func (e *Emitter) emitVerifyReturn(env *Env) hhbc.Seq {
	if e.state.VerifyReturn == nil {
		return hhbc.Empty()
	}
	h := reified.ConvertAwaitable(env.Generics, e.state.VerifyReturn)
	h = reified.RemoveErasedGenerics(env.Generics, h)
	switch reified.HasReifiedTypeConstraint(env.Generics, h) {
	case reified.Not:
		return hhbc.One(hhbc.MakeVerifyRetTypeC())
	case reified.Maybe:
		return hhbc.Gather(reified.EmitTypeStructure(env.Generics, h), hhbc.One(hhbc.MakeVerifyRetTypeTS()))
	case reified.Definitely:
		check := hhbc.List(hhbc.MakeDup(), hhbc.MakeIsTypeC(hhbc.IsTypeNull))
		return reified.SimplifyVerifyType(env.Generics, check, h, hhbc.One(hhbc.MakeVerifyRetTypeTS()), e.labels)
	default:
		return hhbc.Empty()
	}
}

// BreakContinueMode selects break or continue, and normal or epilogue
// emission.
type BreakContinueMode uint8

const (
	ModeBreak BreakContinueMode = iota
	ModeContinue
	ModeBreakEpilogue
	ModeContinueEpilogue
)

// IsBreak reports whether the mode compiles a break.
func (m BreakContinueMode) IsBreak() bool {
	return m == ModeBreak || m == ModeBreakEpilogue
}

// InEpilogue reports whether the mode re-emits a marker after a finally.
func (m BreakContinueMode) InEpilogue() bool {
	return m == ModeBreakEpilogue || m == ModeContinueEpilogue
}

func (m BreakContinueMode) String() string {
	switch m {
	case ModeBreak:
		return "break"
	case ModeContinue:
		return "continue"
	case ModeBreakEpilogue:
		return "break(epilogue)"
	case ModeContinueEpilogue:
		return "continue(epilogue)"
	default:
		return "unknown"
	}
}

// EmitBreakOrContinue compiles `break level` or `continue level`.
func (e *Emitter) EmitBreakOrContinue(mode BreakContinueMode, env *Env, pos source.Pos, level int) (hhbc.Seq, error) {
	jt := env.JumpTargets
	res := jt.Targets().TargetForLevel(mode.IsBreak(), level)
	switch res.Kind {
	case jumptargets.Regular:
		pre := hhbc.Empty()
		if mode.InEpilogue() && level == 1 {
			pre = hhbc.One(hhbc.MakeUnsetL(e.locals.ExitID()))
		}
		return hhbc.Gather(pre, e.emitPos(pos), emitJumpToLabel(res.Target, res.Iters)), nil
	case jumptargets.ThroughFinally:
		pre := hhbc.Empty()
		if !mode.InEpilogue() {
			pre = e.emitSaveLabelID(jt.IDForLabel(res.Target))
		}
		marker := hhbc.MakeContinue(res.AdjustedLevel)
		if mode.IsBreak() {
			marker = hhbc.MakeBreak(res.AdjustedLevel)
		}
		return hhbc.Gather(
			pre,
			emitJumpToLabel(res.Finally, res.Iters),
			e.emitPos(pos),
			hhbc.One(marker),
		), nil
	default:
		msg := breakContinueMessage(level)
		if e.opts.BreakContinueRuntimeFatal {
			return e.emitFatal(FatalRuntime, pos, msg), nil
		}
		return hhbc.Empty(), &FatalError{Kind: FatalRuntime, Code: diag.EmitBreakContinueLevel, Pos: pos, Message: msg}
	}
}

// EmitFinallyEpilogue builds the dispatch placed after a finally body. It
// resumes the exit recorded in the exit-id slot, or falls through to
// finallyEnd when none is pending.
func (e *Emitter) EmitFinallyEpilogue(env *Env, pos source.Pos, table JumpInstructions, finallyEnd label.Label) (hhbc.Seq, error) {
	if len(table) == 0 {
		return hhbc.Empty(), nil
	}
	exit := e.locals.ExitID()
	ids := table.IDs()
	head := hhbc.Gather(e.emitPos(pos), hhbc.List(hhbc.MakeIsSetL(exit), hhbc.MakeJmpZ(finallyEnd)))

	if len(ids) == 1 {
		body, err := e.emitEpilogueInstr(env, pos, table[ids[0]])
		if err != nil {
			return hhbc.Empty(), err
		}
		return hhbc.Gather(head, body), nil
	}

	// The switch table must be dense from zero, so ids owned by other
	// regions fall through to finallyEnd.
	maxID := ids[len(ids)-1]
	targets := make([]label.Label, maxID+1)
	bodies := make([]hhbc.Seq, maxID+1)
	for slot := range targets {
		targets[slot] = finallyEnd
	}
	for k := len(ids) - 1; k >= 0; k-- {
		id := ids[k]
		l := e.labels.NextRegular()
		body, err := e.emitEpilogueInstr(env, pos, table[id])
		if err != nil {
			return hhbc.Empty(), err
		}
		targets[id] = l
		bodies[id] = hhbc.Gather(hhbc.One(hhbc.MakeLabel(l)), body)
	}
	return hhbc.Gather(
		head,
		hhbc.List(hhbc.MakeCGetL(exit), hhbc.MakeSwitch(targets)),
		hhbc.Gather(bodies...),
	), nil
}

func (e *Emitter) emitEpilogueInstr(env *Env, pos source.Pos, i hhbc.Instr) (hhbc.Seq, error) {
	switch i.Op {
	case hhbc.OpRetC, hhbc.OpRetM:
		return e.EmitReturn(true, env), nil
	case hhbc.OpBreak:
		return e.EmitBreakOrContinue(ModeBreakEpilogue, env, pos, i.Count)
	case hhbc.OpContinue:
		return e.EmitBreakOrContinue(ModeContinueEpilogue, env, pos, i.Count)
	case hhbc.OpGoto:
		return e.EmitGoto(true, i.Str, env)
	default:
		invariant("unexpected %s in finally epilogue: only returns and flow markers are expected", i.Op)
		return hhbc.Empty(), nil
	}
}
