package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tfemit/internal/ast"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
	"tfemit/internal/source"
)

func TestCleanupTryBodyRemovesFlowAndKeepsOrder(t *testing.T) {
	in := hhbc.Gather(
		hhbc.List(hhbc.MakeInt(1), hhbc.MakeRetC()),
		hhbc.List(hhbc.MakeJmp(label.Regular(0)), hhbc.MakeBreak(2)),
		hhbc.List(hhbc.MakeNull(), hhbc.MakeContinue(1), hhbc.MakeRetM(3)),
		hhbc.List(hhbc.MakeGoto("out"), hhbc.MakePopC()),
	)
	before := in.Strings()

	out := CleanupTryBody(in)
	require.Equal(t, []string{"Int 1", "Jmp L0", "Null", "PopC"}, out.Strings())
	require.Equal(t, before, in.Strings())
	require.False(t, out.Contains(func(i *hhbc.Instr) bool { return i.IsSpecialFlow() || i.IsReturn() }))
}

func TestCollectJumpInstructions(t *testing.T) {
	f := fn(labelStmt("out"))
	e, env := newEnv(t, f)
	jt := env.JumpTargets
	brkLabel, contLabel := e.Labels().NextRegular(), e.Labels().NextRegular()
	jt.PushLoop(brkLabel, contLabel, nil, nil)

	seq := hhbc.List(
		hhbc.MakeContinue(1),
		hhbc.MakeInt(3),
		hhbc.MakeRetC(),
		hhbc.MakeGoto("out"),
		hhbc.MakeBreak(1),
		hhbc.MakeRetM(2),
	)
	table := CollectJumpInstructions(seq, jt)
	require.Equal(t, []int{0, 1, 2, 3}, table.IDs())
	require.Equal(t, hhbc.OpContinue, table[0].Op)
	// the later return replaces the earlier one
	require.Equal(t, hhbc.OpRetM, table[1].Op)
	require.Equal(t, hhbc.OpGoto, table[2].Op)
	require.Equal(t, hhbc.OpBreak, table[3].Op)

	require.Equal(t, 0, jt.IDForLabel(contLabel))
	require.Equal(t, 3, jt.IDForLabel(brkLabel))
}

func TestCollectJumpInstructionsPanicsOnUnresolvedLevel(t *testing.T) {
	_, env := newEnv(t, fn())
	require.PanicsWithValue(t,
		InvariantError{Msg: "flow marker with unresolvable level 1"},
		func() { CollectJumpInstructions(hhbc.One(hhbc.MakeBreak(1)), env.JumpTargets) })
}

func TestEpilogueEmpty(t *testing.T) {
	e, env := newEnv(t, fn())
	seq, err := e.EmitFinallyEpilogue(env, source.NoPos, JumpInstructions{}, label.Regular(9))
	require.NoError(t, err)
	require.True(t, seq.IsEmpty())
	require.Zero(t, e.Locals().Count())
}

func TestEpilogueSingleEntryHasNoSwitch(t *testing.T) {
	e, env := newEnv(t, fn())
	end := e.Labels().NextRegular()
	table := JumpInstructions{5: hhbc.MakeRetC()}

	seq, err := e.EmitFinallyEpilogue(env, source.NoPos, table, end)
	require.NoError(t, err)
	require.Equal(t, []string{
		"IsSetL _0",
		"JmpZ L0",
		"CGetL _1",
		"RetC",
	}, seq.Strings())
	require.False(t, seq.Contains(func(i *hhbc.Instr) bool { return i.Op == hhbc.OpSwitch }))
}

func TestEpilogueDenseTableFillsGaps(t *testing.T) {
	e, env := newEnv(t, fn(labelStmt("done")))
	end := e.Labels().NextRegular()
	table := JumpInstructions{
		1: hhbc.MakeRetC(),
		4: hhbc.MakeGoto("done"),
	}

	seq, err := e.EmitFinallyEpilogue(env, source.NoPos, table, end)
	require.NoError(t, err)
	require.Equal(t, []string{
		"IsSetL _0",
		"JmpZ L0",
		"CGetL _0",
		"Switch <L0 L2 L0 L0 L1>",
		"L2:",
		"CGetL _1",
		"RetC",
		"L1:",
		"UnsetL _0",
		"Jmp done",
	}, seq.Strings())

	var sw hhbc.Instr
	seq.Each(func(i *hhbc.Instr) bool {
		if i.Op == hhbc.OpSwitch {
			sw = *i
			return false
		}
		return true
	})
	require.Len(t, sw.Labels, 5)
	for slot, l := range sw.Labels {
		if _, ok := table[slot]; !ok {
			require.Equal(t, end, l, "slot %d", slot)
		}
	}
}

func TestEpilogueRejectsOtherInstructions(t *testing.T) {
	e, env := newEnv(t, fn())
	table := JumpInstructions{0: hhbc.MakeRetC(), 1: hhbc.MakeJmp(label.Regular(0))}
	require.Panics(t, func() {
		_, _ = e.EmitFinallyEpilogue(env, source.NoPos, table, label.Regular(0))
	})
}

func TestEpilogueEmitsSrcLoc(t *testing.T) {
	f := fn()
	labels, err := ast.CollectLabels(f.Body)
	require.NoError(t, err)
	e, env := NewEmitter(Options{SrcLocs: true}), NewEnv(f, labels)
	seq, err := e.EmitFinallyEpilogue(env, source.At(1, 4, 2), JumpInstructions{0: hhbc.MakeRetC()}, label.Regular(0))
	require.NoError(t, err)
	require.Equal(t, ".srcloc 4:2", seq.Strings()[0])
}
