package jumptargets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tfemit/internal/iterator"
	"tfemit/internal/label"
)

func TestBreakAndContinueDirect(t *testing.T) {
	g := NewGen(nil, nil)
	g.PushLoop(label.Regular(1), label.Regular(2), nil, nil)

	brk := g.Targets().TargetForLevel(true, 1)
	require.Equal(t, Regular, brk.Kind)
	require.Equal(t, label.Regular(1), brk.Target)
	require.Empty(t, brk.Iters)

	cont := g.Targets().TargetForLevel(false, 1)
	require.Equal(t, Regular, cont.Kind)
	require.Equal(t, label.Regular(2), cont.Target)
}

func TestBreakReleasesForeachIterators(t *testing.T) {
	g := NewGen(nil, nil)
	outer, inner := iterator.Iter{ID: 0}, iterator.Iter{ID: 1}
	g.PushLoop(label.Regular(1), label.Regular(2), &outer, nil)
	g.PushLoop(label.Regular(3), label.Regular(4), &inner, nil)

	brk := g.Targets().TargetForLevel(true, 2)
	require.Equal(t, Regular, brk.Kind)
	require.Equal(t, label.Regular(1), brk.Target)
	require.Equal(t, []iterator.Iter{inner, outer}, brk.Iters)

	// continuing the outer loop keeps its iterator alive
	cont := g.Targets().TargetForLevel(false, 2)
	require.Equal(t, label.Regular(2), cont.Target)
	require.Equal(t, []iterator.Iter{inner}, cont.Iters)
}

func TestContinueOnSwitchActsAsBreak(t *testing.T) {
	g := NewGen(nil, nil)
	g.PushSwitch(label.Regular(7), nil)
	res := g.Targets().TargetForLevel(false, 1)
	require.Equal(t, Regular, res.Kind)
	require.Equal(t, label.Regular(7), res.Target)
}

func TestDeepBreakWithoutLoopIsNotFound(t *testing.T) {
	g := NewGen(nil, nil)
	g.PushLoop(label.Regular(1), label.Regular(2), nil, nil)
	require.Equal(t, NotFound, g.Targets().TargetForLevel(true, 2).Kind)
	require.Equal(t, NotFound, g.Targets().TargetForLevel(false, 5).Kind)
}

func TestBreakThroughFinally(t *testing.T) {
	g := NewGen(nil, nil)
	it := iterator.Iter{ID: 0}
	g.PushLoop(label.Regular(1), label.Regular(2), nil, nil)
	g.PushTryFinally(label.Regular(10), nil)
	g.PushLoop(label.Regular(3), label.Regular(4), &it, nil)

	res := g.Targets().TargetForLevel(true, 2)
	require.Equal(t, ThroughFinally, res.Kind)
	require.Equal(t, label.Regular(1), res.Target)
	require.Equal(t, label.Regular(10), res.Finally)
	require.Equal(t, []iterator.Iter{it}, res.Iters)
	require.Equal(t, 1, res.AdjustedLevel)
}

func TestBreakDoesNotLeaveFinally(t *testing.T) {
	g := NewGen(nil, nil)
	g.PushLoop(label.Regular(1), label.Regular(2), nil, nil)
	g.PushFinally(nil)
	require.Equal(t, NotFound, g.Targets().TargetForLevel(true, 1).Kind)
}

func TestFindGotoTarget(t *testing.T) {
	g := NewGen(map[string]bool{"top": false, "inner": false}, []string{"top"})
	it := iterator.Iter{ID: 3}
	g.PushLoop(label.Regular(1), label.Regular(2), &it, []string{"inner"})

	require.Equal(t, ResolvedGotoTarget{Kind: GotoLabel}, g.Targets().FindGotoTarget("inner"))
	res := g.Targets().FindGotoTarget("top")
	require.Equal(t, GotoLabel, res.Kind)
	require.Equal(t, []iterator.Iter{it}, res.Iters)

	g.Pop()
	require.Equal(t, GotoInvalid, g.Targets().FindGotoTarget("inner").Kind)
}

func TestFindGotoTargetThroughFinally(t *testing.T) {
	g := NewGen(map[string]bool{"out": false}, []string{"out"})
	g.PushTryFinally(label.Regular(5), nil)
	res := g.Targets().FindGotoTarget("out")
	require.Equal(t, GotoFinally, res.Kind)
	require.Equal(t, label.Regular(5), res.FinallyStart)

	g.Pop()
	g.PushFinally([]string{"local"})
	require.Equal(t, GotoLabel, g.Targets().FindGotoTarget("local").Kind)
	require.Equal(t, GotoFromFinally, g.Targets().FindGotoTarget("out").Kind)
}

func TestClosestEnclosingFinally(t *testing.T) {
	g := NewGen(nil, nil)
	_, _, ok := g.Targets().ClosestEnclosingFinally()
	require.False(t, ok)

	it := iterator.Iter{ID: 0}
	g.PushUsing(label.Regular(4), nil)
	g.PushLoop(label.Regular(1), label.Regular(2), &it, nil)
	start, iters, ok := g.Targets().ClosestEnclosingFinally()
	require.True(t, ok)
	require.Equal(t, label.Regular(4), start)
	require.Equal(t, []iterator.Iter{it}, iters)
	require.Equal(t, []iterator.Iter{it}, g.Targets().Iterators())
}

func TestExitIDsAreMemoized(t *testing.T) {
	g := NewGen(nil, nil)
	a := g.IDForLabel(label.Regular(1))
	r := g.IDForReturn()
	b := g.IDForLabel(label.Named("x"))
	require.Equal(t, []int{0, 1, 2}, []int{a, r, b})
	require.Equal(t, a, g.IDForLabel(label.Regular(1)))
	require.Equal(t, r, g.IDForReturn())
	require.Equal(t, 3, g.Allocated())
}

func TestPopFunctionRegionPanics(t *testing.T) {
	g := NewGen(nil, nil)
	require.Panics(t, g.Pop)
}
