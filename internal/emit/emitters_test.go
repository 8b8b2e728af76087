package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/iterator"
	"tfemit/internal/label"
	"tfemit/internal/source"
)

func requireFatal(t *testing.T, err error, code diag.Code, msg string) *FatalError {
	t.Helper()
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, code, fatal.Code)
	require.Equal(t, msg, fatal.Message)
	return fatal
}

func TestEmitGotoUndefinedLabel(t *testing.T) {
	e, env := newEnv(t, fn())
	_, err := e.EmitGoto(false, "nowhere", env)
	fatal := requireFatal(t, err, diag.EmitGotoUndefinedLabel, "'goto' to undefined label 'nowhere'")
	require.Equal(t, FatalParse, fatal.Kind)
	require.Equal(t, funcPos.FirstCharOfLine(), fatal.Pos)
}

func TestEmitGotoDirect(t *testing.T) {
	e, env := newEnv(t, fn(labelStmt("out")))
	seq, err := e.EmitGoto(false, "out", env)
	require.NoError(t, err)
	require.Equal(t, []string{"Jmp out"}, seq.Strings())

	seq, err = e.EmitGoto(true, "out", env)
	require.NoError(t, err)
	require.Equal(t, []string{"UnsetL _0", "Jmp out"}, seq.Strings())
}

func TestEmitGotoOutOfForeachReleasesIterator(t *testing.T) {
	e, env := newEnv(t, fn(labelStmt("out")))
	it := iterator.Iter{ID: 0}
	env.JumpTargets.PushLoop(label.Regular(0), label.Regular(1), &it, nil)
	seq, err := e.EmitGoto(false, "out", env)
	require.NoError(t, err)
	require.Equal(t, []string{"IterBreak out <0>"}, seq.Strings())
}

func TestEmitGotoThroughFinally(t *testing.T) {
	e, env := newEnv(t, fn(labelStmt("out")))
	env.JumpTargets.PushTryFinally(label.Regular(4), nil)

	seq, err := e.EmitGoto(false, "out", env)
	require.NoError(t, err)
	require.Equal(t, []string{"Int 0", "SetL _0", "PopC", "Jmp L4", "Goto out"}, seq.Strings())

	seq, err = e.EmitGoto(true, "out", env)
	require.NoError(t, err)
	require.Equal(t, []string{"Jmp L4", "Goto out"}, seq.Strings())
}

func TestEmitGotoIntoUsing(t *testing.T) {
	e, env := newEnv(t, fn(using(labelStmt("inside"))))
	_, err := e.EmitGoto(false, "inside", env)
	requireFatal(t, err, diag.EmitGotoIntoUsing, "'goto' into or across using statement is disallowed")
}

func TestEmitGotoIntoLoop(t *testing.T) {
	e, env := newEnv(t, fn(while(labelStmt("inside"))))
	_, err := e.EmitGoto(false, "inside", env)
	requireFatal(t, err, diag.EmitGotoIntoLoopOrSwitch, "'goto' into loop or switch statement is disallowed")
}

func TestEmitGotoOutOfFinally(t *testing.T) {
	e, env := newEnv(t, fn(labelStmt("out")))
	env.JumpTargets.PushFinally(nil)
	_, err := e.EmitGoto(false, "out", env)
	requireFatal(t, err, diag.EmitGotoFromFinally, "Goto to a label outside a finally block is not supported")
}

func TestErrorPositionOfMethodIsItsClass(t *testing.T) {
	classPos := source.At(1, 2, 7)
	m := &ast.Func{
		Name:  "m",
		Kind:  ast.FuncMethod,
		Pos:   source.At(1, 5, 3),
		Class: &ast.Class{Name: "C", Pos: classPos},
	}
	e, env := newEnv(t, m)
	_, err := e.EmitGoto(false, "x", env)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, classPos.FirstCharOfLine(), fatal.Pos)

	lambda := &ast.Func{Name: "{closure}", Kind: ast.FuncLambda, Pos: source.At(1, 9, 3)}
	e, env = newEnv(t, lambda)
	_, err = e.EmitGoto(false, "x", env)
	require.ErrorAs(t, err, &fatal)
	require.True(t, fatal.Pos.IsNone())
}

func TestEmitBreakOrContinueDirect(t *testing.T) {
	e, env := newEnv(t, fn())
	env.JumpTargets.PushLoop(label.Regular(0), label.Regular(1), nil, nil)
	env.JumpTargets.PushLoop(label.Regular(2), label.Regular(3), nil, nil)

	cases := []struct {
		mode  BreakContinueMode
		level int
		want  []string
	}{
		{ModeBreak, 1, []string{"Jmp L2"}},
		{ModeContinue, 2, []string{"Jmp L1"}},
		{ModeBreakEpilogue, 1, []string{"UnsetL _0", "Jmp L2"}},
		// only level 1 clears the slot
		{ModeContinueEpilogue, 2, []string{"Jmp L1"}},
	}
	for _, tc := range cases {
		seq, err := e.EmitBreakOrContinue(tc.mode, env, source.NoPos, tc.level)
		require.NoError(t, err, tc.mode.String())
		require.Equal(t, tc.want, seq.Strings(), tc.mode.String())
	}
}

func TestEmitBreakThroughFinally(t *testing.T) {
	e, env := newEnv(t, fn())
	it := iterator.Iter{ID: 0}
	env.JumpTargets.PushLoop(label.Regular(0), label.Regular(1), nil, nil)
	env.JumpTargets.PushTryFinally(label.Regular(2), nil)
	env.JumpTargets.PushLoop(label.Regular(3), label.Regular(4), &it, nil)

	seq, err := e.EmitBreakOrContinue(ModeBreak, env, source.NoPos, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Int 0", "SetL _0", "PopC", "IterBreak L2 <0>", "Break 1"}, seq.Strings())

	seq, err = e.EmitBreakOrContinue(ModeContinueEpilogue, env, source.NoPos, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"IterBreak L2 <0>", "Continue 1"}, seq.Strings())
	require.Equal(t, 1, env.JumpTargets.Allocated())
}

func TestDeepBreakWithoutFinallyIsNotFound(t *testing.T) {
	e, env := newEnv(t, fn())
	env.JumpTargets.PushLoop(label.Regular(0), label.Regular(1), nil, nil)
	pos := source.At(1, 7, 5)

	_, err := e.EmitBreakOrContinue(ModeBreak, env, pos, 2)
	fatal := requireFatal(t, err, diag.EmitBreakContinueLevel, "Cannot break/continue 2 levels")
	require.Equal(t, pos, fatal.Pos)

	_, err = e.EmitBreakOrContinue(ModeContinue, env, pos, 3)
	requireFatal(t, err, diag.EmitBreakContinueLevel, "Cannot break/continue 3 levels")

	_, env = newEnv(t, fn())
	_, err = e.EmitBreakOrContinue(ModeBreak, env, pos, 1)
	requireFatal(t, err, diag.EmitBreakContinueLevel, "Cannot break/continue 1 level")
}

func TestBreakContinueRuntimeFatal(t *testing.T) {
	_, env := newEnv(t, fn())
	e := NewEmitter(Options{BreakContinueRuntimeFatal: true})
	seq, err := e.EmitBreakOrContinue(ModeBreak, env, source.NoPos, 3)
	require.NoError(t, err)
	require.Equal(t, []string{`String "Cannot break/continue 3 levels"`, "Fatal Runtime"}, seq.Strings())
}

func TestEmitReturnNoFinally(t *testing.T) {
	e, env := newEnv(t, fn())
	require.Equal(t, []string{"RetC"}, e.EmitReturn(false, env).Strings())
	require.Equal(t, []string{"CGetL _0", "RetC"}, e.EmitReturn(true, env).Strings())
}

func TestEmitReturnReleasesIterators(t *testing.T) {
	e, env := newEnv(t, fn())
	outer, inner := iterator.Iter{ID: 0}, iterator.Iter{ID: 1}
	env.JumpTargets.PushLoop(label.Regular(0), label.Regular(1), &outer, nil)
	env.JumpTargets.PushLoop(label.Regular(2), label.Regular(3), &inner, nil)
	require.Equal(t, []string{"IterFree 1", "IterFree 0", "RetC"}, e.EmitReturn(false, env).Strings())
}

func TestEmitReturnThroughFinally(t *testing.T) {
	e, env := newEnv(t, fn())
	env.JumpTargets.PushTryFinally(label.Regular(7), nil)
	require.Equal(t, []string{
		"Int 0", "SetL _0", "PopC",
		"SetL _1", "PopC",
		"Jmp L7",
		"RetC",
	}, e.EmitReturn(false, env).Strings())
	require.Equal(t, []string{"Jmp L7", "RetC"}, e.EmitReturn(true, env).Strings())
}

func TestEmitReturnMultiValue(t *testing.T) {
	intHint, err := ast.ParseHint("int")
	require.NoError(t, err)
	f := fn()
	f.Params = []ast.Param{{Name: "a"}, {Name: "p", InOut: true, Hint: intHint}, {Name: "q", InOut: true}}
	e, env := newEnv(t, f)
	e.SetState(State{NumOut: f.NumInOut(), VerifyOut: emitVerifyOut(f)})
	require.Equal(t, []string{
		"CGetL $p", "VerifyOutType 1",
		"CGetL $q",
		"RetM 3",
	}, e.EmitReturn(false, env).Strings())
}

func TestEmitReturnVerification(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*ast.Func)
		hint string
		want []string
	}{
		{
			name: "not reified",
			hint: "int",
			want: []string{"VerifyRetTypeC", "RetC"},
		},
		{
			name: "maybe reified",
			fn:   func(f *ast.Func) { f.Reified = []string{"T"} },
			hint: "vec<T>",
			want: []string{
				`TypeStruct "vec<T>"`, "CGetL $0ReifiedT", "CombineAndResolveTypeStruct 2",
				"VerifyRetTypeTS", "RetC",
			},
		},
		{
			name: "definitely reified",
			fn:   func(f *ast.Func) { f.Reified = []string{"T"} },
			hint: "T",
			want: []string{
				`TypeStruct "T"`, "CGetL $0ReifiedT", "CombineAndResolveTypeStruct 2",
				"VerifyRetTypeTS", "RetC",
			},
		},
		{
			name: "definitely reified optional",
			fn:   func(f *ast.Func) { f.Reified = []string{"T"} },
			hint: "?T",
			want: []string{
				"Dup", "IsTypeC Null", "JmpNZ L0",
				`TypeStruct "T"`, "CGetL $0ReifiedT", "CombineAndResolveTypeStruct 2",
				"VerifyRetTypeTS", "L0:", "RetC",
			},
		},
		{
			name: "async awaitable of erased generic",
			fn: func(f *ast.Func) {
				f.Async = true
				f.Erased = []string{"E"}
			},
			hint: "Awaitable<vec<E>>",
			want: []string{"VerifyRetTypeC", "RetC"},
		},
		{
			name: "class reified in method",
			fn: func(f *ast.Func) {
				f.Kind = ast.FuncMethod
				f.Class = &ast.Class{Name: "C", Reified: []string{"TC"}}
			},
			hint: "dict<int, TC>",
			want: []string{
				`TypeStruct "dict<int, TC>"`, "CGetL $0ReifiedTC", "CombineAndResolveTypeStruct 2",
				"VerifyRetTypeTS", "RetC",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := fn()
			if tc.fn != nil {
				tc.fn(f)
			}
			h, err := ast.ParseHint(tc.hint)
			require.NoError(t, err)
			e, env := newEnv(t, f)
			e.SetState(State{VerifyReturn: h})
			require.Equal(t, tc.want, e.EmitReturn(false, env).Strings())
		})
	}
}

func TestBreakContinueMode(t *testing.T) {
	require.True(t, ModeBreak.IsBreak())
	require.False(t, ModeBreak.InEpilogue())
	require.True(t, ModeBreakEpilogue.IsBreak())
	require.True(t, ModeContinueEpilogue.InEpilogue())
	require.False(t, ModeContinue.IsBreak())
}
