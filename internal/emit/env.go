package emit

import (
	"tfemit/internal/ast"
	"tfemit/internal/jumptargets"
	"tfemit/internal/reified"
	"tfemit/internal/source"
)

// ScopeKind is the kind of a lexical scope item.
type ScopeKind uint8

const (
	ScopeFunction ScopeKind = iota
	ScopeClass
	ScopeMethod
	ScopeLambda
)

// ScopeItem is one enclosing declaration.
type ScopeItem struct {
	Kind ScopeKind
	Name string
	Pos  source.Pos
}

// Env is the compilation environment of one function body.
type Env struct {
	// Scope lists enclosing declarations, innermost first.
	Scope []ScopeItem
	// JumpTargets resolves non-local exits.
	JumpTargets *jumptargets.Gen
	// Generics is the reified generic context for return checks.
	Generics reified.Context
}

// NewEnv builds the environment of fn with the given label table.
func NewEnv(fn *ast.Func, labels map[string]bool) *Env {
	env := &Env{
		JumpTargets: jumptargets.NewGen(labels, ast.DirectLabels(fn.Body)),
		Generics:    reified.ContextOf(fn),
	}
	switch fn.Kind {
	case ast.FuncMethod:
		env.Scope = append(env.Scope, ScopeItem{Kind: ScopeMethod, Name: fn.Name, Pos: fn.Pos})
	case ast.FuncLambda:
		env.Scope = append(env.Scope, ScopeItem{Kind: ScopeLambda, Name: fn.Name, Pos: fn.Pos})
	default:
		env.Scope = append(env.Scope, ScopeItem{Kind: ScopeFunction, Name: fn.Name, Pos: fn.Pos})
	}
	if fn.Class != nil {
		env.Scope = append(env.Scope, ScopeItem{Kind: ScopeClass, Name: fn.Class.Name, Pos: fn.Class.Pos})
	}
	return env
}
