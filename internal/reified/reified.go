// Package reified decides how much runtime work a return type check needs
// and emits the type-structure code for the expensive cases.
package reified

import (
	"slices"
	"strings"

	"tfemit/internal/ast"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
	"tfemit/internal/local"
)

// Level classifies a hint by how much of it is only known at runtime.
type Level uint8

const (
	// Unconstrained: nothing to verify.
	Unconstrained Level = iota
	// Not: the hint is fully static.
	Not
	// Maybe: some type argument depends on a reified generic.
	Maybe
	// Definitely: the hint itself is a reified generic.
	Definitely
)

func (l Level) String() string {
	switch l {
	case Unconstrained:
		return "unconstrained"
	case Not:
		return "not"
	case Maybe:
		return "maybe"
	case Definitely:
		return "definitely"
	default:
		return "unknown"
	}
}

// Context is the generic environment of the function being compiled.
type Context struct {
	Async        bool
	Reified      []string
	ClassReified []string
	Erased       []string
}

// ContextOf extracts the generic environment of fn.
func ContextOf(fn *ast.Func) Context {
	ctx := Context{Async: fn.Async, Reified: fn.Reified, Erased: fn.Erased}
	if fn.Class != nil {
		ctx.ClassReified = fn.Class.Reified
	}
	return ctx
}

func (c Context) isReified(name string) bool {
	return slices.Contains(c.Reified, name) || slices.Contains(c.ClassReified, name)
}

func (c Context) isErased(name string) bool {
	return name == "_" || slices.Contains(c.Erased, name)
}

func stripHHNamespace(name string) string {
	name = strings.TrimPrefix(name, `\`)
	if len(name) > 3 && strings.EqualFold(name[:3], `HH\`) {
		return name[3:]
	}
	return name
}

// ConvertAwaitable unwraps Awaitable<T> to T in async functions, where the
// checked value is the awaited result.
func ConvertAwaitable(ctx Context, h *ast.Hint) *ast.Hint {
	if !ctx.Async || h == nil || h.Kind != ast.HintApply || len(h.Args) != 1 {
		return h
	}
	if strings.EqualFold(stripHHNamespace(h.Name), "Awaitable") {
		return h.Args[0]
	}
	return h
}

// RemoveErasedGenerics replaces every erased type parameter with `_`.
func RemoveErasedGenerics(ctx Context, h *ast.Hint) *ast.Hint {
	if h == nil {
		return nil
	}
	out := &ast.Hint{Kind: h.Kind, Name: h.Name, Inner: RemoveErasedGenerics(ctx, h.Inner)}
	if h.Kind == ast.HintApply && slices.Contains(ctx.Erased, h.Name) {
		out.Name = "_"
	}
	for _, a := range h.Args {
		out.Args = append(out.Args, RemoveErasedGenerics(ctx, a))
	}
	return out
}

// HasReifiedTypeConstraint classifies h. A nil hint is Unconstrained.
func HasReifiedTypeConstraint(ctx Context, h *ast.Hint) Level {
	if h == nil {
		return Unconstrained
	}
	switch h.Kind {
	case ast.HintSoft, ast.HintLike, ast.HintOption:
		return HasReifiedTypeConstraint(ctx, h.Inner)
	case ast.HintApply:
		if ctx.isReified(h.Name) {
			return Definitely
		}
		if len(h.Args) == 0 || allErased(ctx, h.Args) {
			return Not
		}
		for _, a := range h.Args {
			if l := HasReifiedTypeConstraint(ctx, a); l == Definitely || l == Maybe {
				return Maybe
			}
		}
		return Not
	default:
		return Not
	}
}

func allErased(ctx Context, hs []*ast.Hint) bool {
	for _, h := range hs {
		if h.Kind != ast.HintApply || !ctx.isErased(h.Name) {
			return false
		}
	}
	return true
}

// ReifiedLocal is the hidden local holding the runtime type argument of the
// reified parameter name.
func ReifiedLocal(name string) local.Local {
	return local.Named("0Reified" + name)
}

// EmitTypeStructure pushes the runtime type structure of h. Reified type
// arguments are loaded from their hidden locals and combined with the
// static part.
func EmitTypeStructure(ctx Context, h *ast.Hint) hhbc.Seq {
	var names []string
	collectReified(ctx, h, &names)
	lit := hhbc.One(hhbc.MakeTypeStructLit(h.String()))
	if len(names) == 0 {
		return lit
	}
	parts := []hhbc.Seq{lit}
	for _, n := range names {
		parts = append(parts, hhbc.One(hhbc.MakeCGetL(ReifiedLocal(n))))
	}
	parts = append(parts, hhbc.One(hhbc.MakeCombineAndResolveTypeStruct(len(names)+1)))
	return hhbc.Gather(parts...)
}

func collectReified(ctx Context, h *ast.Hint, names *[]string) {
	if h == nil {
		return
	}
	if h.Kind == ast.HintApply && ctx.isReified(h.Name) && !slices.Contains(*names, h.Name) {
		*names = append(*names, h.Name)
	}
	collectReified(ctx, h.Inner, names)
	for _, a := range h.Args {
		collectReified(ctx, a, names)
	}
}

// SimplifyVerifyType emits the check of a Definitely-reified hint. An
// optional hint skips the type-structure work when check leaves a truthy
// value (the value is null).
func SimplifyVerifyType(ctx Context, check hhbc.Seq, h *ast.Hint, verify hhbc.Seq, labels *label.Gen) hhbc.Seq {
	if h.Kind != ast.HintOption {
		return hhbc.Gather(EmitTypeStructure(ctx, h), verify)
	}
	done := labels.NextRegular()
	return hhbc.Gather(
		check,
		hhbc.One(hhbc.MakeJmpNZ(done)),
		EmitTypeStructure(ctx, h.Inner),
		verify,
		hhbc.One(hhbc.MakeLabel(done)),
	)
}
