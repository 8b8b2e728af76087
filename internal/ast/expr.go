package ast

import "tfemit/internal/source"

// ExprKind enumerates the expressions the statement compiler understands.
type ExprKind uint8

const (
	ExprNull ExprKind = iota
	ExprBool
	ExprInt
	ExprString
	ExprVar
	ExprCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprNull:
		return "null"
	case ExprBool:
		return "bool"
	case ExprInt:
		return "int"
	case ExprString:
		return "string"
	case ExprVar:
		return "var"
	case ExprCall:
		return "call"
	default:
		return "unknown"
	}
}

// Expr is a leaf value, a variable read or a call.
type Expr struct {
	Kind ExprKind
	Pos  source.Pos
	Bool bool
	Int  int64
	Str  string // string literal, variable name or callee name
	Args []*Expr
}

// Int builds an integer literal.
func Int(n int64) *Expr {
	return &Expr{Kind: ExprInt, Int: n}
}

// Str builds a string literal.
func Str(s string) *Expr {
	return &Expr{Kind: ExprString, Str: s}
}

// Var builds a variable read.
func Var(name string) *Expr {
	return &Expr{Kind: ExprVar, Str: name}
}

// Call builds a call of a free function.
func Call(name string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Str: name, Args: args}
}
