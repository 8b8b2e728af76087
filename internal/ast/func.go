// Package ast holds the already-resolved function bodies fed to the emitter.
package ast

import "tfemit/internal/source"

// FuncKind tells where a function body lives.
type FuncKind uint8

const (
	FuncFunction FuncKind = iota
	FuncMethod
	FuncLambda
)

func (k FuncKind) String() string {
	switch k {
	case FuncFunction:
		return "function"
	case FuncMethod:
		return "method"
	case FuncLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// Class is the enclosing class of a method.
type Class struct {
	Name    string
	Pos     source.Pos
	Reified []string
}

// Param is a formal parameter.
type Param struct {
	Name  string
	InOut bool
	Hint  *Hint // nil when unannotated
}

// Func is one function, method or lambda body.
type Func struct {
	Name       string
	Kind       FuncKind
	Pos        source.Pos
	Class      *Class // set for methods
	Async      bool
	Params     []Param
	ReturnHint *Hint    // nil when unannotated
	Reified    []string // reified type parameters
	Erased     []string // erased type parameters
	Body       []Stmt
}

// NumInOut counts inout parameters.
func (f *Func) NumInOut() int {
	n := 0
	for i := range f.Params {
		if f.Params[i].InOut {
			n++
		}
	}
	return n
}

// Unit is everything read from one input file.
type Unit struct {
	Path  string
	File  source.FileID
	Funcs []*Func
}
