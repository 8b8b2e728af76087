package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tfemit/internal/ast"
	"tfemit/internal/source"
)

var funcPos = source.At(1, 3, 9)

func stmt(kind ast.StmtKind, data ast.StmtData) ast.Stmt {
	return ast.Stmt{Kind: kind, Data: data}
}

func ret(x *ast.Expr) ast.Stmt   { return stmt(ast.StmtReturn, ast.ReturnData{Value: x}) }
func brk(level int) ast.Stmt     { return stmt(ast.StmtBreak, ast.JumpData{Level: level}) }
func cont(level int) ast.Stmt    { return stmt(ast.StmtContinue, ast.JumpData{Level: level}) }
func gotoStmt(l string) ast.Stmt { return stmt(ast.StmtGoto, ast.GotoData{Label: l}) }
func labelStmt(l string) ast.Stmt {
	return stmt(ast.StmtLabel, ast.GotoData{Label: l})
}

func call(name string, args ...*ast.Expr) ast.Stmt {
	return stmt(ast.StmtExpr, ast.ExprStmtData{Expr: ast.Call(name, args...)})
}

func try(body, finally []ast.Stmt) ast.Stmt {
	return stmt(ast.StmtTry, ast.TryData{Body: body, Finally: finally})
}

func while(body ...ast.Stmt) ast.Stmt {
	return stmt(ast.StmtWhile, ast.WhileData{Cond: ast.Var("c"), Body: body})
}

func foreach(body ...ast.Stmt) ast.Stmt {
	return stmt(ast.StmtForeach, ast.ForeachData{Collection: ast.Var("xs"), Value: "x", Body: body})
}

func using(body ...ast.Stmt) ast.Stmt {
	return stmt(ast.StmtUsing, ast.UsingData{Resource: ast.Call("open"), Body: body})
}

func fn(body ...ast.Stmt) *ast.Func {
	return &ast.Func{Name: "f", Pos: funcPos, Body: body}
}

func compile(t *testing.T, f *ast.Func, opts Options) *Func {
	t.Helper()
	out, err := CompileFunc(context.Background(), f, opts)
	require.NoError(t, err)
	return out
}

// newEnv builds an emitter and environment for f without compiling it.
func newEnv(t *testing.T, f *ast.Func) (*Emitter, *Env) {
	t.Helper()
	labels, err := ast.CollectLabels(f.Body)
	require.NoError(t, err)
	return NewEmitter(Options{}), NewEnv(f, labels)
}
