package loader

import (
	"tfemit/internal/ast"
	"tfemit/internal/diag"
)

func (b *builder) stmts(docs []stmtDoc) ([]ast.Stmt, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]ast.Stmt, 0, len(docs))
	for i := range docs {
		st, err := b.stmt(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (b *builder) stmt(d *stmtDoc) (ast.Stmt, error) {
	pos := b.pos(d.Line, d.Col)
	st := ast.Stmt{Pos: pos}
	var err error
	switch d.Kind {
	case "expr":
		st.Kind = ast.StmtExpr
		var x *ast.Expr
		if x, err = b.requiredExpr(d, "expr"); err == nil {
			st.Data = ast.ExprStmtData{Expr: x}
		}
	case "return":
		st.Kind = ast.StmtReturn
		var x *ast.Expr
		if x, err = b.expr(d); err == nil {
			st.Data = ast.ReturnData{Value: x}
		}
	case "break", "continue":
		st.Kind = ast.StmtBreak
		if d.Kind == "continue" {
			st.Kind = ast.StmtContinue
		}
		level := 1
		if d.Level != nil {
			level = *d.Level
		}
		st.Data = ast.JumpData{Level: level}
	case "goto", "label":
		st.Kind = ast.StmtGoto
		if d.Kind == "label" {
			st.Kind = ast.StmtLabel
		}
		name := ident(d.Label)
		if name == "" {
			return st, b.errorf(diag.IOBadUnit, pos, "%s without a label", d.Kind)
		}
		st.Data = ast.GotoData{Label: name}
	case "if":
		st.Kind = ast.StmtIf
		data := ast.IfData{}
		if data.Cond, err = b.requiredExpr(d, "if"); err != nil {
			break
		}
		if data.Then, err = b.stmts(d.Then); err != nil {
			break
		}
		if data.Else, err = b.stmts(d.Else); err != nil {
			break
		}
		st.Data = data
	case "while":
		st.Kind = ast.StmtWhile
		data := ast.WhileData{}
		if data.Cond, err = b.requiredExpr(d, "while"); err != nil {
			break
		}
		if data.Body, err = b.stmts(d.Body); err != nil {
			break
		}
		st.Data = data
	case "foreach":
		st.Kind = ast.StmtForeach
		data := ast.ForeachData{Value: ident(d.As)}
		if data.Value == "" {
			return st, b.errorf(diag.IOBadUnit, pos, "foreach without a value variable")
		}
		if data.Collection, err = b.requiredExpr(d, "foreach"); err != nil {
			break
		}
		if data.Body, err = b.stmts(d.Body); err != nil {
			break
		}
		st.Data = data
	case "switch":
		st.Kind = ast.StmtSwitch
		var data ast.SwitchData
		data, err = b.switchData(d)
		st.Data = data
	case "try":
		st.Kind = ast.StmtTry
		data := ast.TryData{}
		if data.Body, err = b.stmts(d.Body); err != nil {
			break
		}
		if data.Finally, err = b.stmts(d.Finally); err != nil {
			break
		}
		st.Data = data
	case "using":
		st.Kind = ast.StmtUsing
		data := ast.UsingData{}
		if data.Resource, err = b.requiredExpr(d, "using"); err != nil {
			break
		}
		if data.Body, err = b.stmts(d.Body); err != nil {
			break
		}
		st.Data = data
	case "block":
		st.Kind = ast.StmtBlock
		var body []ast.Stmt
		body, err = b.stmts(d.Body)
		st.Data = ast.BlockData{Body: body}
	case "":
		return st, b.errorf(diag.IOUnknownStmt, pos, "statement without a kind")
	default:
		return st, b.errorf(diag.IOUnknownStmt, pos, "unknown statement kind %q", d.Kind)
	}
	return st, err
}

func (b *builder) switchData(d *stmtDoc) (ast.SwitchData, error) {
	var data ast.SwitchData
	var err error
	if data.Subject, err = b.requiredExpr(d, "switch"); err != nil {
		return data, err
	}
	for _, c := range d.Case {
		pos := b.pos(c.Line, c.Col)
		arm := ast.Case{Pos: pos}
		switch {
		case c.Default && c.Value != "":
			return data, b.errorf(diag.IOBadUnit, pos, "default case with a value")
		case !c.Default:
			if arm.Value, err = b.parseExpr(pos, c.Value); err != nil {
				return data, err
			}
			if arm.Value == nil {
				return data, b.errorf(diag.IOBadUnit, pos, "case without a value")
			}
		}
		if arm.Body, err = b.stmts(c.Body); err != nil {
			return data, err
		}
		data.Cases = append(data.Cases, arm)
	}
	return data, nil
}
