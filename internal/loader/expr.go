package loader

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"tfemit/internal/ast"
	"tfemit/internal/diag"
	"tfemit/internal/source"
)

func (b *builder) expr(d *stmtDoc) (*ast.Expr, error) {
	return b.parseExpr(b.pos(d.Line, d.Col), d.Expr)
}

func (b *builder) requiredExpr(d *stmtDoc, what string) (*ast.Expr, error) {
	x, err := b.expr(d)
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, b.errorf(diag.IOBadUnit, b.pos(d.Line, d.Col), "%s without an expression", what)
	}
	return x, nil
}

// parseExpr reads an expression; the empty string yields nil.
func (b *builder) parseExpr(pos source.Pos, s string) (*ast.Expr, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	p := &exprParser{src: norm.NFC.String(s), at: pos}
	x, err := p.expr()
	if err == nil {
		p.skipSpace()
		if p.pos != len(p.src) {
			err = p.errorf("unexpected %q", p.src[p.pos:])
		}
	}
	if err != nil {
		return nil, b.errorf(diag.IOBadUnit, pos, "%v", err)
	}
	return x, nil
}

type exprParser struct {
	src string
	pos int
	at  source.Pos
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("expression %q: %s at offset %d", p.src, fmt.Sprintf(format, args...), p.pos)
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || r == '\\' || unicode.IsLetter(r) {
		return true
	}
	return !first && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r))
}

func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r, p.pos == start) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *exprParser) expr() (*ast.Expr, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end")
	case c == '"':
		return p.str()
	case c == '$':
		p.pos++
		name := p.ident()
		if name == "" {
			return nil, p.errorf("expected variable name")
		}
		return &ast.Expr{Kind: ast.ExprVar, Pos: p.at, Str: name}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.integer()
	}

	name := p.ident()
	switch name {
	case "":
		return nil, p.errorf("unexpected %q", c)
	case "null":
		return &ast.Expr{Kind: ast.ExprNull, Pos: p.at}, nil
	case "true", "false":
		return &ast.Expr{Kind: ast.ExprBool, Pos: p.at, Bool: name == "true"}, nil
	}
	if p.peek() != '(' {
		return nil, p.errorf("expected '(' after %s", name)
	}
	p.pos++
	call := &ast.Expr{Kind: ast.ExprCall, Pos: p.at, Str: name}
	if p.peek() == ')' {
		p.pos++
		return call, nil
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *exprParser) str() (*ast.Expr, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return nil, p.errorf("bad string literal: %v", err)
			}
			return &ast.Expr{Kind: ast.ExprString, Pos: p.at, Str: s}, nil
		}
		p.pos++
	}
	return nil, p.errorf("unterminated string")
}

func (p *exprParser) integer() (*ast.Expr, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		return nil, p.errorf("bad integer: %v", err)
	}
	return &ast.Expr{Kind: ast.ExprInt, Pos: p.at, Int: n}, nil
}
