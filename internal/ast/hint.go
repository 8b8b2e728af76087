package ast

import (
	"fmt"
	"strings"
)

// HintKind enumerates type hint shapes.
type HintKind uint8

const (
	HintApply  HintKind = iota // Name or Name<Args>
	HintOption                 // ?T
	HintSoft                   // @T
	HintLike                   // ~T
	HintTuple                  // (A, B)
	HintFun                    // (function(A): R)
)

// Hint is a declared type. Inner is the wrapped hint of Option, Soft and
// Like, and the return type of Fun.
type Hint struct {
	Kind  HintKind
	Name  string
	Args  []*Hint
	Inner *Hint
}

// Apply builds a named hint.
func Apply(name string, args ...*Hint) *Hint {
	return &Hint{Kind: HintApply, Name: name, Args: args}
}

// Option builds ?inner.
func Option(inner *Hint) *Hint {
	return &Hint{Kind: HintOption, Inner: inner}
}

// IsOptional reports whether the hint accepts null at the outermost level.
func (h *Hint) IsOptional() bool {
	if h == nil {
		return false
	}
	switch h.Kind {
	case HintOption:
		return true
	case HintSoft, HintLike:
		return h.Inner.IsOptional()
	default:
		return false
	}
}

// Clone returns a deep copy of h.
func (h *Hint) Clone() *Hint {
	if h == nil {
		return nil
	}
	out := &Hint{Kind: h.Kind, Name: h.Name, Inner: h.Inner.Clone()}
	if len(h.Args) > 0 {
		out.Args = make([]*Hint, len(h.Args))
		for i, a := range h.Args {
			out.Args[i] = a.Clone()
		}
	}
	return out
}

func (h *Hint) String() string {
	if h == nil {
		return "<none>"
	}
	var sb strings.Builder
	h.write(&sb)
	return sb.String()
}

func (h *Hint) write(sb *strings.Builder) {
	writeList := func(hs []*Hint) {
		for i, a := range hs {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.write(sb)
		}
	}
	switch h.Kind {
	case HintApply:
		sb.WriteString(h.Name)
		if len(h.Args) > 0 {
			sb.WriteByte('<')
			writeList(h.Args)
			sb.WriteByte('>')
		}
	case HintOption:
		sb.WriteByte('?')
		h.Inner.write(sb)
	case HintSoft:
		sb.WriteByte('@')
		h.Inner.write(sb)
	case HintLike:
		sb.WriteByte('~')
		h.Inner.write(sb)
	case HintTuple:
		sb.WriteByte('(')
		writeList(h.Args)
		sb.WriteByte(')')
	case HintFun:
		sb.WriteString("(function(")
		writeList(h.Args)
		sb.WriteString("): ")
		h.Inner.write(sb)
		sb.WriteByte(')')
	}
}

// ParseHint reads a hint written in source syntax.
func ParseHint(s string) (*Hint, error) {
	p := &hintParser{src: s}
	h, err := p.hint()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("hint %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return h, nil
}

type hintParser struct {
	src string
	pos int
}

func (p *hintParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *hintParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *hintParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *hintParser) errorf(format string, args ...any) error {
	return fmt.Errorf("hint %q: %s at offset %d", p.src, fmt.Sprintf(format, args...), p.pos)
}

func (p *hintParser) hint() (*Hint, error) {
	switch c := p.peek(); c {
	case '?', '@', '~':
		p.pos++
		inner, err := p.hint()
		if err != nil {
			return nil, err
		}
		kind := map[byte]HintKind{'?': HintOption, '@': HintSoft, '~': HintLike}[c]
		return &Hint{Kind: kind, Inner: inner}, nil
	case '(':
		p.pos++
		if p.keyword("function") {
			return p.funHint()
		}
		elems, err := p.list(')')
		if err != nil {
			return nil, err
		}
		return &Hint{Kind: HintTuple, Args: elems}, nil
	case 0:
		return nil, p.errorf("unexpected end")
	default:
		name := p.ident()
		if name == "" {
			return nil, p.errorf("unexpected %q", c)
		}
		h := &Hint{Kind: HintApply, Name: name}
		if p.peek() == '<' {
			p.pos++
			args, err := p.list('>')
			if err != nil {
				return nil, err
			}
			h.Args = args
		}
		return h, nil
	}
}

func (p *hintParser) funHint() (*Hint, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	params, err := p.list(')')
	if err != nil {
		return nil, err
	}
	if err = p.expect(':'); err != nil {
		return nil, err
	}
	ret, err := p.hint()
	if err != nil {
		return nil, err
	}
	if err = p.expect(')'); err != nil {
		return nil, err
	}
	return &Hint{Kind: HintFun, Args: params, Inner: ret}, nil
}

// list reads comma separated hints up to and including the closing byte.
func (p *hintParser) list(closing byte) ([]*Hint, error) {
	var out []*Hint
	if p.peek() == closing {
		p.pos++
		return out, nil
	}
	for {
		h, err := p.hint()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

func (p *hintParser) keyword(kw string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], kw) {
		return false
	}
	end := p.pos + len(kw)
	if end < len(p.src) && isIdentByte(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *hintParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '\\' ||
		c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
