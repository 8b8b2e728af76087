package asm

import (
	"fmt"
	"io"
	"strings"

	"tfemit/internal/hhbc"
)

func renderListing(body hhbc.Seq) []string {
	var lines []string
	depth := 1
	add := func(s string) {
		lines = append(lines, strings.Repeat("  ", depth)+s)
	}
	body.Each(func(i *hhbc.Instr) bool {
		switch i.Op {
		case hhbc.OpLabel:
			lines = append(lines, i.String())
		case hhbc.OpSrcLoc:
			add(fmt.Sprintf(".srcloc %d:%d,%d:%d;", i.Pos.Line, i.Pos.Col, i.Pos.EndLine, i.Pos.EndCol))
		case hhbc.OpTryCatchBegin:
			add(".try {")
			depth++
		case hhbc.OpTryCatchMiddle:
			depth--
			add("} .catch {")
			depth++
		case hhbc.OpTryCatchEnd:
			depth--
			add("}")
		default:
			add(i.String())
		}
		return true
	})
	return lines
}

// WriteListing prints f in the textual assembly syntax.
func WriteListing(w io.Writer, f *Function) error {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = "$" + p
	}
	fmt.Fprintf(&sb, ".function %s(%s) {\n", f.Name, strings.Join(params, ", "))
	if f.NumLocals > 0 {
		fmt.Fprintf(&sb, "  .numlocals %d;\n", f.NumLocals)
	}
	if f.NumIters > 0 {
		fmt.Fprintf(&sb, "  .numiters %d;\n", f.NumIters)
	}
	for _, line := range f.Listing {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
