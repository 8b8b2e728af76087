package hhbc

import (
	"fmt"
	"strconv"
	"strings"

	"tfemit/internal/iterator"
	"tfemit/internal/label"
)

// String renders the instruction in listing syntax.
func (i Instr) String() string {
	switch i.Op {
	case OpLabel:
		return i.Label.String() + ":"
	case OpSrcLoc:
		return fmt.Sprintf(".srcloc %d:%d", i.Pos.Line, i.Pos.Col)
	case OpInt:
		return "Int " + strconv.FormatInt(i.Int, 10)
	case OpString, OpTypeStructLit:
		return i.Op.String() + " " + strconv.Quote(i.Str)
	case OpCGetL, OpSetL, OpUnsetL, OpIsSetL:
		return i.Op.String() + " " + i.Local.String()
	case OpJmp, OpJmpZ, OpJmpNZ:
		return i.Op.String() + " " + i.Label.String()
	case OpSwitch:
		return "Switch " + labelList(i.Labels)
	case OpRetM, OpBreak, OpContinue, OpVerifyOutType, OpCombineAndResolveTypeStruct:
		return i.Op.String() + " " + strconv.Itoa(i.Count)
	case OpFatal:
		return "Fatal " + i.Fatal.String()
	case OpIsTypeC:
		return "IsTypeC " + i.IsType.String()
	case OpGoto:
		return "Goto " + i.Str
	case OpFCallFunc:
		return fmt.Sprintf("FCallFunc %d %q", i.Count, i.Str)
	case OpIterInit, OpIterNext:
		return fmt.Sprintf("%s %s %s %s", i.Op, i.Iter, i.Label, i.Local)
	case OpIterFree:
		return "IterFree " + i.Iter.String()
	case OpIterBreak:
		return "IterBreak " + i.Label.String() + " " + iterList(i.Iters)
	default:
		return i.Op.String()
	}
}

func labelList(ls []label.Label) string {
	parts := make([]string, len(ls))
	for k, l := range ls {
		parts[k] = l.String()
	}
	return "<" + strings.Join(parts, " ") + ">"
}

func iterList(its []iterator.Iter) string {
	parts := make([]string, len(its))
	for k, it := range its {
		parts[k] = it.String()
	}
	return "<" + strings.Join(parts, " ") + ">"
}

// Strings renders every instruction of s.
func (s Seq) Strings() []string {
	out := make([]string, 0, s.Len())
	s.Each(func(i *Instr) bool {
		out = append(out, i.String())
		return true
	})
	return out
}
