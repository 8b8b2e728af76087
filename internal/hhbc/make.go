package hhbc

import (
	"slices"

	"tfemit/internal/iterator"
	"tfemit/internal/label"
	"tfemit/internal/local"
	"tfemit/internal/source"
)

func MakeLabel(l label.Label) Instr       { return Instr{Op: OpLabel, Label: l} }
func MakeSrcLoc(p source.Pos) Instr       { return Instr{Op: OpSrcLoc, Pos: p} }
func MakeNop() Instr                      { return Instr{Op: OpNop} }
func MakeNull() Instr                     { return Instr{Op: OpNull} }
func MakeTrue() Instr                     { return Instr{Op: OpTrue} }
func MakeFalse() Instr                    { return Instr{Op: OpFalse} }
func MakeInt(n int64) Instr               { return Instr{Op: OpInt, Int: n} }
func MakeString(s string) Instr           { return Instr{Op: OpString, Str: s} }
func MakePopC() Instr                     { return Instr{Op: OpPopC} }
func MakeDup() Instr                      { return Instr{Op: OpDup} }
func MakeCGetL(l local.Local) Instr       { return Instr{Op: OpCGetL, Local: l} }
func MakeSetL(l local.Local) Instr        { return Instr{Op: OpSetL, Local: l} }
func MakeUnsetL(l local.Local) Instr      { return Instr{Op: OpUnsetL, Local: l} }
func MakeIsSetL(l local.Local) Instr      { return Instr{Op: OpIsSetL, Local: l} }
func MakeJmp(l label.Label) Instr         { return Instr{Op: OpJmp, Label: l} }
func MakeJmpZ(l label.Label) Instr        { return Instr{Op: OpJmpZ, Label: l} }
func MakeJmpNZ(l label.Label) Instr       { return Instr{Op: OpJmpNZ, Label: l} }
func MakeRetC() Instr                     { return Instr{Op: OpRetC} }
func MakeRetM(n int) Instr                { return Instr{Op: OpRetM, Count: n} }
func MakeThrow() Instr                    { return Instr{Op: OpThrow} }
func MakeFatal(op FatalOp) Instr          { return Instr{Op: OpFatal, Fatal: op} }
func MakeIterFree(it iterator.Iter) Instr { return Instr{Op: OpIterFree, Iter: it} }
func MakeBreak(level int) Instr           { return Instr{Op: OpBreak, Count: level} }
func MakeContinue(level int) Instr        { return Instr{Op: OpContinue, Count: level} }
func MakeGoto(name string) Instr          { return Instr{Op: OpGoto, Str: name} }
func MakeVerifyRetTypeC() Instr           { return Instr{Op: OpVerifyRetTypeC} }
func MakeVerifyRetTypeTS() Instr          { return Instr{Op: OpVerifyRetTypeTS} }
func MakeVerifyOutType(param int) Instr   { return Instr{Op: OpVerifyOutType, Count: param} }
func MakeIsTypeC(op IsTypeOp) Instr       { return Instr{Op: OpIsTypeC, IsType: op} }
func MakeTypeStructLit(ts string) Instr   { return Instr{Op: OpTypeStructLit, Str: ts} }
func MakeEq() Instr                       { return Instr{Op: OpEq} }
func MakePrint() Instr                    { return Instr{Op: OpPrint} }
func MakeTryCatchBegin() Instr            { return Instr{Op: OpTryCatchBegin} }
func MakeTryCatchMiddle() Instr           { return Instr{Op: OpTryCatchMiddle} }
func MakeTryCatchEnd() Instr              { return Instr{Op: OpTryCatchEnd} }
func MakeFCallFunc(name string, n int) Instr {
	return Instr{Op: OpFCallFunc, Str: name, Count: n}
}

func MakeCombineAndResolveTypeStruct(n int) Instr {
	return Instr{Op: OpCombineAndResolveTypeStruct, Count: n}
}

// MakeSwitch builds a dense, zero-based dispatch over labels.
func MakeSwitch(labels []label.Label) Instr {
	return Instr{Op: OpSwitch, Labels: slices.Clone(labels)}
}

// MakeIterInit starts iteration; jumps to done when the collection is empty.
func MakeIterInit(it iterator.Iter, done label.Label, value local.Local) Instr {
	return Instr{Op: OpIterInit, Iter: it, Label: done, Local: value}
}

// MakeIterNext advances; jumps back to head while elements remain.
func MakeIterNext(it iterator.Iter, head label.Label, value local.Local) Instr {
	return Instr{Op: OpIterNext, Iter: it, Label: head, Local: value}
}

// MakeIterBreak frees iters and jumps to l.
func MakeIterBreak(l label.Label, iters []iterator.Iter) Instr {
	return Instr{Op: OpIterBreak, Label: l, Iters: slices.Clone(iters)}
}
