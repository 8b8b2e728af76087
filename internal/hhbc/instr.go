// Package hhbc defines the flat, label-addressed instruction set produced by
// the emitter and the sequence container the emitter builds it with.
package hhbc

import (
	"tfemit/internal/iterator"
	"tfemit/internal/label"
	"tfemit/internal/local"
	"tfemit/internal/source"
)

// Opcode enumerates instruction kinds.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Pseudo instructions: never executed, consumed by the assembler.
	OpLabel
	OpSrcLoc
	OpTryCatchBegin
	OpTryCatchMiddle
	OpTryCatchEnd

	// Literals and stack shuffling.
	OpNull
	OpTrue
	OpFalse
	OpInt
	OpString
	OpPopC
	OpDup

	// Locals.
	OpCGetL
	OpSetL
	OpUnsetL
	OpIsSetL

	// Control flow.
	OpJmp
	OpJmpZ
	OpJmpNZ
	OpSwitch
	OpRetC
	OpRetM
	OpThrow
	OpFatal

	// Iterators.
	OpIterInit
	OpIterNext
	OpIterFree
	OpIterBreak

	// Special flow markers. They only live between the statement compiler
	// and the try/finally rewriter and never reach the assembler.
	OpBreak
	OpContinue
	OpGoto

	// Type verification.
	OpVerifyRetTypeC
	OpVerifyRetTypeTS
	OpVerifyOutType
	OpIsTypeC
	OpTypeStructLit
	OpCombineAndResolveTypeStruct

	// Operations and calls.
	OpEq
	OpFCallFunc
	OpPrint
)

var opNames = [...]string{
	OpNop:                         "Nop",
	OpLabel:                       "Label",
	OpSrcLoc:                      ".srcloc",
	OpTryCatchBegin:               "TryCatchBegin",
	OpTryCatchMiddle:              "TryCatchMiddle",
	OpTryCatchEnd:                 "TryCatchEnd",
	OpNull:                        "Null",
	OpTrue:                        "True",
	OpFalse:                       "False",
	OpInt:                         "Int",
	OpString:                      "String",
	OpPopC:                        "PopC",
	OpDup:                         "Dup",
	OpCGetL:                       "CGetL",
	OpSetL:                        "SetL",
	OpUnsetL:                      "UnsetL",
	OpIsSetL:                      "IsSetL",
	OpJmp:                         "Jmp",
	OpJmpZ:                        "JmpZ",
	OpJmpNZ:                       "JmpNZ",
	OpSwitch:                      "Switch",
	OpRetC:                        "RetC",
	OpRetM:                        "RetM",
	OpThrow:                       "Throw",
	OpFatal:                       "Fatal",
	OpIterInit:                    "IterInit",
	OpIterNext:                    "IterNext",
	OpIterFree:                    "IterFree",
	OpIterBreak:                   "IterBreak",
	OpBreak:                       "Break",
	OpContinue:                    "Continue",
	OpGoto:                        "Goto",
	OpVerifyRetTypeC:              "VerifyRetTypeC",
	OpVerifyRetTypeTS:             "VerifyRetTypeTS",
	OpVerifyOutType:               "VerifyOutType",
	OpIsTypeC:                     "IsTypeC",
	OpTypeStructLit:               "TypeStruct",
	OpCombineAndResolveTypeStruct: "CombineAndResolveTypeStruct",
	OpEq:                          "Eq",
	OpFCallFunc:                   "FCallFunc",
	OpPrint:                       "Print",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "Unknown"
}

// IsTypeOp is the operand of IsTypeC.
type IsTypeOp uint8

const (
	IsTypeNull IsTypeOp = iota
	IsTypeBool
	IsTypeInt
	IsTypeStr
)

func (op IsTypeOp) String() string {
	switch op {
	case IsTypeNull:
		return "Null"
	case IsTypeBool:
		return "Bool"
	case IsTypeInt:
		return "Int"
	case IsTypeStr:
		return "Str"
	}
	return "Unknown"
}

// FatalOp selects how a Fatal instruction reports.
type FatalOp uint8

const (
	FatalRuntime FatalOp = iota
	FatalParse
	FatalRuntimeOmitFrame
)

func (op FatalOp) String() string {
	switch op {
	case FatalRuntime:
		return "Runtime"
	case FatalParse:
		return "Parse"
	case FatalRuntimeOmitFrame:
		return "RuntimeOmitFrame"
	}
	return "Unknown"
}

// Instr is one instruction. Only the operand fields relevant to Op are set.
type Instr struct {
	Op Opcode

	Int    int64
	Str    string
	Label  label.Label
	Labels []label.Label
	Local  local.Local
	Iter   iterator.Iter
	Iters  []iterator.Iter
	Count  int
	IsType IsTypeOp
	Fatal  FatalOp
	Pos    source.Pos
}

// IsJump reports whether the instruction transfers control to Label/Labels.
func (i *Instr) IsJump() bool {
	switch i.Op {
	case OpJmp, OpJmpZ, OpJmpNZ, OpSwitch, OpIterBreak, OpIterInit, OpIterNext:
		return true
	}
	return false
}

// IsSpecialFlow reports whether the instruction is a Break/Continue/Goto marker.
func (i *Instr) IsSpecialFlow() bool {
	switch i.Op {
	case OpBreak, OpContinue, OpGoto:
		return true
	}
	return false
}

// IsReturn reports whether the instruction leaves the function normally.
func (i *Instr) IsReturn() bool {
	return i.Op == OpRetC || i.Op == OpRetM
}
