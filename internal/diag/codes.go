package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Ошибки I/O и загрузки юнита
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001
	IOBadUnit       Code = 1002
	IOUnknownStmt   Code = 1003
	IOBadHint       Code = 1004
	IOBadConfig     Code = 1005

	// Метки функции
	LblInfo      Code = 2000
	LblDuplicate Code = 2001

	// Ошибки эмиттера (goto / break / continue / return)
	EmitInfo                 Code = 3000
	EmitGotoUndefinedLabel   Code = 3001
	EmitGotoIntoUsing        Code = 3002
	EmitGotoIntoLoopOrSwitch Code = 3003
	EmitGotoFromFinally      Code = 3004
	EmitBreakContinueLevel   Code = 3005
	EmitFatal                Code = 3006

	// Ассемблер
	AsmInfo           Code = 4000
	AsmInternalError  Code = 4001
	AsmUndefinedLabel Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
	ObsCache   Code = 6002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		IOInfo:                   "Input information",
		IOLoadFileError:          "Cannot read unit file",
		IOBadUnit:                "Malformed unit file",
		IOUnknownStmt:            "Unknown statement kind",
		IOBadHint:                "Malformed type hint",
		IOBadConfig:              "Malformed configuration",
		LblInfo:                  "Label information",
		LblDuplicate:             "Label already defined",
		EmitInfo:                 "Emitter information",
		EmitGotoUndefinedLabel:   "Goto to undefined label",
		EmitGotoIntoUsing:        "Goto into or across using statement",
		EmitGotoIntoLoopOrSwitch: "Goto into loop or switch statement",
		EmitGotoFromFinally:      "Goto out of a finally block",
		EmitBreakContinueLevel:   "Break/continue level not found",
		EmitFatal:                "Fatal error",
		AsmInfo:                  "Assembler information",
		AsmInternalError:         "Assembler internal error",
		AsmUndefinedLabel:        "Jump to undefined label",
		ObsInfo:                  "Observability information",
		ObsTimings:               "Timings",
		ObsCache:                 "Cache",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LBL%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("ASM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
