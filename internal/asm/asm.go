// Package asm turns emitted instruction sequences into addressed code: it
// resolves labels to offsets, builds the exception handler table and checks
// that nothing meant for earlier passes survived.
package asm

import (
	"fmt"

	"fortio.org/safecast"

	"tfemit/internal/diag"
	"tfemit/internal/emit"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
)

// Instr is one addressed instruction.
type Instr struct {
	Text    string   `msgpack:"text"`
	Targets []uint32 `msgpack:"targets,omitempty"`
	Line    uint32   `msgpack:"line,omitempty"`
}

// Handler covers [Start, Catch) with the handler starting at Catch and
// ending at End.
type Handler struct {
	Start uint32 `msgpack:"start"`
	Catch uint32 `msgpack:"catch"`
	End   uint32 `msgpack:"end"`
}

// Function is an assembled function.
type Function struct {
	Name      string            `msgpack:"name"`
	Params    []string          `msgpack:"params"`
	NumLocals int               `msgpack:"num_locals"`
	NumIters  int               `msgpack:"num_iters"`
	Code      []Instr           `msgpack:"code"`
	Labels    map[string]uint32 `msgpack:"labels"`
	Handlers  []Handler         `msgpack:"handlers,omitempty"`
	Fatal     string            `msgpack:"fatal,omitempty"`
	// Listing is the body in textual assembly syntax, labels and try
	// regions included.
	Listing []string `msgpack:"listing"`
}

// Error reports code the assembler cannot accept.
type Error struct {
	Func string
	Code diag.Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("asm: %s: %s", e.Func, e.Msg)
}

func offset(n int) uint32 {
	off, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("asm: code offset overflow: %w", err))
	}
	return off
}

// Assemble lays out f.
func Assemble(f *emit.Func) (*Function, error) {
	out := &Function{
		Name:      f.Name,
		Params:    f.Params,
		NumLocals: f.NumLocals,
		NumIters:  f.NumIters,
		Labels:    make(map[string]uint32),
	}
	if f.Fatal != nil {
		out.Fatal = f.Fatal.Message
	}
	fail := func(code diag.Code, format string, args ...any) error {
		return &Error{Func: f.Name, Code: code, Msg: fmt.Sprintf(format, args...)}
	}

	offsets := make(map[label.Label]uint32)
	var (
		pending []hhbc.Instr // real instructions, parallel to out.Code
		open    []Handler
		line    uint32
		err     error
	)
	f.Body.Each(func(i *hhbc.Instr) bool {
		here := offset(len(out.Code))
		switch i.Op {
		case hhbc.OpLabel:
			if _, dup := offsets[i.Label]; dup {
				err = fail(diag.AsmInternalError, "label %s defined twice", i.Label)
				return false
			}
			offsets[i.Label] = here
			out.Labels[i.Label.String()] = here
		case hhbc.OpSrcLoc:
			line = i.Pos.Line
		case hhbc.OpTryCatchBegin:
			open = append(open, Handler{Start: here})
		case hhbc.OpTryCatchMiddle:
			if len(open) == 0 {
				err = fail(diag.AsmInternalError, "TryCatchMiddle without TryCatchBegin")
				return false
			}
			open[len(open)-1].Catch = here
		case hhbc.OpTryCatchEnd:
			if len(open) == 0 {
				err = fail(diag.AsmInternalError, "TryCatchEnd without TryCatchBegin")
				return false
			}
			h := open[len(open)-1]
			h.End = here
			open = open[:len(open)-1]
			out.Handlers = append(out.Handlers, h)
		case hhbc.OpBreak, hhbc.OpContinue, hhbc.OpGoto:
			err = fail(diag.AsmInternalError, "%s marker reached the assembler", i.Op)
			return false
		default:
			out.Code = append(out.Code, Instr{Text: i.String(), Line: line})
			pending = append(pending, *i)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(open) != 0 {
		return nil, fail(diag.AsmInternalError, "unterminated try region")
	}

	resolve := func(l label.Label) (uint32, error) {
		off, ok := offsets[l]
		if !ok {
			return 0, fail(diag.AsmUndefinedLabel, "jump to undefined label %s", l)
		}
		return off, nil
	}
	for k := range pending {
		i := &pending[k]
		if !i.IsJump() {
			continue
		}
		var targets []uint32
		if i.Op == hhbc.OpSwitch {
			for _, l := range i.Labels {
				off, err := resolve(l)
				if err != nil {
					return nil, err
				}
				targets = append(targets, off)
			}
		} else {
			off, err := resolve(i.Label)
			if err != nil {
				return nil, err
			}
			targets = append(targets, off)
		}
		out.Code[k].Targets = targets
	}
	out.Listing = renderListing(f.Body)
	return out, nil
}
