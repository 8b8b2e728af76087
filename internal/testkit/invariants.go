// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"tfemit/internal/asm"
	"tfemit/internal/hhbc"
	"tfemit/internal/label"
)

// CheckNoExitFlow verifies that seq holds no instruction leaving the
// protected region on its own: no RetC/RetM and no Break/Continue/Goto marker.
func CheckNoExitFlow(seq hhbc.Seq) error {
	var bad []string
	seq.Each(func(i *hhbc.Instr) bool {
		if i.IsReturn() || i.IsSpecialFlow() {
			bad = append(bad, i.String())
		}
		return true
	})
	if len(bad) > 0 {
		return fmt.Errorf("exit flow left in sequence: %s", strings.Join(bad, ", "))
	}
	return nil
}

// CheckLabels verifies that every label of seq is defined exactly once and
// every jump targets a defined label.
func CheckLabels(seq hhbc.Seq) error {
	defined := make(map[label.Label]int)
	var targets []label.Label
	seq.Each(func(i *hhbc.Instr) bool {
		switch {
		case i.Op == hhbc.OpLabel:
			defined[i.Label]++
		case i.Op == hhbc.OpSwitch:
			targets = append(targets, i.Labels...)
		case i.IsJump():
			targets = append(targets, i.Label)
		}
		return true
	})
	for l, n := range defined {
		if n > 1 {
			return fmt.Errorf("label %s defined %d times", l, n)
		}
	}
	for _, l := range targets {
		if defined[l] == 0 {
			return fmt.Errorf("jump to undefined label %s", l)
		}
	}
	return nil
}

// CheckAssembled verifies an assembled function: jump targets are in range,
// handlers are well nested and no flow marker survived into the code.
func CheckAssembled(f *asm.Function) error {
	if f == nil {
		return fmt.Errorf("nil function")
	}
	n, err := safecast.Conv[uint32](len(f.Code))
	if err != nil {
		return fmt.Errorf("code length overflow: %w", err)
	}
	for off, in := range f.Code {
		for _, tgt := range in.Targets {
			if tgt > n {
				return fmt.Errorf("%s: instruction %d jumps to %d past the end (%d)", f.Name, off, tgt, n)
			}
		}
		for _, marker := range []string{"Break ", "Continue ", "Goto "} {
			if strings.HasPrefix(in.Text, marker) {
				return fmt.Errorf("%s: marker %q at %d", f.Name, in.Text, off)
			}
		}
	}
	for _, h := range f.Handlers {
		if h.Start > h.Catch || h.Catch > h.End || h.End > n {
			return fmt.Errorf("%s: malformed handler %+v", f.Name, h)
		}
	}
	for i, a := range f.Handlers {
		for _, b := range f.Handlers[i+1:] {
			disjoint := a.End <= b.Start || b.End <= a.Start
			nested := (b.Start <= a.Start && a.End <= b.End) || (a.Start <= b.Start && b.End <= a.End)
			if !disjoint && !nested {
				return fmt.Errorf("%s: overlapping handlers %+v and %+v", f.Name, a, b)
			}
		}
	}
	return nil
}
