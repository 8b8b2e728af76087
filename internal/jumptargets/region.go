// Package jumptargets tracks the control-flow regions enclosing the statement
// being compiled and resolves break, continue, return and goto against them.
package jumptargets

import (
	"tfemit/internal/iterator"
	"tfemit/internal/label"
)

// RegionKind enumerates region shapes.
type RegionKind uint8

const (
	RegionFunction RegionKind = iota
	RegionLoop
	RegionSwitch
	RegionTryFinally
	RegionFinally
	RegionUsing
)

func (k RegionKind) String() string {
	switch k {
	case RegionFunction:
		return "function"
	case RegionLoop:
		return "loop"
	case RegionSwitch:
		return "switch"
	case RegionTryFinally:
		return "try"
	case RegionFinally:
		return "finally"
	case RegionUsing:
		return "using"
	default:
		return "unknown"
	}
}

// Region is one entry of the region stack.
type Region struct {
	Kind RegionKind
	// Break is the loop exit or the end of a switch.
	Break label.Label
	// Continue is the loop re-test label.
	Continue label.Label
	// Iter is set for foreach loops.
	Iter *iterator.Iter
	// FinallyStart is the entry of the finally body of a try or using.
	FinallyStart label.Label
	// Labels are the named labels defined directly in this region.
	Labels map[string]struct{}
}

func (r *Region) defines(name string) bool {
	_, ok := r.Labels[name]
	return ok
}

func labelSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
