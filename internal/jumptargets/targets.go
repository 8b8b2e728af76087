package jumptargets

import (
	"slices"

	"tfemit/internal/iterator"
	"tfemit/internal/label"
)

// ResolvedKind says how a break or continue reaches its target.
type ResolvedKind uint8

const (
	// NotFound means no loop or switch at the requested level.
	NotFound ResolvedKind = iota
	// Regular is a direct jump.
	Regular
	// ThroughFinally means the jump first runs an enclosing finally.
	ThroughFinally
)

// ResolvedJumpTarget is the answer to TargetForLevel.
type ResolvedJumpTarget struct {
	Kind   ResolvedKind
	Target label.Label
	// Finally is the start of the innermost finally crossed.
	Finally label.Label
	// Iters must be released before jumping. For ThroughFinally they are
	// the ones between the jump and the finally.
	Iters []iterator.Iter
	// AdjustedLevel is the level left to resolve once the finally runs.
	AdjustedLevel int
}

// GotoKind says how a goto reaches its label.
type GotoKind uint8

const (
	GotoLabel GotoKind = iota
	GotoFinally
	GotoFromFinally
	GotoInvalid
)

// ResolvedGotoTarget is the answer to FindGotoTarget.
type ResolvedGotoTarget struct {
	Kind         GotoKind
	FinallyStart label.Label
	Iters        []iterator.Iter
}

// Targets is the region stack, innermost region last.
type Targets struct {
	regions []Region
}

// Depth returns the number of open regions.
func (t *Targets) Depth() int {
	return len(t.regions)
}

// Innermost returns the innermost open region, or nil.
func (t *Targets) Innermost() *Region {
	if len(t.regions) == 0 {
		return nil
	}
	return &t.regions[len(t.regions)-1]
}

type crossing struct {
	start label.Label
	iters []iterator.Iter
	level int
}

// TargetForLevel resolves break (isBreak) or continue with the given level.
func (t *Targets) TargetForLevel(isBreak bool, level int) ResolvedJumpTarget {
	var iters []iterator.Iter
	var crossed *crossing
	for i := len(t.regions) - 1; i >= 0; i-- {
		r := &t.regions[i]
		switch r.Kind {
		case RegionFunction, RegionFinally:
			return ResolvedJumpTarget{Kind: NotFound}
		case RegionTryFinally, RegionUsing:
			if crossed == nil {
				crossed = &crossing{start: r.FinallyStart, iters: slices.Clone(iters), level: level}
			}
		case RegionLoop, RegionSwitch:
			if level == 1 {
				target := r.Break
				if r.Kind == RegionLoop && !isBreak {
					target = r.Continue
				}
				// leaving a foreach frees its iterator, re-entering keeps it
				if isBreak && r.Iter != nil {
					iters = append(iters, *r.Iter)
				}
				if crossed != nil {
					return ResolvedJumpTarget{
						Kind:          ThroughFinally,
						Target:        target,
						Finally:       crossed.start,
						Iters:         crossed.iters,
						AdjustedLevel: crossed.level,
					}
				}
				return ResolvedJumpTarget{Kind: Regular, Target: target, Iters: iters}
			}
			if r.Iter != nil {
				iters = append(iters, *r.Iter)
			}
			level--
		}
	}
	return ResolvedJumpTarget{Kind: NotFound}
}

// FindGotoTarget resolves a goto to the named label.
func (t *Targets) FindGotoTarget(name string) ResolvedGotoTarget {
	var iters []iterator.Iter
	var crossed *crossing
	for i := len(t.regions) - 1; i >= 0; i-- {
		r := &t.regions[i]
		if r.defines(name) {
			if crossed != nil {
				return ResolvedGotoTarget{Kind: GotoFinally, FinallyStart: crossed.start, Iters: crossed.iters}
			}
			return ResolvedGotoTarget{Kind: GotoLabel, Iters: iters}
		}
		switch r.Kind {
		case RegionLoop:
			if r.Iter != nil {
				iters = append(iters, *r.Iter)
			}
		case RegionTryFinally, RegionUsing:
			if crossed == nil {
				crossed = &crossing{start: r.FinallyStart, iters: slices.Clone(iters)}
			}
		case RegionFinally:
			return ResolvedGotoTarget{Kind: GotoFromFinally}
		case RegionFunction:
			return ResolvedGotoTarget{Kind: GotoInvalid}
		}
	}
	return ResolvedGotoTarget{Kind: GotoInvalid}
}

// ClosestEnclosingFinally returns the start of the innermost finally that a
// return has to run, with the iterators to release on the way there.
func (t *Targets) ClosestEnclosingFinally() (label.Label, []iterator.Iter, bool) {
	var iters []iterator.Iter
	for i := len(t.regions) - 1; i >= 0; i-- {
		r := &t.regions[i]
		switch r.Kind {
		case RegionTryFinally, RegionUsing:
			return r.FinallyStart, iters, true
		case RegionLoop:
			if r.Iter != nil {
				iters = append(iters, *r.Iter)
			}
		}
	}
	return label.Label{}, nil, false
}

// Iterators returns every active iterator, innermost first.
func (t *Targets) Iterators() []iterator.Iter {
	var iters []iterator.Iter
	for i := len(t.regions) - 1; i >= 0; i-- {
		if it := t.regions[i].Iter; it != nil {
			iters = append(iters, *it)
		}
	}
	return iters
}
