package jumptargets

import (
	"tfemit/internal/iterator"
	"tfemit/internal/label"
)

// Gen owns the region stack of one function, its label table and the exit
// ids handed out to jumps routed through a finally.
type Gen struct {
	targets  Targets
	labels   map[string]bool
	ids      map[label.Label]int
	returnID int
	next     int
}

// NewGen starts a function whose label table is labels (name to in-using
// flag) and whose top-level statements define topLabels.
func NewGen(labels map[string]bool, topLabels []string) *Gen {
	if labels == nil {
		labels = map[string]bool{}
	}
	g := &Gen{
		labels:   labels,
		ids:      make(map[label.Label]int),
		returnID: -1,
	}
	g.push(Region{Kind: RegionFunction, Labels: labelSet(topLabels)})
	return g
}

// Targets exposes the current region stack.
func (g *Gen) Targets() *Targets {
	return &g.targets
}

// LabelsInFunction returns the label table: name to whether the label is
// defined inside a using block. Missing names are undefined labels.
func (g *Gen) LabelsInFunction() map[string]bool {
	return g.labels
}

// IDForLabel returns the exit id of a jump target, allocating on first use.
func (g *Gen) IDForLabel(l label.Label) int {
	if id, ok := g.ids[l]; ok {
		return id
	}
	id := g.next
	g.next++
	g.ids[l] = id
	return id
}

// IDForReturn returns the exit id shared by every return of the function.
func (g *Gen) IDForReturn() int {
	if g.returnID < 0 {
		g.returnID = g.next
		g.next++
	}
	return g.returnID
}

// Allocated returns how many exit ids exist so far.
func (g *Gen) Allocated() int {
	return g.next
}

func (g *Gen) push(r Region) {
	g.targets.regions = append(g.targets.regions, r)
}

// PushLoop opens a while or foreach loop; it is nil for while.
func (g *Gen) PushLoop(breakLabel, continueLabel label.Label, it *iterator.Iter, labels []string) {
	g.push(Region{Kind: RegionLoop, Break: breakLabel, Continue: continueLabel, Iter: it, Labels: labelSet(labels)})
}

// PushSwitch opens a switch ending at end.
func (g *Gen) PushSwitch(end label.Label, labels []string) {
	g.push(Region{Kind: RegionSwitch, Break: end, Labels: labelSet(labels)})
}

// PushTryFinally opens the protected body of a try whose finally starts at
// finallyStart.
func (g *Gen) PushTryFinally(finallyStart label.Label, labels []string) {
	g.push(Region{Kind: RegionTryFinally, FinallyStart: finallyStart, Labels: labelSet(labels)})
}

// PushFinally opens a finally body.
func (g *Gen) PushFinally(labels []string) {
	g.push(Region{Kind: RegionFinally, Labels: labelSet(labels)})
}

// PushUsing opens the body of a using block disposed at finallyStart.
func (g *Gen) PushUsing(finallyStart label.Label, labels []string) {
	g.push(Region{Kind: RegionUsing, FinallyStart: finallyStart, Labels: labelSet(labels)})
}

// Pop closes the innermost region. The function region is never popped.
func (g *Gen) Pop() {
	if len(g.targets.regions) <= 1 {
		panic("jumptargets: pop of the function region")
	}
	g.targets.regions = g.targets.regions[:len(g.targets.regions)-1]
}
