// Package local allocates the named and hidden locals of one function.
package local

import (
	"fmt"

	"fortio.org/safecast"
)

// Kind distinguishes source variables from compiler temporaries.
type Kind uint8

const (
	// KindNamed is a source variable ($x).
	KindNamed Kind = iota
	// KindUnnamed is a compiler temporary (_N).
	KindUnnamed
)

// Local is a function-scoped variable slot.
type Local struct {
	Kind Kind
	ID   uint32
	Name string
}

// Named refers to the source variable called name.
func Named(name string) Local {
	return Local{Kind: KindNamed, Name: name}
}

func (l Local) String() string {
	if l.Kind == KindNamed {
		return "$" + l.Name
	}
	return fmt.Sprintf("_%d", l.ID)
}

// Gen allocates unnamed locals and owns the two scratch slots used by
// try/finally lowering: the exit-id slot and the return-value slot.
type Gen struct {
	next   uint32
	exitID *Local
	retval *Local
}

// NewGen creates an empty local generator.
func NewGen() *Gen {
	return &Gen{}
}

// NextUnnamed allocates a fresh temporary.
func (g *Gen) NextUnnamed() Local {
	l := Local{Kind: KindUnnamed, ID: g.next}
	g.next++
	return l
}

// ExitID returns the slot holding the pending exit id while a finally runs.
// Allocated on first use and reused for the rest of the function.
func (g *Gen) ExitID() Local {
	if g.exitID == nil {
		l := g.NextUnnamed()
		g.exitID = &l
	}
	return *g.exitID
}

// RetVal returns the slot holding the value being returned across a finally.
func (g *Gen) RetVal() Local {
	if g.retval == nil {
		l := g.NextUnnamed()
		g.retval = &l
	}
	return *g.retval
}

// Count returns the number of unnamed locals allocated so far.
func (g *Gen) Count() int {
	n, err := safecast.Conv[int](g.next)
	if err != nil {
		panic(fmt.Errorf("local count overflow: %w", err))
	}
	return n
}
