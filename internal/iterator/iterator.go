// Package iterator allocates loop iterator handles.
package iterator

import (
	"fmt"

	"fortio.org/safecast"
)

// Iter is an active loop iterator that has to be freed before control leaves
// its loop.
type Iter struct {
	ID uint32
}

func (it Iter) String() string {
	return fmt.Sprintf("%d", it.ID)
}

// Gen hands out iterator ids with stack discipline: nested loops get
// increasing ids, and an id becomes reusable once its loop is compiled.
type Gen struct {
	next uint32
	max  uint32
}

// NewGen creates an empty iterator generator.
func NewGen() *Gen {
	return &Gen{}
}

// Next allocates the iterator for a loop being entered.
func (g *Gen) Next() Iter {
	it := Iter{ID: g.next}
	g.next++
	if g.next > g.max {
		g.max = g.next
	}
	return it
}

// Free releases the most recently allocated iterator.
func (g *Gen) Free() {
	if g.next == 0 {
		panic("iterator: free without matching Next")
	}
	g.next--
}

// Count returns the number of iterator slots the function needs.
func (g *Gen) Count() int {
	n, err := safecast.Conv[int](g.max)
	if err != nil {
		panic(fmt.Errorf("iterator count overflow: %w", err))
	}
	return n
}
