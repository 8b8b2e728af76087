// Package label models jump targets of the flat instruction stream.
package label

import (
	"fmt"

	"fortio.org/safecast"
)

// Kind distinguishes anonymous labels from source-level goto targets.
type Kind uint8

const (
	// KindRegular is a compiler-generated label.
	KindRegular Kind = iota
	// KindNamed is a label written in the source (goto target).
	KindNamed
)

// Label is a symbolic address; the assembler maps it to an offset.
type Label struct {
	Kind Kind
	ID   uint32
	Name string
}

// Regular returns the anonymous label with the given id.
func Regular(id uint32) Label {
	return Label{Kind: KindRegular, ID: id}
}

// Named returns the source label called name.
func Named(name string) Label {
	return Label{Kind: KindNamed, Name: name}
}

// IsNamed reports whether the label comes from the source.
func (l Label) IsNamed() bool {
	return l.Kind == KindNamed
}

func (l Label) String() string {
	if l.Kind == KindNamed {
		return l.Name
	}
	return fmt.Sprintf("L%d", l.ID)
}

// Gen hands out fresh regular labels for one function.
type Gen struct {
	next uint32
}

// NewGen creates a label generator starting at L0.
func NewGen() *Gen {
	return &Gen{}
}

// NextRegular allocates a fresh anonymous label.
func (g *Gen) NextRegular() Label {
	l := Regular(g.next)
	g.next++
	return l
}

// Count returns how many labels were allocated so far.
func (g *Gen) Count() int {
	n, err := safecast.Conv[int](g.next)
	if err != nil {
		panic(fmt.Errorf("label count overflow: %w", err))
	}
	return n
}
