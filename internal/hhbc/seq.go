package hhbc

// Seq is an immutable tree of instructions. Leaves hold instruction slices,
// inner nodes hold child sequences; the flattened order is a left-to-right
// walk. Combinators never modify their receivers.
type Seq struct {
	list  []Instr
	parts []Seq
}

// Empty returns the empty sequence.
func Empty() Seq {
	return Seq{}
}

// One wraps a single instruction.
func One(i Instr) Seq {
	return Seq{list: []Instr{i}}
}

// List wraps instructions in order.
func List(is ...Instr) Seq {
	if len(is) == 0 {
		return Seq{}
	}
	return Seq{list: is}
}

// Gather concatenates sequences, skipping empty ones.
func Gather(parts ...Seq) Seq {
	kept := make([]Seq, 0, len(parts))
	for _, p := range parts {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Seq{}
	case 1:
		return kept[0]
	}
	return Seq{parts: kept}
}

// IsEmpty reports whether the sequence holds no instruction.
func (s Seq) IsEmpty() bool {
	if len(s.list) != 0 {
		return false
	}
	for i := range s.parts {
		if !s.parts[i].IsEmpty() {
			return false
		}
	}
	return true
}

// Len returns the number of instructions.
func (s Seq) Len() int {
	n := len(s.list)
	for i := range s.parts {
		n += s.parts[i].Len()
	}
	return n
}

// Each visits instructions in order until visit returns false. The pointer
// refers into the sequence and must not be used to mutate it.
func (s Seq) Each(visit func(*Instr) bool) bool {
	for i := range s.list {
		if !visit(&s.list[i]) {
			return false
		}
	}
	for i := range s.parts {
		if !s.parts[i].Each(visit) {
			return false
		}
	}
	return true
}

// FoldLeft threads acc through every instruction in order.
func FoldLeft[A any](s Seq, acc A, f func(A, *Instr) A) A {
	s.Each(func(i *Instr) bool {
		acc = f(acc, i)
		return true
	})
	return acc
}

// FilterMap builds a new sequence from the instructions for which f returns
// true, replaced by the returned instruction.
func (s Seq) FilterMap(f func(*Instr) (Instr, bool)) Seq {
	out := make([]Instr, 0, s.Len())
	s.Each(func(i *Instr) bool {
		if ni, ok := f(i); ok {
			out = append(out, ni)
		}
		return true
	})
	return List(out...)
}

// Map rewrites every instruction.
func (s Seq) Map(f func(Instr) Instr) Seq {
	return s.FilterMap(func(i *Instr) (Instr, bool) {
		return f(*i), true
	})
}

// Instrs flattens the sequence into a fresh slice.
func (s Seq) Instrs() []Instr {
	out := make([]Instr, 0, s.Len())
	s.Each(func(i *Instr) bool {
		out = append(out, *i)
		return true
	})
	return out
}

// Ops lists opcodes in order; handy for shape assertions.
func (s Seq) Ops() []Opcode {
	out := make([]Opcode, 0, s.Len())
	s.Each(func(i *Instr) bool {
		out = append(out, i.Op)
		return true
	})
	return out
}

// Contains reports whether any instruction satisfies pred.
func (s Seq) Contains(pred func(*Instr) bool) bool {
	return !s.Each(func(i *Instr) bool { return !pred(i) })
}
