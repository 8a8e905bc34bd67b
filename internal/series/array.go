// Package series implements the dynamic cell sequences spec.md §3
// describes: plain arrays (the backing store for block!/group!/...),
// and the paired keylist+varlist that make up a Context (object!,
// frame!, module!, error!, port!).
package series

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
)

// Array is a handle-plus-arena view over one Stub. It carries no
// state of its own beyond the pair (arena, ref); copying an Array
// value is cheap and intentional, mirroring how a Cell's
// FlagFirstIsNode payload just holds a NodeRef.
type Array struct {
	A   *arena.Arena
	Ref cell.NodeRef
}

// New allocates a fresh array of the given flavor, managed by the GC
// immediately (spec.md §3: "once managed, the GC becomes owner" — the
// stepper/action executor keep arrays unmanaged only for the brief
// window between allocation and being stored somewhere reachable; most
// call sites in rebcore manage eagerly and rely on the GC root set
// including in-flight level scratch cells).
func New(a *arena.Arena, flavor arena.Flavor) Array {
	ref, _ := a.Alloc(flavor)
	a.Manage(ref)
	return Array{A: a, Ref: ref}
}

// NewUnmanaged is New without handing ownership to the GC yet; the
// caller must either Manage it (via a.Manage) once reachable or free
// it with a.FreeUnmanaged.
func NewUnmanaged(a *arena.Arena, flavor arena.Flavor) Array {
	ref, _ := a.Alloc(flavor)
	return Array{A: a, Ref: ref}
}

func (s Array) stub() *arena.Stub { return s.A.Get(s.Ref) }

func (s Array) Flavor() arena.Flavor { return s.stub().Flavor }

// GCRootRef lets a feed.Feed backed directly by an Array report its
// arena handle to the garbage collector (see feed.Feed.GCRootRef).
func (s Array) GCRootRef() cell.NodeRef { return s.Ref }

func (s Array) Len() int { return s.stub().Len() }

func (s Array) At(i int) cell.Cell {
	st := s.stub()
	if i < 0 || i >= len(st.Cells) {
		return cell.End()
	}
	return st.Cells[i]
}

func (s Array) Set(i int, c cell.Cell) {
	s.stub().Cells[i] = c
}

func (s Array) Append(c cell.Cell) {
	s.stub().Append(c)
}

// Truncate drops the tail starting at i. (Parse's REMOVE uses Splice.)
func (s Array) Truncate(i int) {
	st := s.stub()
	st.Cells = st.Cells[:i]
}

// Splice removes count cells starting at pos and inserts ins in their
// place, implementing the parse engine's REMOVE/INSERT/CHANGE
// primitives (spec.md §4.7).
func (s Array) Splice(pos, count int, ins []cell.Cell) {
	st := s.stub()
	tail := append([]cell.Cell{}, st.Cells[pos+count:]...)
	st.Cells = append(st.Cells[:pos], ins...)
	st.Cells = append(st.Cells, tail...)
}

// Slice returns a copy of the cells in [from, to). Used by the parse
// engine's captures and KEEP, and by keylist forking.
func (s Array) Slice(from, to int) []cell.Cell {
	st := s.stub()
	if to > len(st.Cells) {
		to = len(st.Cells)
	}
	if from > to {
		from = to
	}
	out := make([]cell.Cell, to-from)
	copy(out, st.Cells[from:to])
	return out
}

// FromSlice allocates a new managed array seeded with cells.
func FromSlice(a *arena.Arena, flavor arena.Flavor, cells []cell.Cell) Array {
	s := New(a, flavor)
	st := s.stub()
	st.Cells = append(st.Cells, cells...)
	return s
}
