package arena

import "rebcore/internal/cell"

// Ownership describes who is responsible for freeing a Stub, per
// spec.md §3 "Ownership".
type Ownership uint8

const (
	Unmanaged Ownership = iota // owner must call FreeUnmanaged explicitly
	Managed                    // the garbage collector owns it
	Free                       // in the freelist; not a live node
)

// Stub is one node in the arena: a dynamic cell sequence plus the
// link/misc/info bookkeeping slots spec.md §3 attaches to every array
// header (a shared "bonus" slot such as a keylist back-pointer, plus a
// single info slot).
type Stub struct {
	Flavor    Flavor
	Ownership Ownership
	Marked    bool // GC mark bit; zero outside a collection cycle

	Cells []cell.Cell

	HasLink bool
	Link    cell.NodeRef // e.g. varlist's back-pointer to its keylist
	HasMisc bool
	Misc    cell.NodeRef // e.g. a details node's dispatcher phase link
	Info    int64        // flavor-specific scalar (e.g. pairlist arity)

	// Ancestor is set when this Stub is a keylist that was forked by
	// copy-on-write expansion (spec.md §9 "Shared keylists"); it lets
	// derived operations still locate the lineage.
	Ancestor cell.NodeRef
	Shared   bool
}

// Len reports the live cell count.
func (s *Stub) Len() int { return len(s.Cells) }

// Append grows the stub's cell sequence.
func (s *Stub) Append(c cell.Cell) {
	s.Cells = append(s.Cells, c)
}
