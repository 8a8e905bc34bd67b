package series

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/symbol"
)

// Context pairs a keylist and a varlist of equal length, representing
// an object!, frame!, module!, error!, or port! (spec.md §3
// "Context"). Element i≥1 of the keylist holds the interned symbol.ID
// for the corresponding varlist[i] value; index 0 is the archetype
// pair: varlist[0] is the "rootvar", keylist[0] is the "rootkey" (a
// tombstone holding symbol ID 0; nothing in rebcore overwrites it).
type Context struct {
	Keylist Array
	Varlist Array
}

// symbolCell packs a symbol.ID into a cell's First.Raw slot; keylists
// never hold node-backed cells, only bare IDs (spec.md §4.6: "keylists
// are straight symbol lists").
func symbolCell(id symbol.ID) cell.Cell {
	return cell.Cell{Header: cell.Header{Kind: cell.KindWord}, First: cell.Slot{Raw: uint64(id)}}
}

func symbolOf(c cell.Cell) symbol.ID { return symbol.ID(c.First.Raw) }

// NewContext allocates an empty context of the given kind (one of
// KindObject, KindFrame, KindModule, KindError, KindPort) with its
// rootvar/rootkey archetype pair already in place.
func NewContext(a *arena.Arena, kind cell.Kind) *Context {
	kl := New(a, arena.FlavorKeylist)
	vl := New(a, arena.FlavorVarlist)

	kl.Append(symbolCell(0)) // rootkey tombstone
	vl.Append(cell.Series(kind, vl.Ref))

	vl.stub().HasLink = true
	vl.stub().Link = kl.Ref

	return &Context{Keylist: kl, Varlist: vl}
}

// Kind reports the context's archetype kind.
func (c *Context) Kind() cell.Kind { return c.Varlist.At(0).Kind() }

// Len reports the number of (key, value) pairs, excluding the
// archetype slot.
func (c *Context) Len() int { return c.Varlist.Len() - 1 }

// Find returns the 1-based varlist index of sym, or 0 if absent.
func (c *Context) Find(sym symbol.ID) int {
	n := c.Keylist.Len()
	for i := 1; i < n; i++ {
		if symbolOf(c.Keylist.At(i)) == sym {
			return i
		}
	}
	return 0
}

// Get reads the value bound to sym.
func (c *Context) Get(sym symbol.ID) (cell.Cell, bool) {
	i := c.Find(sym)
	if i == 0 {
		return cell.Cell{}, false
	}
	return c.Varlist.At(i), true
}

// Set overwrites the value bound to sym; sym must already be present.
func (c *Context) Set(sym symbol.ID, v cell.Cell) bool {
	i := c.Find(sym)
	if i == 0 {
		return false
	}
	c.Varlist.Set(i, v)
	return true
}

// Expand binds a new symbol, forking the keylist first if it is
// shared with another context (spec.md §9 "Shared keylists with
// copy-on-write"). Returns the new slot's 1-based index.
func (c *Context) Expand(a *arena.Arena, sym symbol.ID, v cell.Cell) int {
	if c.Keylist.stub().Shared {
		c.forkKeylist(a)
	}
	c.Keylist.Append(symbolCell(sym))
	c.Varlist.Append(v)
	return c.Varlist.Len() - 1
}

// forkKeylist copies this context's keylist into a fresh stub,
// recording the Ancestor lineage, and repoints the varlist's link.
func (c *Context) forkKeylist(a *arena.Arena) {
	old := c.Keylist
	fresh := FromSlice(a, arena.FlavorKeylist, old.Slice(0, old.Len()))
	fresh.stub().Ancestor = old.Ref
	c.Keylist = fresh
	c.Varlist.stub().Link = fresh.Ref
}

// MarkShared flags the keylist as shared-by-reference so a future
// Expand on any sharer forks instead of mutating in place.
func (c *Context) MarkShared() { c.Keylist.stub().Shared = true }

// Archetype returns a fresh cell referencing this context's varlist,
// typed to its kind.
func (c *Context) Archetype() cell.Cell {
	return cell.Series(c.Kind(), c.Varlist.Ref)
}
