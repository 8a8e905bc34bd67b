// Package feed implements the forward-only cursor over a cell
// sequence that drives every executor (spec.md §4.1 "Feed").
package feed

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
)

// Source is anything a Feed can walk: series.Array satisfies this
// directly, and so does a materialized VariadicSource.
type Source interface {
	At(i int) cell.Cell
	Len() int
}

// Flag bits mirror spec.md §3's feed-level flags.
type Flag uint8

const (
	FlagNoLookahead Flag = 1 << iota
	FlagDeferringInfix
	FlagTookHold
)

// Feed is the cursor. It is not safe for concurrent use — spec.md §5
// guarantees a single logical thread of control walks any one feed.
type Feed struct {
	src Source
	pos int

	haveLookback bool
	lookback     cell.Cell

	haveGotten bool
	gotten     cell.NodeRef

	flags Flag

	// deferAt is the cursor position of the infix word FlagDeferringInfix
	// was set for, so a later afterLeft call can tell "this is the same
	// deferred word come back around to be resolved" from "a second,
	// genuinely distinct deferral before the first one resolved".
	deferAt int

	variadic *VariadicSource
}

// New wraps src starting at position 0.
func New(src Source) *Feed {
	return &Feed{src: src}
}

// NewVariadic wraps an inline, not-yet-materialized cell sequence
// (the embedding API's rebValue(...) call shape). The GC requires
// variadic sources be materialized into array form before any
// collection cycle (spec.md §4.1); call Materialize before a Feed
// participates in a trampoline run that might trigger one.
func NewVariadic(items []cell.Cell) *Feed {
	v := &VariadicSource{items: items}
	return &Feed{src: v, variadic: v}
}

// At returns the cell at the current position, or (End, false) if the
// feed is exhausted.
func (f *Feed) At() (cell.Cell, bool) {
	if f.IsEnd() {
		return cell.End(), false
	}
	return f.src.At(f.pos), true
}

func (f *Feed) IsEnd() bool { return f.pos >= f.src.Len() }

// PeekNext looks one cell beyond the current position without
// consuming it, for backward-quote lookahead (spec.md §4.3).
func (f *Feed) PeekNext() (cell.Cell, bool) {
	if f.pos+1 >= f.src.Len() {
		return cell.End(), false
	}
	return f.src.At(f.pos + 1), true
}

// Advance moves the cursor forward one cell, recording the cell that
// was current as the new Lookback, and invalidates the gotten cache
// (spec.md §4.1 invariant: "advancing clears gotten").
func (f *Feed) Advance() {
	if cur, ok := f.At(); ok {
		f.lookback = cur
		f.haveLookback = true
	}
	f.pos++
	f.InvalidateCache()
}

// Lookback returns the cell that was at the current position before
// the most recent Advance; it remains valid until the next Advance.
func (f *Feed) Lookback() (cell.Cell, bool) {
	return f.lookback, f.haveLookback
}

// CachedBinding returns the feed's memoized "gotten" lookup of the
// cell currently at the cursor, if one has been computed.
func (f *Feed) CachedBinding() (cell.NodeRef, bool) {
	return f.gotten, f.haveGotten
}

// SetCachedBinding records a binding lookup against the current
// position so repeated inspection of the same word doesn't re-resolve
// it.
func (f *Feed) SetCachedBinding(ref cell.NodeRef) {
	f.gotten = ref
	f.haveGotten = true
}

func (f *Feed) InvalidateCache() {
	f.haveGotten = false
	f.gotten = 0
}

func (f *Feed) HasFlag(flag Flag) bool { return f.flags&flag != 0 }
func (f *Feed) SetFlag(flag Flag)      { f.flags |= flag }
func (f *Feed) ClearFlag(flag Flag)    { f.flags &^= flag }

// DeferredAt reports the cursor position recorded by SetDeferredAt, if
// FlagDeferringInfix is currently set.
func (f *Feed) DeferredAt() (int, bool) {
	return f.deferAt, f.HasFlag(FlagDeferringInfix)
}

// SetDeferredAt records pos as the position of the infix word being
// deferred and sets FlagDeferringInfix.
func (f *Feed) SetDeferredAt(pos int) {
	f.deferAt = pos
	f.SetFlag(FlagDeferringInfix)
}

// ClearDeferred clears FlagDeferringInfix.
func (f *Feed) ClearDeferred() { f.ClearFlag(FlagDeferringInfix) }

// Pos exposes the raw cursor index, used by the parse engine to save
// and restore backtrack points over array-backed feeds.
func (f *Feed) Pos() int     { return f.pos }
func (f *Feed) SeekTo(i int) { f.pos = i; f.InvalidateCache() }

// IsVariadic reports whether this feed is backed by an
// not-yet-materialized inline source.
func (f *Feed) IsVariadic() bool { return f.variadic != nil }

// GCRootRef returns the arena handle of the feed's backing store, if
// it corresponds to exactly one managed stub (an array-backed or
// already-materialized variadic source); ok is false for a
// not-yet-materialized variadic feed. The GC does not call Materialize
// itself; it skips such a feed, so its cells are not rooted through it.
func (f *Feed) GCRootRef() (cell.NodeRef, bool) {
	r, ok := f.src.(interface{ GCRootRef() cell.NodeRef })
	if !ok {
		return 0, false
	}
	ref := r.GCRootRef()
	return ref, ref != 0
}

// Materialize copies a variadic feed's remaining cells into a real
// managed array and repoints the feed at it, satisfying the
// GC's pre-collection requirement. A no-op on array-backed feeds.
func (f *Feed) Materialize(a *arena.Arena) {
	if f.variadic == nil || f.variadic.materialized {
		return
	}
	f.variadic.materialize(a)
}

// VariadicSource is the lazily-materialized backing store for an
// inline (embedding-API) cell sequence.
type VariadicSource struct {
	items        []cell.Cell
	materialized bool
	arrayRef     cell.NodeRef
	arena        *arena.Arena
}

func (v *VariadicSource) At(i int) cell.Cell {
	if v.materialized {
		return v.arena.Get(v.arrayRef).Cells[i]
	}
	if i < 0 || i >= len(v.items) {
		return cell.End()
	}
	return v.items[i]
}

func (v *VariadicSource) Len() int {
	if v.materialized {
		return v.arena.Get(v.arrayRef).Len()
	}
	return len(v.items)
}

// GCRootRef satisfies Feed.GCRootRef's lookup; zero before
// materialization, meaning this source contributes no root yet.
func (v *VariadicSource) GCRootRef() cell.NodeRef {
	if !v.materialized {
		return 0
	}
	return v.arrayRef
}

func (v *VariadicSource) materialize(a *arena.Arena) {
	ref, stub := a.Alloc(arena.FlavorPlainList)
	stub.Cells = append(stub.Cells, v.items...)
	a.Manage(ref)
	v.arrayRef = ref
	v.arena = a
	v.materialized = true
}
