package gc

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/level"
	"rebcore/internal/symbol"
)

// marker holds the per-cycle mark-phase state. It is not reused across
// cycles; Collect builds a fresh one each time.
//
// work is the explicit, heap-allocated worklist spec.md §4.6 requires
// in place of recursion: marking a stub live only sets its bit and
// pushes its ref here, rather than immediately descending into its
// cells via the Go call stack. drain then pops until empty, so an
// arbitrarily deep nested-block or context chain is bounded by the
// slice's heap capacity instead of stack depth.
type marker struct {
	arena   *arena.Arena
	symbols *symbol.Table
	work    []cell.NodeRef
}

// markStub marks ref's stub live and, if this is the first time it's
// been seen this cycle, pushes it onto the worklist for drain to trace
// later. A zero ref, an already-managed-and-marked stub, or a freed
// handle are all safe no-ops (spec.md §4.6 "idempotent under repeated
// marking").
func (m *marker) markStub(ref cell.NodeRef) {
	if ref == 0 {
		return
	}
	s := m.arena.Get(ref)
	if s == nil || s.Marked {
		return
	}
	s.Marked = true
	m.work = append(m.work, ref)
}

// drain processes the worklist to a fixpoint: each popped stub's
// cells, link, and misc slot are marked, which may push further refs
// before this one is done, but never recurses through the Go stack to
// do it.
func (m *marker) drain() {
	for len(m.work) > 0 {
		ref := m.work[len(m.work)-1]
		m.work = m.work[:len(m.work)-1]

		s := m.arena.Get(ref)
		if s == nil {
			continue
		}

		// A keylist's cells are bare symbol.ID values packed into
		// First.Raw by series.symbolCell, not real word! cells (no
		// First.Node, no Extra binding) — passing them through
		// markCell would misread Raw as a Node handle. Nothing in a
		// keylist needs marking on its own; the symbols it names are
		// kept alive (or not) purely through the hitch-chain fixpoint
		// below.
		if s.Flavor != arena.FlavorKeylist {
			for _, c := range s.Cells {
				m.markCell(c)
			}
		}
		if s.HasLink {
			m.markStub(s.Link)
		}
		if s.HasMisc {
			m.markStub(s.Misc)
		}
	}
}

// markCell marks whatever ref(s) a single cell carries: its series
// payload (for series-backed kinds), its symbol and binding (for
// word-family and path/tuple/block-family kinds). KindAction cells are
// left untouched — their payload indexes Interp's Go-heap action
// table, not an arena handle (see cell.Kind.SeriesBacked's doc).
func (m *marker) markCell(c cell.Cell) {
	k := c.Kind()
	if k == cell.KindAction || k == cell.KindEnd {
		return
	}
	if k.SeriesBacked() {
		m.markStub(c.SeriesRef())
	}
	switch k {
	case cell.KindWord, cell.KindSetWord, cell.KindGetWord, cell.KindMetaWord:
		m.symbols.Mark(symbol.ID(c.SymbolRef()))
	}
	if k.Bindable() {
		m.markStub(c.BindingRef())
	}
}

// markLevel marks every root a single activation record can still
// reach: its out/spare/scratch/throw-arg cells, the feed it is reading
// (backing array plus any cached binding/lookback), its dispatching
// environment if set directly on the level, and whatever its
// executor-specific Union scratch reports through rootSource (spec.md
// §4.6's itemized per-level root list).
func (m *marker) markLevel(lvl *level.Level) {
	if lvl.Out != nil {
		m.markCell(*lvl.Out)
	}
	m.markCell(lvl.Spare)
	m.markCell(lvl.Scratch)
	m.markCell(lvl.ThrowArg)
	m.markCell(lvl.ThrowLabel)

	if lvl.Varlist != nil {
		m.markCell(lvl.Varlist.Archetype())
	}

	if lvl.Label != 0 {
		m.symbols.Mark(lvl.Label)
	}

	if lvl.Feed != nil {
		if ref, ok := lvl.Feed.GCRootRef(); ok {
			m.markStub(ref)
		}
		if ref, ok := lvl.Feed.CachedBinding(); ok {
			m.markStub(ref)
		}
		if lb, ok := lvl.Feed.Lookback(); ok {
			m.markCell(lb)
		}
	}

	if r, ok := lvl.Union.(rootSource); ok {
		r.GCRoots(m.markCell)
	}
}

// markHitchFixpoint keeps a symbol's patch chain entries alive exactly
// as long as the module context each patch names is itself still
// reachable (spec.md §4.6: "iterate all symbols and mark any patch
// whose context is already marked"). Every already-live stub was fully
// traced by the normal mark phase before this runs, so one pass over
// every chain is sufficient; the loop still iterates to a fixpoint
// rather than assuming that, since a later pack revision's patch shape
// may introduce chains that reference each other.
func (m *marker) markHitchFixpoint() {
	for {
		changed := false
		for _, id := range m.symbols.AllIDs() {
			for ref := m.symbols.HitchHead(id); ref != 0; {
				s := m.arena.Get(ref)
				if s == nil {
					break
				}
				next := s.Link
				if !s.Marked && s.HasMisc {
					if owner := m.arena.Get(s.Misc); owner != nil && owner.Marked {
						m.markStub(ref)
						m.drain()
						m.symbols.Mark(id)
						changed = true
					}
				}
				ref = next
			}
		}
		if !changed {
			return
		}
	}
}
