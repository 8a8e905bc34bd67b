package parse

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/series"
)

// parseState is a subparse level's per-match scratch (spec.md §4.7
// "Subparse state lives in the level's argument slots": the input
// series with a live-updated index and a flags word). Rather than
// cell-shaped argument slots, rebcore keeps the same information in
// Go-native fields on the level's Union, the idiom internal/eval's
// callState/evaluatorState already establish for executor scratch.
type parseState struct {
	Env *series.Context

	Input series.Array
	Pos   int

	// Collect is the stack of in-progress KEEP buffers; the innermost
	// (last) entry is the one a bare "keep" rule appends to. Entries
	// are plain Go-heap slices of cells not yet placed in an array, so
	// GCRoots walks them directly rather than through an arena handle.
	Collect []*[]cell.Cell

	Relax bool // :relax — a short match is not an error
	Match bool // :match — success yields the matched range, not true
}

func (st *parseState) AtEnd() bool { return st.Pos >= st.Input.Len() }

// Peek returns the input cell at the current position without
// consuming it.
func (st *parseState) Peek() (cell.Cell, bool) {
	if st.AtEnd() {
		return cell.End(), false
	}
	return st.Input.At(st.Pos), true
}

func (st *parseState) Advance() { st.Pos++ }

// GCRoots reports the cells this in-flight subparse can still reach
// beyond its level's Out: the dispatching environment, the input
// array being matched, and any value sitting in an open COLLECT
// buffer that hasn't been placed into an arena-visible block yet
// (internal/gc's rootSource protocol).
func (st *parseState) GCRoots(yield func(cell.Cell)) {
	if st.Env != nil {
		yield(st.Env.Archetype())
	}
	yield(cell.Series(cell.KindBlock, st.Input.Ref))
	for _, buf := range st.Collect {
		for _, c := range *buf {
			yield(c)
		}
	}
}

// valuesEqual compares two cells the way PARSE's literal-match rules
// need to: same kind, quote depth, and antiform/quasiform rung, with
// payload compared by the field that kind actually uses. Header bits
// that track evaluation bookkeeping (FlagUnevaluated, FlagTypechecked,
// FlagNewlineBefore) are deliberately ignored — two cells can carry
// the same dialect value while disagreeing on those.
func valuesEqual(a, b cell.Cell) bool {
	if a.Kind() != b.Kind() || a.QuoteDepth() != b.QuoteDepth() {
		return false
	}
	if a.IsAntiform() != b.IsAntiform() || a.IsQuasi() != b.IsQuasi() {
		return false
	}
	switch a.Kind() {
	case cell.KindInteger:
		return a.AsInteger() == b.AsInteger()
	case cell.KindDecimal:
		return a.AsDecimal() == b.AsDecimal()
	case cell.KindLogic:
		return a.First.Raw == b.First.Raw
	case cell.KindWord, cell.KindSetWord, cell.KindGetWord, cell.KindMetaWord:
		return a.SymbolRef() == b.SymbolRef()
	default:
		if a.Kind().SeriesBacked() {
			return a.SeriesRef() == b.SeriesRef()
		}
		return a == b
	}
}

// captureBlock allocates a fresh managed block! holding a copy of
// cells, used for ACROSS-style set-word captures and for COLLECT's
// finished buffer.
func captureBlock(a *arena.Arena, cells []cell.Cell) cell.Cell {
	arr := series.FromSlice(a, arena.FlavorPlainList, cells)
	return cell.Series(cell.KindBlock, arr.Ref)
}
