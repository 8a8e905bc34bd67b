package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

func newReaderDeps() (*arena.Arena, *symbol.Table) {
	a := arena.New(4096)
	return a, symbol.NewTable(a)
}

func scanBlock(t *testing.T, a *arena.Arena, syms *symbol.Table, src string) series.Array {
	t.Helper()
	v, err := Scan(a, syms, src)
	require.NoError(t, err)
	require.Equal(t, cell.KindBlock, v.Kind())
	return series.Array{A: a, Ref: v.SeriesRef()}
}

func TestScanIntegerAndDecimal(t *testing.T) {
	a, syms := newReaderDeps()
	blk := scanBlock(t, a, syms, "1 -2 3.5")
	require.Equal(t, 3, blk.Len())
	require.Equal(t, int64(1), blk.At(0).AsInteger())
	require.Equal(t, int64(-2), blk.At(1).AsInteger())
	require.Equal(t, 3.5, blk.At(2).AsDecimal())
}

func TestScanWordsAndLogic(t *testing.T) {
	a, syms := newReaderDeps()
	blk := scanBlock(t, a, syms, "foo true false bar?")
	require.Equal(t, 4, blk.Len())
	require.Equal(t, cell.KindWord, blk.At(0).Kind())
	require.Equal(t, cell.KindLogic, blk.At(1).Kind())
	require.Equal(t, cell.KindLogic, blk.At(2).Kind())
	require.Equal(t, cell.KindWord, blk.At(3).Kind())

	id, ok := syms.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, cell.NodeRef(id), blk.At(0).SymbolRef())
}

func TestScanSetWordAndGetWord(t *testing.T) {
	a, syms := newReaderDeps()
	blk := scanBlock(t, a, syms, "x: :x")
	require.Equal(t, 2, blk.Len())
	require.Equal(t, cell.KindSetWord, blk.At(0).Kind())
	require.Equal(t, cell.KindGetWord, blk.At(1).Kind())
}

func TestScanNestedBlockAndGroup(t *testing.T) {
	a, syms := newReaderDeps()
	blk := scanBlock(t, a, syms, "[1 (2 3)]")
	require.Equal(t, 1, blk.Len())

	inner := series.Array{A: a, Ref: blk.At(0).SeriesRef()}
	require.Equal(t, cell.KindBlock, blk.At(0).Kind())
	require.Equal(t, 2, inner.Len())
	require.Equal(t, cell.KindGroup, inner.At(1).Kind())

	grp := series.Array{A: a, Ref: inner.At(1).SeriesRef()}
	require.Equal(t, 2, grp.Len())
}

func TestScanSkipsCommentsAndWhitespace(t *testing.T) {
	a, syms := newReaderDeps()
	blk := scanBlock(t, a, syms, "1 ; a comment\n  2")
	require.Equal(t, 2, blk.Len())
	require.Equal(t, int64(2), blk.At(1).AsInteger())
}

func TestScanReportsUnterminatedBlock(t *testing.T) {
	a, syms := newReaderDeps()
	_, err := Scan(a, syms, "[1 2")
	require.Error(t, err)
}

func TestScanReportsUnexpectedClose(t *testing.T) {
	a, syms := newReaderDeps()
	_, err := Scan(a, syms, "1)")
	require.Error(t, err)
}

func TestScanErrorReportsOffendingPosition(t *testing.T) {
	a, syms := newReaderDeps()
	_, err := Scan(a, syms, "1)")
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, 1, se.Pos)
}
