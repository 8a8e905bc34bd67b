package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/series"
)

func newTestInterp() *eval.Interp {
	return eval.New(arena.New(4096))
}

func wordCell(in *eval.Interp, name string) cell.Cell {
	id := in.Symbols.Intern(name)
	return cell.Word(cell.KindWord, cell.NodeRef(id), 0)
}

func setWordCell(in *eval.Interp, name string) cell.Cell {
	w := wordCell(in, name)
	w.Header.Kind = cell.KindSetWord
	return w
}

func blockArr(in *eval.Interp, cells ...cell.Cell) series.Array {
	return series.FromSlice(in.Arena, arena.FlavorPlainList, cells)
}

func groupCell(in *eval.Interp, cells ...cell.Cell) cell.Cell {
	arr := blockArr(in, cells...)
	return cell.Series(cell.KindGroup, arr.Ref)
}

func blockCell(in *eval.Interp, cells ...cell.Cell) cell.Cell {
	arr := blockArr(in, cells...)
	return cell.Series(cell.KindBlock, arr.Ref)
}

func runParse(t *testing.T, in *eval.Interp, input, rules series.Array, match bool) (cell.Cell, bool) {
	t.Helper()
	env := series.NewContext(in.Arena, cell.KindObject)
	out, err := Run(in, input, rules, env, false, match)
	require.NoError(t, err)
	return out, asLogic(out) || out.Kind() == cell.KindBlock
}

func TestLiteralBlockMatches(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(2), cell.Integer(3))
	rules := blockArr(in, cell.Integer(1), cell.Integer(2), cell.Integer(3))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, out.Kind() == cell.KindLogic && out.First.Raw != 0)
}

func TestLiteralBlockFailsOnMismatch(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(2))
	rules := blockArr(in, cell.Integer(1), cell.Integer(99))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.False(t, asLogic(out))
}

func TestSomeMatchesOneOrMore(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(1), cell.Integer(1))
	rules := blockArr(in, wordCell(in, "some"), cell.Integer(1))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))
}

func TestSomeFailsOnZeroMatches(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(2))
	rules := blockArr(in, wordCell(in, "some"), cell.Integer(1))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.False(t, asLogic(out))
}

func TestOptToleratesAbsence(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(2))
	rules := blockArr(in, wordCell(in, "opt"), cell.Integer(1), cell.Integer(2))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))
}

func TestAlternatesTryEachInTurn(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(2))
	rules := blockArr(in,
		cell.Integer(1), wordCell(in, barWord), cell.Integer(2),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))
}

func TestAlternatesFailWhenNoneMatch(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(3))
	rules := blockArr(in,
		cell.Integer(1), wordCell(in, barWord), cell.Integer(2),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.False(t, asLogic(out))
}

func TestSetWordCapturesSingleValue(t *testing.T) {
	in := newTestInterp()
	env := series.NewContext(in.Arena, cell.KindObject)
	input := blockArr(in, cell.Integer(42))
	rules := blockArr(in, setWordCell(in, "x"), cell.Integer(42))

	out, err := Run(in, input, rules, env, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))

	xSym, ok := in.Symbols.Lookup("x")
	require.True(t, ok)
	v, ok := env.Get(xSym)
	require.True(t, ok)
	require.Equal(t, int64(42), v.AsInteger())
}

func TestSetWordCapturesMultiItemSpanAsBlock(t *testing.T) {
	in := newTestInterp()
	env := series.NewContext(in.Arena, cell.KindObject)
	input := blockArr(in, cell.Integer(1), cell.Integer(2))
	rules := blockArr(in, setWordCell(in, "pair"), blockCell(in, cell.Integer(1), cell.Integer(2)))

	out, err := Run(in, input, rules, env, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))

	pairSym, ok := in.Symbols.Lookup("pair")
	require.True(t, ok)
	v, ok := env.Get(pairSym)
	require.True(t, ok)
	require.Equal(t, cell.KindBlock, v.Kind())
	arr := series.Array{A: in.Arena, Ref: v.SeriesRef()}
	require.Equal(t, 2, arr.Len())
	require.Equal(t, int64(1), arr.At(0).AsInteger())
	require.Equal(t, int64(2), arr.At(1).AsInteger())
}

func TestToAdvancesWithoutConsumingTarget(t *testing.T) {
	in := newTestInterp()
	env := series.NewContext(in.Arena, cell.KindObject)
	input := blockArr(in, cell.Integer(1), cell.Integer(2), cell.Integer(99))
	rules := blockArr(in,
		setWordCell(in, "skipped"), wordCell(in, "to"), cell.Integer(99),
		cell.Integer(99),
	)

	out, err := Run(in, input, rules, env, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))

	skippedSym, _ := in.Symbols.Lookup("skipped")
	v, ok := env.Get(skippedSym)
	require.True(t, ok)
	require.Equal(t, cell.KindBlock, v.Kind())
	arr := series.Array{A: in.Arena, Ref: v.SeriesRef()}
	require.Equal(t, 2, arr.Len())
}

func TestThruConsumesThroughTarget(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(2), cell.Integer(3))
	rules := blockArr(in, wordCell(in, "thru"), cell.Integer(2), cell.Integer(3))

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))
}

func TestCollectKeepGathersValues(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(2), cell.Integer(3))
	rules := blockArr(in,
		wordCell(in, "collect"), blockCell(in,
			wordCell(in, "some"), blockCell(in, wordCell(in, "keep"), wordCell(in, "one")),
		),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.Equal(t, cell.KindBlock, out.Kind())
	arr := series.Array{A: in.Arena, Ref: out.SeriesRef()}
	require.Equal(t, 3, arr.Len())
	require.Equal(t, int64(1), arr.At(0).AsInteger())
	require.Equal(t, int64(2), arr.At(1).AsInteger())
	require.Equal(t, int64(3), arr.At(2).AsInteger())
}

func TestAcceptEndsMatchWithValue(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1))
	rules := blockArr(in,
		cell.Integer(1), wordCell(in, "accept"), groupCell(in, cell.Integer(7)),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.Equal(t, cell.KindInteger, out.Kind())
	require.Equal(t, int64(7), out.AsInteger())
}

func TestIntoRecursesIntoNestedBlock(t *testing.T) {
	in := newTestInterp()
	inner := blockCell(in, cell.Integer(1), cell.Integer(2))
	input := blockArr(in, inner)
	rules := blockArr(in,
		wordCell(in, "into"), blockCell(in, cell.Integer(1), cell.Integer(2)),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.True(t, asLogic(out))
}

func TestIntoFailsWhenNestedRulesDoNotFullyConsume(t *testing.T) {
	in := newTestInterp()
	inner := blockCell(in, cell.Integer(1), cell.Integer(2))
	input := blockArr(in, inner)
	rules := blockArr(in,
		wordCell(in, "into"), blockCell(in, cell.Integer(1)),
	)

	out, err := Run(in, input, rules, nil, false, false)
	require.NoError(t, err)
	require.False(t, asLogic(out))
}

func TestMatchRefinementReturnsConsumedRange(t *testing.T) {
	in := newTestInterp()
	input := blockArr(in, cell.Integer(1), cell.Integer(2))
	rules := blockArr(in, cell.Integer(1), cell.Integer(2))

	out, matched := runParse(t, in, input, rules, true)
	require.True(t, matched)
	require.Equal(t, cell.KindBlock, out.Kind())
	arr := series.Array{A: in.Arena, Ref: out.SeriesRef()}
	require.Equal(t, 2, arr.Len())
}
