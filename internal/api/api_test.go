package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/level"
	"rebcore/internal/series"
)

func newTestInterp() *eval.Interp {
	return eval.New(arena.New(4096))
}

func blockOf(in *eval.Interp, cells ...cell.Cell) cell.Cell {
	arr := series.FromSlice(in.Arena, arena.FlavorPlainList, cells)
	return cell.Series(cell.KindBlock, arr.Ref)
}

func TestRebValueRunsProgramAndReturnsHandle(t *testing.T) {
	in := newTestInterp()
	a := New(in)

	program := blockOf(in, cell.Integer(1), cell.Integer(2))
	h, err := a.RebValue(program, in.Globals, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), h.Value().AsInteger())
}

func TestRebReleaseFreesTheHandle(t *testing.T) {
	in := newTestInterp()
	a := New(in)

	program := blockOf(in, cell.Integer(5))
	h, err := a.RebValue(program, in.Globals, nil)
	require.NoError(t, err)

	a.RebRelease(h)
	require.Nil(t, in.Arena.Get(h.ref))
}

func TestRebElideDiscardsTheResult(t *testing.T) {
	in := newTestInterp()
	a := New(in)

	var called bool
	a.RegisterNative("mark-called", nil, func(a *API, lvl *level.Level, args []cell.Cell) (cell.Cell, error) {
		called = true
		return cell.Logic(true), nil
	})

	program := blockOf(in, wordCell(in, "mark-called"))
	err := a.RebElide(program, in.Globals)
	require.NoError(t, err)
	require.True(t, called)
}

func TestRegisterNativeExposesAGoFunctionAsAnAction(t *testing.T) {
	in := newTestInterp()
	a := New(in)

	a.RegisterNative("double", []eval.Param{{Name: "x", Class: eval.ParamNormal}}, func(a *API, lvl *level.Level, args []cell.Cell) (cell.Cell, error) {
		return cell.Integer(args[0].AsInteger() * 2), nil
	})

	program := blockOf(in, wordCell(in, "double"), cell.Integer(21))
	h, err := a.RebValue(program, in.Globals, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), h.Value().AsInteger())
}

func TestReleaseLevelFreesHandlesOwnedByThatLevel(t *testing.T) {
	in := newTestInterp()
	a := New(in)

	var inner *Handle
	a.RegisterNative("make-transient", nil, func(a *API, lvl *level.Level, args []cell.Cell) (cell.Cell, error) {
		sub := blockOf(in, cell.Integer(99))
		h, err := a.RebValue(sub, in.Globals, lvl)
		if err != nil {
			return cell.Cell{}, err
		}
		inner = h
		return h.Value(), nil
	})

	program := blockOf(in, wordCell(in, "make-transient"))
	_, err := a.RebValue(program, in.Globals, nil)
	require.NoError(t, err)

	require.NotNil(t, inner)
	require.Nil(t, in.Arena.Get(inner.ref))
}

func wordCell(in *eval.Interp, name string) cell.Cell {
	id := in.Symbols.Intern(name)
	return cell.Word(cell.KindWord, cell.NodeRef(id), 0)
}
