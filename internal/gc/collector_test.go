package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

func TestCollectReclaimsUnreachableKeepsGlobals(t *testing.T) {
	a := arena.New(8)
	syms := symbol.NewTable(a)
	globals := series.NewContext(a, cell.KindModule)

	held := series.New(a, arena.FlavorPlainList)
	held.Append(cell.Integer(42))
	xSym := syms.Intern("x")
	globals.Expand(a, xSym, cell.Series(cell.KindBlock, held.Ref))

	garbage := series.New(a, arena.FlavorPlainList)
	garbage.Append(cell.Integer(99))

	c := New(a, syms, globals)
	reclaimed := c.Collect(nil)

	require.Equal(t, 1, reclaimed)
	require.NotNil(t, a.Get(held.Ref), "reachable from Globals, must survive")
	require.Nil(t, a.Get(garbage.Ref), "unreferenced stub must be swept")

	v, ok := globals.Get(xSym)
	require.True(t, ok)
	require.Equal(t, held.Ref, v.SeriesRef())
}

func TestCollectIsIdempotentOnASecondImmediateCycle(t *testing.T) {
	a := arena.New(8)
	syms := symbol.NewTable(a)
	globals := series.NewContext(a, cell.KindModule)

	c := New(a, syms, globals)
	c.Collect(nil)
	second := c.Collect(nil)
	require.Equal(t, 0, second)
}

func TestCollectKeepsPatchAliveWhileModuleIsReachable(t *testing.T) {
	a := arena.New(8)
	syms := symbol.NewTable(a)
	globals := series.NewContext(a, cell.KindModule)

	mod := series.NewContext(a, cell.KindModule)
	fooSym := syms.Intern("foo")
	mod.Expand(a, fooSym, cell.Integer(7))
	patchRef := syms.AddPatch(fooSym, mod.Varlist.Ref)

	modSym := syms.Intern("mod-ref")
	globals.Expand(a, modSym, mod.Archetype())

	c := New(a, syms, globals)
	c.Collect(nil)

	require.NotNil(t, a.Get(patchRef), "patch for a still-reachable module must survive")
	require.True(t, syms.IsMarked(fooSym), "fixpoint marks the symbol the surviving patch names")
}

func TestCollectTracesDeeplyNestedBlocksViaWorklist(t *testing.T) {
	a := arena.New(8)
	syms := symbol.NewTable(a)
	globals := series.NewContext(a, cell.KindModule)

	// Build a chain of nested block! stubs far deeper than any
	// plausible Go call-stack-recursion limit would tolerate if
	// marking recursed instead of using an explicit worklist
	// (spec.md §4.6's "tolerate arbitrarily deep structures").
	const depth = 50000
	innermost := series.New(a, arena.FlavorPlainList)
	innermost.Append(cell.Integer(1))
	cur := cell.Series(cell.KindBlock, innermost.Ref)
	for i := 0; i < depth; i++ {
		wrapper := series.New(a, arena.FlavorPlainList)
		wrapper.Append(cur)
		cur = cell.Series(cell.KindBlock, wrapper.Ref)
	}

	rootSym := syms.Intern("chain")
	globals.Expand(a, rootSym, cur)

	c := New(a, syms, globals)
	require.NotPanics(t, func() { c.Collect(nil) })

	require.NotNil(t, a.Get(innermost.Ref), "innermost stub must survive, reachable through the whole chain")
}

func TestCollectDropsPatchOnceItsModuleIsUnreachable(t *testing.T) {
	a := arena.New(8)
	syms := symbol.NewTable(a)
	globals := series.NewContext(a, cell.KindModule)

	mod := series.NewContext(a, cell.KindModule)
	barSym := syms.Intern("bar")
	mod.Expand(a, barSym, cell.Integer(1))
	patchRef := syms.AddPatch(barSym, mod.Varlist.Ref)
	// mod is never bound into globals, so it and its patch are both garbage.

	c := New(a, syms, globals)
	c.Collect(nil)

	require.Nil(t, a.Get(patchRef))
}
