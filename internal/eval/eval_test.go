package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

func wordCell(in *Interp, name string) cell.Cell {
	id := in.Symbols.Intern(name)
	return cell.Word(cell.KindWord, cell.NodeRef(id), 0)
}

func setWordCell(in *Interp, name string) cell.Cell {
	w := wordCell(in, name)
	w.Header.Kind = cell.KindSetWord
	return w
}

func blockOf(in *Interp, cells ...cell.Cell) cell.Cell {
	arr := series.FromSlice(in.Arena, arena.FlavorPlainList, cells)
	return cell.Series(cell.KindBlock, arr.Ref)
}

// runToValue drives a fresh trampoline over an evaluator Level reading
// program to completion and returns its result.
func runToValue(t *testing.T, in *Interp, program cell.Cell) cell.Cell {
	t.Helper()
	arr := series.Array{A: in.Arena, Ref: program.SeriesRef()}
	f := feed.New(arr)
	var out cell.Cell
	root := in.NewEvaluatorLevel(f, in.Globals, &out)
	th := in.NewTrampoline(root)
	res, done, err := th.Run()
	require.True(t, done)
	require.NoError(t, err)
	return res
}

func newTestInterp() *Interp {
	return New(arena.New(4096))
}

// defineArith registers a two-argument integer action under name,
// optionally infix, combining its arguments with op.
func defineArith(in *Interp, name string, infix bool, op func(a, b int64) int64) {
	in.DefineAction(name, &Action{
		Params: []Param{
			{Name: "x", Class: ParamNormal},
			{Name: "y", Class: ParamNormal},
		},
		Infix: infix,
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			*lvl.Out = cell.Integer(op(args[0].AsInteger(), args[1].AsInteger()))
			return level.Out()
		},
	})
}

func TestArithmeticChainIsLeftToRight(t *testing.T) {
	in := newTestInterp()
	defineArith(in, "+", true, func(a, b int64) int64 { return a + b })
	defineArith(in, "*", true, func(a, b int64) int64 { return a * b })

	// "1 + 2 * 3" => (1 + 2) * 3 = 9, the uniform left-to-right
	// "precedence" every infix-heavy Rebol-family dialect relies on:
	// each infix operator's right argument is fulfilled bare (no
	// lookahead of its own), so "*" is picked up by the outer loop
	// rather than absorbed into "+"'s right operand.
	program := blockOf(in, cell.Integer(1), wordCell(in, "+"), cell.Integer(2), wordCell(in, "*"), cell.Integer(3))
	out := runToValue(t, in, program)
	require.Equal(t, int64(9), out.AsInteger())
}

func TestPrefixArgumentGetsFullInfixExpression(t *testing.T) {
	in := newTestInterp()
	defineArith(in, "+", true, func(a, b int64) int64 { return a + b })

	var captured int64
	in.DefineAction("double-of", &Action{
		Params: []Param{{Name: "x", Class: ParamNormal}},
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			captured = args[0].AsInteger()
			*lvl.Out = args[0]
			return level.Out()
		},
	})

	// "double-of 1 + 2" passes the whole "1 + 2" as the prefix action's
	// single argument: a prefix argument is fulfilled with full infix
	// lookahead, unlike an infix operator's own right operand.
	program := blockOf(in, wordCell(in, "double-of"), cell.Integer(1), wordCell(in, "+"), cell.Integer(2))
	runToValue(t, in, program)
	require.Equal(t, int64(3), captured)
}

func TestSetWordBindsAndEvaluatesToValue(t *testing.T) {
	in := newTestInterp()
	program := blockOf(in, setWordCell(in, "x"), cell.Integer(42))
	out := runToValue(t, in, program)
	require.Equal(t, int64(42), out.AsInteger())

	sym, ok := in.Symbols.Lookup("x")
	require.True(t, ok)
	v, ok := in.Globals.Get(sym)
	require.True(t, ok)
	require.Equal(t, int64(42), v.AsInteger())
}

func TestCommaActsAsExpressionBarrier(t *testing.T) {
	in := newTestInterp()
	program := blockOf(in, cell.Comma())
	out := runToValue(t, in, program)
	require.True(t, out.IsAntiform())
	require.Equal(t, cell.KindVoid, out.Kind())
}

func TestRefinementPickupOutOfOrder(t *testing.T) {
	in := newTestInterp()
	bSym := in.Symbols.Intern("b")
	cSym := in.Symbols.Intern("c")

	var gotX, gotB, gotC int64
	in.DefineAction("foo", &Action{
		Params: []Param{
			{Name: "x", Class: ParamNormal},
			{Name: "b", Class: ParamRefinement, Predicate: func(cell.Cell) bool { return true }},
			{Name: "c", Class: ParamRefinement, Predicate: func(cell.Cell) bool { return true }},
		},
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			gotX = args[0].AsInteger()
			gotB = args[1].AsInteger()
			gotC = args[2].AsInteger()
			*lvl.Out = cell.Integer(0)
			return level.Out()
		},
	})
	fooID, _ := in.Symbols.Lookup("foo")
	fooAction := in.actions[fooID]

	// Simulates the call site "foo:c:b 10 20 30": x is fulfilled from
	// the feed in declaration order, while c and b (both typed
	// refinements) are fulfilled during the pickup pass in the order
	// they were requested (c first, then b), per spec.md §4.4.
	program := blockOf(in, cell.Integer(10), cell.Integer(20), cell.Integer(30))
	arr := series.Array{A: in.Arena, Ref: program.SeriesRef()}
	f := feed.New(arr)

	var out cell.Cell
	callLvl := in.NewActionCall(f, in.Globals, fooAction, &out, nil, []symbol.ID{cSym, bSym}, nil)
	th := in.NewTrampoline(callLvl)
	_, done, err := th.Run()
	require.True(t, done)
	require.NoError(t, err)

	require.Equal(t, int64(10), gotX)
	require.Equal(t, int64(20), gotC)
	require.Equal(t, int64(30), gotB)
}

// pathCell builds a path! cell chaining the given word names, the
// cell shape a reader produces for "a:b:c" call syntax.
func pathCell(in *Interp, names ...string) cell.Cell {
	cells := make([]cell.Cell, len(names))
	for i, name := range names {
		cells[i] = wordCell(in, name)
	}
	arr := series.FromSlice(in.Arena, arena.FlavorPlainList, cells)
	return cell.Series(cell.KindPath, arr.Ref)
}

func TestRefinementPathCallSiteFulfillsRequestedRefinements(t *testing.T) {
	in := newTestInterp()

	var gotX, gotB, gotC int64
	in.DefineAction("foo", &Action{
		Params: []Param{
			{Name: "x", Class: ParamNormal},
			{Name: "b", Class: ParamRefinement, Predicate: func(cell.Cell) bool { return true }},
			{Name: "c", Class: ParamRefinement, Predicate: func(cell.Cell) bool { return true }},
		},
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			gotX = args[0].AsInteger()
			gotB = args[1].AsInteger()
			gotC = args[2].AsInteger()
			*lvl.Out = cell.Integer(0)
			return level.Out()
		},
	})

	// "foo:c:b 10 20 30" written as source: the path! head resolves to
	// an action, so its tail steps (c, b) become the requested
	// refinements, fulfilled in that order during the pickup pass.
	program := blockOf(in, pathCell(in, "foo", "c", "b"), cell.Integer(10), cell.Integer(20), cell.Integer(30))
	runToValue(t, in, program)

	require.Equal(t, int64(10), gotX)
	require.Equal(t, int64(20), gotC)
	require.Equal(t, int64(30), gotB)
}

func TestPlainPathStillPicksObjectFields(t *testing.T) {
	in := newTestInterp()
	ctx := series.NewContext(in.Arena, cell.KindObject)
	fieldSym := in.Symbols.Intern("y")
	ctx.Expand(in.Arena, fieldSym, cell.Integer(7))
	objSym := in.Symbols.Intern("obj")
	in.Bind(in.Globals, objSym, ctx.Archetype())

	program := blockOf(in, pathCell(in, "obj", "y"))
	out := runToValue(t, in, program)
	require.Equal(t, int64(7), out.AsInteger())
}

// defineDeferredThen registers a two-argument infix, deferring action
// that ignores its left operand and returns its right one — standing
// in for "then" fulfilling spec.md §4.3's "if 1 then [10] else [20]"
// shape with plain integers rather than a full if/else pair.
func defineDeferredThen(in *Interp, name string) {
	in.DefineAction(name, &Action{
		Params: []Param{
			{Name: "left", Class: ParamNormal},
			{Name: "right", Class: ParamNormal},
		},
		Infix: true,
		Defer: true,
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			*lvl.Out = args[1]
			return level.Out()
		},
	})
}

func TestDeferredInfixResolvesAcrossPrefixArgumentBoundary(t *testing.T) {
	in := newTestInterp()
	defineDeferredThen(in, "then")

	var captured int64
	in.DefineAction("wrap", &Action{
		Params: []Param{{Name: "x", Class: ParamNormal}},
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			captured = args[0].AsInteger()
			*lvl.Out = args[0]
			return level.Out()
		},
	})

	// "wrap 1 then 10": wrap's own argument fetch (full lookahead,
	// spec.md §4.3) first sights "then" and defers it rather than
	// erroring, since wrap's fetch is the first afterLeft call to see
	// it. wrap's dispatch completes with just "1", and the enclosing
	// afterLeft call — resuming at the very same unconsumed "then" —
	// recognizes it as the deferral coming back around rather than a
	// second one, and applies it (spec.md §4.3 "An action declared
	// defer", the "if 1 then [10] == 10" invariant).
	program := blockOf(in, wordCell(in, "wrap"), cell.Integer(1), wordCell(in, "then"), cell.Integer(10))
	out := runToValue(t, in, program)
	require.Equal(t, int64(1), captured)
	require.Equal(t, int64(10), out.AsInteger())
}

func TestSecondDeferWithoutResolvingFirstIsAmbiguous(t *testing.T) {
	in := newTestInterp()
	defineDeferredThen(in, "then")

	program := blockOf(in, wordCell(in, "then"), cell.Integer(10))
	arr := series.Array{A: in.Arena, Ref: program.SeriesRef()}
	f := feed.New(arr)

	// Simulate an enclosing afterLeft already deferring some other
	// word at a position distinct from the one "then" sits at here:
	// the only way a genuine second deferral happens is when the
	// recorded position doesn't match the word currently under
	// consideration.
	f.SetDeferredAt(f.Pos() + 1000)

	out := cell.Integer(1)
	lvl := level.New(f, &out, nil)
	st := &stepperState{Env: in.Globals}
	bounce := in.afterLeft(lvl, st)
	require.Equal(t, level.BounceFail, bounce.Kind)
	require.Error(t, bounce.Err)
}

func TestTightInfixIsRightAssociative(t *testing.T) {
	in := newTestInterp()
	in.DefineAction("**", &Action{
		Params: []Param{
			{Name: "x", Class: ParamNormal},
			{Name: "y", Class: ParamNormal},
		},
		Infix: true,
		Tight: true,
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			base, exp := args[0].AsInteger(), args[1].AsInteger()
			r := int64(1)
			for ; exp > 0; exp-- {
				r *= base
			}
			*lvl.Out = cell.Integer(r)
			return level.Out()
		},
	})

	// "2 ** 3 ** 2" groups as "2 ** (3 ** 2)" == 2 ** 9 == 512: a Tight
	// action's right operand is fulfilled through the tight-only
	// stepper, whose own lookahead continues into a further Tight
	// action instead of stopping bare, giving right-associative
	// priority (spec.md §4.3 "An action declared tight").
	program := blockOf(in, cell.Integer(2), wordCell(in, "**"), cell.Integer(3), wordCell(in, "**"), cell.Integer(2))
	out := runToValue(t, in, program)
	require.Equal(t, int64(512), out.AsInteger())
}

func TestTightInfixDoesNotSwallowFollowingOrdinaryInfix(t *testing.T) {
	in := newTestInterp()
	in.DefineAction("**", &Action{
		Params: []Param{
			{Name: "x", Class: ParamNormal},
			{Name: "y", Class: ParamNormal},
		},
		Infix: true,
		Tight: true,
		Dispatch: func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			base, exp := args[0].AsInteger(), args[1].AsInteger()
			r := int64(1)
			for ; exp > 0; exp-- {
				r *= base
			}
			*lvl.Out = cell.Integer(r)
			return level.Out()
		},
	})
	defineArith(in, "+", true, func(a, b int64) int64 { return a + b })

	// "2 ** 3 + 1" groups as "(2 ** 3) + 1" == 9, not "2 ** (3 + 1)":
	// TightOnly lookahead bails out on a non-Tight infix action just
	// like Bare does, so "+" is picked up by the outer loop instead of
	// being absorbed into "**"'s right operand.
	program := blockOf(in, cell.Integer(2), wordCell(in, "**"), cell.Integer(3), wordCell(in, "+"), cell.Integer(1))
	out := runToValue(t, in, program)
	require.Equal(t, int64(9), out.AsInteger())
}
