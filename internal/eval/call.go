package eval

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/errors"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// unset marks an argument slot a typed refinement's pickup pass has
// not reached yet; it is never a value a real evaluation can produce
// since the stepper never writes KindEnd into an argument cell except
// through the endable path (which happens to use the same sentinel —
// by the time pickups run, any slot still KindEnd-and-not-endable is
// exactly the "not yet fulfilled" case).
func isUnset(c cell.Cell) bool { return c.Kind() == cell.KindEnd }

// callState is the action executor's per-call scratch (spec.md §4.4
// "Parameter enumeration uses four cursors... kept in the level's
// union scratch"). Rather than an explicit state-enum requiring a
// giant re-entry switch, each suspension point records a Resume
// closure — the direct Go idiom for "record which state to resume
// at" that DESIGN.md documents as the chosen adaptation of spec.md §9's
// "Co-routine-like continuations" note.
type callState struct {
	Env    *series.Context
	Action *Action

	Args []cell.Cell

	// Requested holds the refinement symbols named in call order
	// (e.g. "foo:c:b" -> [c, b]); RequestedDone tracks which have
	// been fulfilled already (boolean refinements during the straight
	// walk).
	Requested     []symbol.ID
	RequestedDone []bool

	// InfixFirst, when set, means argument 0 comes from the caller's
	// output cell rather than the feed (spec.md §4.4
	// "fulfilling-infix-from-out").
	InfixFirst    bool
	InfixConsumed bool

	Resume func() level.Bounce
}

// GCRoots reports every cell this in-flight call can still reach: the
// dispatching environment and every argument slot, filled or not
// (spec.md §4.6 "partial args up to fulfillment cursor" — an unset
// slot is the KindEnd sentinel, which markCell already treats as a
// no-op, so yielding the whole slice regardless of fulfillment
// progress is safe).
func (st *callState) GCRoots(yield func(cell.Cell)) {
	if st.Env != nil {
		yield(st.Env.Archetype())
	}
	for _, a := range st.Args {
		yield(a)
	}
}

// NewActionCall builds a Level running the action executor for act,
// reading further arguments from f, evaluated against env, writing
// into out, parented under prior. requested is the ordered list of
// refinement names this call site wrote (e.g. path ":c:b" after the
// action word); pass nil for a plain call. When infixFirst is
// non-nil, the action's first parameter is fulfilled from *infixFirst
// instead of the feed (spec.md §4.3 "Right-side infix lookahead").
func (in *Interp) NewActionCall(f *feed.Feed, env *series.Context, act *Action, out *cell.Cell, prior *level.Level, requested []symbol.ID, infixFirst *cell.Cell) *level.Level {
	st := &callState{
		Env:           env,
		Action:        act,
		Args:          make([]cell.Cell, len(act.Params)),
		Requested:     requested,
		RequestedDone: make([]bool, len(requested)),
	}
	for i := range st.Args {
		st.Args[i] = cell.End()
	}
	if infixFirst != nil {
		st.InfixFirst = true
		st.Args[0] = *infixFirst
	}

	lvl := level.New(f, out, prior)
	lvl.Union = st
	lvl.Executor = func(l *level.Level) level.Bounce {
		if st.Resume != nil {
			r := st.Resume
			st.Resume = nil
			return r()
		}
		return in.fulfillFrom(l, st, 0)
	}
	return lvl
}

// fulfillFrom walks act.Params starting at idx, fulfilling each slot.
func (in *Interp) fulfillFrom(lvl *level.Level, st *callState, idx int) level.Bounce {
	params := st.Action.Params
	for i := idx; i < len(params); i++ {
		p := params[i]

		if st.InfixFirst && i == 0 && !st.InfixConsumed {
			st.InfixConsumed = true
			continue // already filled by NewActionCall
		}

		if p.Class == ParamRefinement {
			reqIdx := indexOfSymbol(st.Requested, p.Name, in)
			if reqIdx < 0 {
				st.Args[i] = cell.Nulled()
				continue
			}
			if p.Predicate == nil && !p.Skippable {
				st.Args[i] = cell.Logic(true)
				st.RequestedDone[reqIdx] = true
			}
			// typed refinement: left unset (KindEnd) for the pickup pass
			continue
		}

		if p.Class == ParamVariadic {
			st.Args[i] = in.gatherVariadic(lvl)
			continue
		}

		res, done, bounce := in.fulfillOne(lvl, st, i, func() level.Bounce { return in.fulfillFrom(lvl, st, i+1) })
		if !done {
			return bounce
		}
		st.Args[i] = res
	}
	return in.startPickups(lvl, st)
}

// fulfillOne fulfills a single non-refinement, non-variadic parameter.
// If it must suspend (pushing a stepper sublevel), done is false and
// bounce is what the caller should return immediately; next is the
// continuation to resume with once that sublevel completes.
func (in *Interp) fulfillOne(lvl *level.Level, st *callState, i int, next func() level.Bounce) (result cell.Cell, done bool, bounce level.Bounce) {
	p := st.Action.Params[i]

	atEnd := lvl.Feed.IsEnd()
	if atEnd {
		if p.Endable {
			return cell.End(), true, level.Bounce{}
		}
		return cell.Cell{}, true, level.Fail(errors.Newf(errors.NoArg, "no argument for %s", p.Name))
	}

	switch p.Class {
	case ParamJust:
		cur, _ := lvl.Feed.At()
		lvl.Feed.Advance()
		return cur, true, level.Bounce{}

	case ParamThe:
		cur, _ := lvl.Feed.At()
		lvl.Feed.Advance()
		return cur, true, level.Bounce{}

	case ParamSoft:
		cur, _ := lvl.Feed.At()
		if cur.Kind() != cell.KindGroup {
			lvl.Feed.Advance()
			return cur, true, level.Bounce{}
		}
		return cell.Cell{}, false, in.pushArgSublevel(lvl, st, i, false, next)

	case ParamNormal:
		return cell.Cell{}, false, in.pushArgSublevel(lvl, st, i, false, next)

	case ParamMeta:
		return cell.Cell{}, false, in.pushArgSublevel(lvl, st, i, true, next)

	case ParamRefinement:
		// Reached only from the pickup pass (continuePickups), for a
		// typed refinement whose value fulfillFrom deliberately left
		// unset. Fulfilled the same way a normal argument is.
		return cell.Cell{}, false, in.pushArgSublevel(lvl, st, i, false, next)
	}
	return cell.Cell{}, true, level.Bounce{}
}

// pushArgSublevel pushes a stepper Level that evaluates one expression
// into st.Args[i], applying the meta-decode if requested and then
// resuming with next. An ordinary infix action's own argument is
// fulfilled bare (no further infix lookahead within the argument
// itself): this is what makes "1 + 2 * 3" chain strictly left to right
// instead of the right operand greedily absorbing "2 * 3" (spec.md
// §4.3/§4.4). A Tight infix action's argument is fulfilled
// tight-only instead: lookahead continues into a further Tight
// action (and only that), giving "2 ** 3 ** 2" its right-associative
// grouping "2 ** (3 ** 2)" without also swallowing a following
// ordinary infix operator.
func (in *Interp) pushArgSublevel(lvl *level.Level, st *callState, i int, meta bool, next func() level.Bounce) level.Bounce {
	var child *level.Level
	switch {
	case st.Action.Infix && st.Action.Tight:
		child = in.newTightStepperLevel(lvl.Feed, st.Env, &st.Args[i])
	case st.Action.Infix:
		child = in.newBareStepperLevel(lvl.Feed, st.Env, &st.Args[i])
	default:
		child = in.NewStepperLevel(lvl.Feed, st.Env, &st.Args[i])
	}
	st.Resume = func() level.Bounce {
		if meta {
			st.Args[i] = st.Args[i].Meta()
		}
		return next()
	}
	lvl.Thread.Push(child)
	return level.Continue()
}

// gatherVariadic eagerly materializes the remainder of the feed into
// a block cell; there is no lazy variadic cursor over the feed.
// spec.md itself marks variadic
// typechecking "!!! Review" and leaves it unspecified (§9 Open
// Questions).
func (in *Interp) gatherVariadic(lvl *level.Level) cell.Cell {
	var rest []cell.Cell
	for {
		cur, ok := lvl.Feed.At()
		if !ok {
			break
		}
		rest = append(rest, cur)
		lvl.Feed.Advance()
	}
	arr := series.FromSlice(in.Arena, arena.FlavorPlainList, rest)
	return cell.Series(cell.KindBlock, arr.Ref)
}

func indexOfSymbol(syms []symbol.ID, name string, in *Interp) int {
	id, ok := in.Symbols.Lookup(name)
	if !ok {
		return -1
	}
	for i, s := range syms {
		if s == id {
			return i
		}
	}
	return -1
}

// startPickups re-enters fulfillment for each requested-but-unfilled
// refinement in call order (spec.md §4.4 "Out-of-order refinement
// pickups").
func (in *Interp) startPickups(lvl *level.Level, st *callState) level.Bounce {
	return in.continuePickups(lvl, st, 0)
}

func (in *Interp) continuePickups(lvl *level.Level, st *callState, from int) level.Bounce {
	for ri := from; ri < len(st.Requested); ri++ {
		if st.RequestedDone[ri] {
			continue
		}
		idx := paramIndexForSymbol(st.Action, st.Requested[ri], in)
		if idx < 0 {
			return level.Fail(errors.Newf(errors.BadParameter, "unknown refinement"))
		}
		if !isUnset(st.Args[idx]) {
			return level.Fail(errors.Newf(errors.BadParameter, "refinement %d pushed twice", idx))
		}
		st.RequestedDone[ri] = true
		res, done, bounce := in.fulfillOne(lvl, st, idx, func() level.Bounce { return in.continuePickups(lvl, st, ri+1) })
		if !done {
			return bounce
		}
		st.Args[idx] = res
	}
	return in.typecheckAndDispatch(lvl, st)
}

func paramIndexForSymbol(act *Action, sym symbol.ID, in *Interp) int {
	for i, p := range act.Params {
		if id, ok := in.Symbols.Lookup(p.Name); ok && id == sym {
			return i
		}
	}
	return -1
}

// typecheckAndDispatch is spec.md §4.4's typechecking pass followed by
// Dispatch.
func (in *Interp) typecheckAndDispatch(lvl *level.Level, st *callState) level.Bounce {
	for i, p := range st.Action.Params {
		if p.Class == ParamVariadic {
			continue // "variadic slots stamp their phase but are not checked now"
		}
		v := st.Args[i]
		if isUnset(v) {
			v = cell.Nulled()
			st.Args[i] = v
		}
		if v.IsAntiform() && v.Kind() == cell.KindVoid && p.NoopIfVoid {
			*lvl.Out = cell.Nulled()
			return level.Out()
		}
		if v.Typechecked() {
			continue
		}
		if !p.TypeCheck(v) {
			return level.Fail(errors.Newf(errors.PhaseArgType, "argument %d to %s failed type check", i, p.Name))
		}
	}
	return st.Action.Dispatch(in, lvl, st.Env, st.Args)
}
