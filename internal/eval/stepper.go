package eval

import (
	"rebcore/internal/cell"
	"rebcore/internal/errors"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// stepperState is the stepper executor's scratch, kept in lvl.Union.
// Like callState, suspension records a Resume closure rather than an
// explicit state enum (see call.go's callState doc comment).
type stepperState struct {
	Env    *series.Context
	Resume func() level.Bounce

	// Bare suppresses infix lookahead after producing this step's
	// value. Set for an infix action's own right-hand argument, which
	// is fulfilled as a single tight step rather than a full
	// expression — the mechanism that gives Rebol-family dialects
	// uniform left-to-right "precedence" (spec.md §4.4's per-argument
	// QuotesLeft/tight handling, generalized to every infix argument).
	Bare bool

	// TightOnly restricts afterLeft's lookahead to another Tight infix
	// action, bailing out (like Bare) on anything else. Set for a
	// Tight infix action's own right-hand argument so a chain of the
	// same (or another) tight operator recurses into the right operand
	// instead of binding left-to-right, giving spec.md §4.3's "tight"
	// actions right-associative priority (e.g. "2 ** 3 ** 2" grouping
	// as "2 ** (3 ** 2)") without also swallowing a following ordinary
	// infix operator the way a fully unrestricted lookahead would.
	TightOnly bool
}

// GCRoots reports the cells this in-flight step can still reach, for
// internal/gc's root-set walk. The stepper writes its result straight
// into the level's Out cell (already a generic root the collector
// marks for every level), so the only extra root here is the
// dispatching environment.
func (st *stepperState) GCRoots(yield func(cell.Cell)) {
	if st.Env != nil {
		yield(st.Env.Archetype())
	}
}

// NewStepperLevel builds a Level that evaluates exactly one expression
// from f against env, writing the result into out (spec.md §4.3
// "Stepper: evaluates one expression").
func (in *Interp) NewStepperLevel(f *feed.Feed, env *series.Context, out *cell.Cell) *level.Level {
	return in.newStepperLevel(f, env, out, false)
}

// newBareStepperLevel evaluates one step without its own infix
// lookahead; see stepperState.Bare.
func (in *Interp) newBareStepperLevel(f *feed.Feed, env *series.Context, out *cell.Cell) *level.Level {
	return in.newStepperLevelWith(f, env, out, stepperState{Bare: true})
}

// newTightStepperLevel evaluates one step whose own infix lookahead
// only continues into another Tight action; see stepperState.TightOnly.
func (in *Interp) newTightStepperLevel(f *feed.Feed, env *series.Context, out *cell.Cell) *level.Level {
	return in.newStepperLevelWith(f, env, out, stepperState{TightOnly: true})
}

func (in *Interp) newStepperLevel(f *feed.Feed, env *series.Context, out *cell.Cell, bare bool) *level.Level {
	return in.newStepperLevelWith(f, env, out, stepperState{Bare: bare})
}

func (in *Interp) newStepperLevelWith(f *feed.Feed, env *series.Context, out *cell.Cell, proto stepperState) *level.Level {
	st := proto
	st.Env = env
	lvl := level.New(f, out, nil)
	lvl.Union = &st
	lvl.Executor = func(l *level.Level) level.Bounce {
		if st.Resume != nil {
			r := st.Resume
			st.Resume = nil
			return r()
		}
		return in.stepOnce(l, &st)
	}
	return lvl
}

// stepOnce dispatches on the feed's current cell kind (spec.md §4.3's
// per-kind table), then runs the infix lookahead loop on whatever was
// produced.
func (in *Interp) stepOnce(lvl *level.Level, st *stepperState) level.Bounce {
	cur, ok := lvl.Feed.At()
	if !ok {
		*lvl.Out = cell.Void()
		return level.Out()
	}

	if cur.QuoteDepth() > 0 {
		*lvl.Out = cur.Unquote()
		lvl.Feed.Advance()
		return in.afterLeft(lvl, st)
	}

	switch cur.Kind() {
	case cell.KindComma:
		// Expression barrier: produce void and stop, without infix
		// lookahead (spec.md §4.3 "Comma as a barrier").
		lvl.Feed.Advance()
		*lvl.Out = cell.Void()
		return level.Out()

	case cell.KindGroup:
		lvl.Feed.Advance()
		return in.evalGroupInto(lvl, st, cur, lvl.Out, func() level.Bounce { return in.afterLeft(lvl, st) })

	case cell.KindMetaGroup:
		lvl.Feed.Advance()
		return in.evalGroupInto(lvl, st, cur, lvl.Out, func() level.Bounce {
			*lvl.Out = lvl.Out.Meta()
			return in.afterLeft(lvl, st)
		})

	case cell.KindWord:
		return in.stepWord(lvl, st, cur)

	case cell.KindGetWord:
		lvl.Feed.Advance()
		val, found := in.lookupWordCell(st.Env, cur)
		if !found {
			return level.Fail(errors.Newf(errors.NotBound, "%s has no value", in.Symbols.Spelling(symFromWordCell(cur))))
		}
		*lvl.Out = val
		return level.Out() // get-word never triggers infix lookahead

	case cell.KindMetaWord:
		lvl.Feed.Advance()
		val, found := in.lookupWordCell(st.Env, cur)
		if !found {
			val = cell.Nulled()
		}
		*lvl.Out = val.Meta()
		return level.Out()

	case cell.KindSetWord:
		return in.stepSetWord(lvl, st, cur)

	case cell.KindSetBlock:
		return in.stepSetBlock(lvl, st, cur)

	case cell.KindSetPath, cell.KindSetTuple:
		return in.stepSetPath(lvl, st, cur)

	case cell.KindPath:
		return in.stepPath(lvl, st, cur)

	case cell.KindTuple:
		lvl.Feed.Advance()
		v, err := in.PickPath(st.Env, cur)
		if err != nil {
			return level.Fail(err)
		}
		*lvl.Out = v
		return in.afterLeft(lvl, st)

	case cell.KindGetPath, cell.KindGetTuple:
		lvl.Feed.Advance()
		v, err := in.PickPath(st.Env, cur)
		if err != nil {
			return level.Fail(err)
		}
		*lvl.Out = v
		return level.Out() // get-forms never trigger infix lookahead

	default:
		// Every remaining kind (integer!, decimal!, text!, block!,
		// object!, ...) is inert: it evaluates to itself.
		*lvl.Out = cur
		lvl.Feed.Advance()
		return in.afterLeft(lvl, st)
	}
}

func symFromWordCell(c cell.Cell) symbol.ID { return symbol.ID(c.SymbolRef()) }

func (in *Interp) lookupWordCell(env *series.Context, c cell.Cell) (cell.Cell, bool) {
	return in.Lookup(env, symFromWordCell(c))
}

// evalGroupInto pushes an evaluator sublevel over the group's inner
// array, writing the group's final result into dst, then resumes with
// next.
func (in *Interp) evalGroupInto(lvl *level.Level, st *stepperState, group cell.Cell, dst *cell.Cell, next func() level.Bounce) level.Bounce {
	inner := series.Array{A: in.Arena, Ref: group.SeriesRef()}
	childFeed := feed.New(inner)
	child := in.NewEvaluatorLevel(childFeed, st.Env, dst)
	st.Resume = next
	lvl.Thread.Push(child)
	return level.Continue()
}

// stepWord resolves a bound word: an antiform value raises an error
// unless the word is a plain action/frame lookup (spec.md §4.3 "Word
// lookup... antiform values besides those escorted through an action
// call are rejected"). Logic antiforms are the one other exception:
// they are fetched as-is.
func (in *Interp) stepWord(lvl *level.Level, st *stepperState, cur cell.Cell) level.Bounce {
	sym := symFromWordCell(cur)
	val, found := in.Lookup(st.Env, sym)
	if !found {
		return level.Fail(errors.Newf(errors.NotBound, "%s has no value", in.Symbols.Spelling(sym)))
	}

	if val.Kind() == cell.KindAction {
		act := in.ActionAt(val)
		if act == nil {
			return level.Fail(errors.Newf(errors.BadWordGet, "stale action reference"))
		}
		lvl.Feed.Advance()
		requested, _ := scanRefinementPath(lvl.Feed)
		child := in.NewActionCall(lvl.Feed, st.Env, act, lvl.Out, lvl, requested, nil)
		st.Resume = func() level.Bounce { return in.afterLeft(lvl, st) }
		lvl.Thread.Push(child)
		return level.Continue()
	}

	if val.IsAntiform() && val.Kind() != cell.KindLogic {
		return level.Fail(errors.Newf(errors.BadWordGet, "%s is %s antiform, cannot be used as a value",
			in.Symbols.Spelling(sym), val.Kind()))
	}

	lvl.Feed.Advance()
	*lvl.Out = val
	return in.afterLeft(lvl, st)
}

// scanRefinementPath always reports no requested refinements: it backs
// stepWord's plain cell.KindWord dispatch, and a bare word cell never
// carries trailing refinement segments of its own — those are fused
// by the reader into a single path! cell instead, handled by stepPath.
func scanRefinementPath(f *feed.Feed) (requested []symbol.ID, consumed bool) {
	return nil, false
}

// stepPath handles a path!-headed call site ("foo:c:b ..."): when the
// path's first step is a word bound to an action, every further step
// names a refinement requested for that call (spec.md §4.4's
// path-based refinement syntax), fulfilled during the action
// executor's pickup pass in the order listed here. Any other path
// (picking into an object!/module!/frame! field chain) falls back to
// PickPath, the plain read-direction picker.
func (in *Interp) stepPath(lvl *level.Level, st *stepperState, cur cell.Cell) level.Bounce {
	steps := in.pathSteps(cur)
	if len(steps) == 0 {
		return level.Fail(errors.New(errors.BadWordGet, "empty path"))
	}

	if steps[0].Kind() == cell.KindWord {
		val, found := in.lookupWordCell(st.Env, steps[0])
		if found && val.Kind() == cell.KindAction {
			act := in.ActionAt(val)
			if act == nil {
				return level.Fail(errors.Newf(errors.BadWordGet, "stale action reference"))
			}
			requested := make([]symbol.ID, len(steps)-1)
			for i, step := range steps[1:] {
				requested[i] = symFromWordCell(step)
			}
			lvl.Feed.Advance()
			child := in.NewActionCall(lvl.Feed, st.Env, act, lvl.Out, lvl, requested, nil)
			st.Resume = func() level.Bounce { return in.afterLeft(lvl, st) }
			lvl.Thread.Push(child)
			return level.Continue()
		}
	}

	lvl.Feed.Advance()
	v, err := in.PickPath(st.Env, cur)
	if err != nil {
		return level.Fail(err)
	}
	*lvl.Out = v
	return in.afterLeft(lvl, st)
}

// stepSetWord evaluates the right-hand expression and binds it,
// applying spec.md §4.3's "void on the right decays to unset" rule:
// setting a word to void leaves that slot untouched (rather than
// writing a void antiform into it) and the set-word itself evaluates
// to void.
func (in *Interp) stepSetWord(lvl *level.Level, st *stepperState, cur cell.Cell) level.Bounce {
	lvl.Feed.Advance()
	sym := symFromWordCell(cur)

	rhs := new(cell.Cell)
	child := in.NewStepperLevel(lvl.Feed, st.Env, rhs)
	st.Resume = func() level.Bounce {
		if rhs.Kind() == cell.KindVoid && rhs.IsAntiform() {
			*lvl.Out = cell.Void()
			return level.Out()
		}
		decayed := decayUnstableAntiform(*rhs)
		in.Bind(st.Env, sym, decayed)
		*lvl.Out = decayed
		return in.afterLeft(lvl, st)
	}
	lvl.Thread.Push(child)
	return level.Continue()
}

// stepSetPath evaluates the right-hand expression and writes it
// through a set-path!/set-tuple!'s picker chain via the strict SetPath
// variant (spec.md §9 Open Question decision, see DESIGN.md).
func (in *Interp) stepSetPath(lvl *level.Level, st *stepperState, cur cell.Cell) level.Bounce {
	lvl.Feed.Advance()

	rhs := new(cell.Cell)
	child := in.NewStepperLevel(lvl.Feed, st.Env, rhs)
	st.Resume = func() level.Bounce {
		if rhs.Kind() == cell.KindVoid && rhs.IsAntiform() {
			*lvl.Out = cell.Void()
			return level.Out()
		}
		decayed := decayUnstableAntiform(*rhs)
		if err := in.SetPath(st.Env, cur, decayed); err != nil {
			return level.Fail(err)
		}
		*lvl.Out = decayed
		return in.afterLeft(lvl, st)
	}
	lvl.Thread.Push(child)
	return level.Continue()
}

// decayUnstableAntiform resolves error/pack-like antiforms that cannot
// be stored in a variable down to their plain stable form. rebcore's
// cell model only implements the null/void/logic antiforms named in
// spec.md's DATA MODEL, so this is currently the identity function; it
// exists as the single seam spec.md §4.3's "decay-unstable-antiform"
// step would extend through if richer antiform kinds are added later.
func decayUnstableAntiform(c cell.Cell) cell.Cell { return c }

// stepSetBlock handles a set-block! by evaluating the right-hand
// expression once and assigning its single value to the block's first
// element only: a plain word binds the value, '^word' meta-binds it,
// and any other form ('_', '#', ...) binds nothing. Elements after the
// first are ignored, no multi-return frame is built, and '#' does not
// check that a value was produced. The expression's value is the
// right-hand value either way.
func (in *Interp) stepSetBlock(lvl *level.Level, st *stepperState, cur cell.Cell) level.Bounce {
	lvl.Feed.Advance()
	targets := series.Array{A: in.Arena, Ref: cur.SeriesRef()}

	rhs := new(cell.Cell)
	child := in.NewStepperLevel(lvl.Feed, st.Env, rhs)
	st.Resume = func() level.Bounce {
		if targets.Len() > 0 {
			in.bindSetBlockTarget(st.Env, targets.At(0), *rhs)
		}
		*lvl.Out = *rhs
		return in.afterLeft(lvl, st)
	}
	lvl.Thread.Push(child)
	return level.Continue()
}

func (in *Interp) bindSetBlockTarget(env *series.Context, target cell.Cell, val cell.Cell) {
	switch target.Kind() {
	case cell.KindWord:
		in.Bind(env, symFromWordCell(target), decayUnstableAntiform(val))
	case cell.KindMetaWord:
		in.Bind(env, symFromWordCell(target), val.Meta())
	default:
		// '_', '#' and any other form skip binding; '#' does not
		// check the value.
	}
}

// afterLeft runs spec.md §4.3's infix lookahead: if the feed's next
// cell is a word bound to an infix action (and lookahead is allowed),
// consume it and dispatch, taking the just-produced value as the
// action's first argument.
func (in *Interp) afterLeft(lvl *level.Level, st *stepperState) level.Bounce {
	if st.Bare {
		return level.Out()
	}
	if lvl.Feed.HasFlag(feed.FlagNoLookahead) {
		lvl.Feed.ClearFlag(feed.FlagNoLookahead)
		return level.Out()
	}

	cur, ok := lvl.Feed.At()
	if !ok || cur.Kind() != cell.KindWord {
		return level.Out()
	}
	val, found := in.Lookup(st.Env, symFromWordCell(cur))
	if !found || val.Kind() != cell.KindAction {
		return level.Out()
	}
	act := in.ActionAt(val)
	if act == nil || !act.Infix {
		return level.Out()
	}
	if st.TightOnly && !act.Tight {
		return level.Out()
	}

	// A deferred infix word is left unconsumed the first time it's
	// seen, at wordPos, so that an enclosing afterLeft call (once the
	// in-progress argument fetch it's nested inside finishes) gets the
	// chance to bind it instead (spec.md §4.3 "An action declared
	// defer"). The same word, still unconsumed, is what this function
	// sees again on that later call: deferAt == wordPos identifies the
	// resume rather than a second, genuine deferral, which is the only
	// case that's actually an error.
	wordPos := lvl.Feed.Pos()
	if deferAt, deferring := lvl.Feed.DeferredAt(); deferring {
		if deferAt != wordPos {
			return level.Fail(errors.Newf(errors.AmbiguousInfix, "two deferred infix operators in a row"))
		}
		lvl.Feed.ClearDeferred()
	} else if act.Defer {
		lvl.Feed.SetDeferredAt(wordPos)
		return level.Out()
	}

	lvl.Feed.Advance()
	left := *lvl.Out
	requested, _ := scanRefinementPath(lvl.Feed)
	child := in.NewActionCall(lvl.Feed, st.Env, act, lvl.Out, lvl, requested, &left)
	st.Resume = func() level.Bounce { return in.afterLeft(lvl, st) }
	lvl.Thread.Push(child)
	return level.Continue()
}
