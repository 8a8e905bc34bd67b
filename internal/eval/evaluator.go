package eval

import (
	"rebcore/internal/cell"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
)

// evaluatorState drives the feed to its end, one stepper call at a
// time, keeping the last produced value as the running result (spec.md
// §4.5 "Evaluator: iterates a feed to its end"). A ghost/invisible
// result (spec.md's term for an expression that produces no value,
// i.e. ends in void) leaves the prior result in place instead of
// overwriting it.
type evaluatorState struct {
	Env    *series.Context
	Primed cell.Cell
	Have   bool
	Resume func() level.Bounce
}

// GCRoots reports the cells a running evaluator can still reach beyond
// its level's Out (already a generic root): the dispatching
// environment and the primed running result, which isn't written to
// Out until the feed actually reaches its end.
func (st *evaluatorState) GCRoots(yield func(cell.Cell)) {
	if st.Env != nil {
		yield(st.Env.Archetype())
	}
	if st.Have {
		yield(st.Primed)
	}
}

// NewEvaluatorLevel builds a Level that runs every expression in f to
// completion, writing the last non-ghost result into out.
func (in *Interp) NewEvaluatorLevel(f *feed.Feed, env *series.Context, out *cell.Cell) *level.Level {
	st := &evaluatorState{Env: env}
	lvl := level.New(f, out, nil)
	lvl.Union = st
	lvl.Executor = func(l *level.Level) level.Bounce {
		if st.Resume != nil {
			r := st.Resume
			st.Resume = nil
			return r()
		}
		return in.evalStep(l, st)
	}
	return lvl
}

func (in *Interp) evalStep(lvl *level.Level, st *evaluatorState) level.Bounce {
	if lvl.Feed.IsEnd() {
		if st.Have {
			*lvl.Out = st.Primed
		} else {
			*lvl.Out = cell.Void()
		}
		return level.Out()
	}

	held := new(cell.Cell)
	child := in.NewStepperLevel(lvl.Feed, st.Env, held)
	st.Resume = func() level.Bounce {
		// A "ghost" result (ends in void without ever producing a
		// surprising value) does not clobber the running Primed cell
		// (spec.md §4.5 "Ghost/ invisible handling").
		if !(held.Kind() == cell.KindVoid && held.IsAntiform()) {
			st.Primed = *held
			st.Have = true
		}
		return in.evalStep(lvl, st)
	}
	lvl.Thread.Push(child)
	return level.Continue()
}
