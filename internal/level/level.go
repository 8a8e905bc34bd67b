package level

import (
	"rebcore/internal/cell"
	"rebcore/internal/feed"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// Flag bits for scheduling and per-dispatch behavior (spec.md §3
// "flags: scheduling and per-dispatch flags").
type Flag uint16

const (
	// FlagCatchesThrows: an unwinding throw re-enters this level's
	// Executor with Throwing=true instead of skipping past it.
	FlagCatchesThrows Flag = 1 << iota
	// FlagDispatcherCatches: the action executor's dispatcher phase
	// wants to run cleanup on a throw or fail rather than letting it
	// propagate untouched.
	FlagDispatcherCatches
	// FlagDelegating: set on a level's Prior when that level returned
	// BounceDelegate — when the pushed sublevel completes, this
	// level is treated as completing too, without re-entering its
	// Executor.
	FlagDelegating
	// FlagLeftQuotePath: kept across an action call and one ensuing
	// infix lookup (spec.md §4.4 "Cleanup").
	FlagLeftQuotePath
)

// Executor is the state-machine function a Level dispatches through.
// It reads and mutates lvl's state and returns a Bounce telling the
// trampoline what happened.
type Executor func(lvl *Level) Bounce

// Level is one activation record: the stepper evaluating one
// expression, the action executor fulfilling and dispatching a call,
// a subparse rule match, or the evaluator running a feed to its end.
// (spec.md §3 "Frame/Activation (Level)").
type Level struct {
	Feed *feed.Feed
	Out  *cell.Cell

	Spare   cell.Cell
	Scratch cell.Cell

	Varlist *series.Context // set while action-dispatching

	Executor Executor
	State    int
	Flags    Flag
	Prior    *Level

	// Thread is the Trampoline currently running this level. It is
	// set when the level is pushed, so an Executor closure can push
	// its own sublevels without needing a separate handle threaded
	// through every call site.
	Thread *Trampoline

	Label symbol.ID

	// Throwing is set by the trampoline before re-entering an
	// Executor that has FlagCatchesThrows, so it can distinguish a
	// normal re-entry from a cleanup pass.
	Throwing   bool
	ThrowLabel cell.Cell
	ThrowArg   cell.Cell

	// Union holds executor-specific scratch: the four fulfillment
	// cursors during action calls, the primed holding cell during
	// eval-to-end, a reval payload, etc. Each executor package defines
	// its own concrete type and type-asserts it back out; this is the
	// Go analog of spec.md's "Union for executor-specific scratch".
	Union interface{}
}

func (l *Level) Has(f Flag) bool { return l.Flags&f != 0 }
func (l *Level) Set(f Flag)      { l.Flags |= f }
func (l *Level) Clear(f Flag)    { l.Flags &^= f }

// New builds a child level reading from src and writing its result
// into out, parented under prior. Callers set Executor before pushing
// it onto a Trampoline.
func New(src *feed.Feed, out *cell.Cell, prior *Level) *Level {
	return &Level{Feed: src, Out: out, Prior: prior}
}
