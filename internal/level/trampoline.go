package level

import (
	"github.com/google/uuid"

	"rebcore/internal/cell"
)

// SignalEvery is how many dispatches the trampoline runs between
// polling its cancellation/GC signal, mirroring spec.md §4.2's
// "decrements a countdown and polls a signal word at each step".
const SignalEvery = 256

// GCHook lets internal/gc plug a collection cycle into the
// trampoline's signal polling without level depending on gc (which
// itself depends on level's root-set walk).
type GCHook func()

// CancelSignal is polled alongside GC; when it reports true the
// trampoline converts the current step into a thrown cancellation
// (spec.md §5 "Cancellation / timeouts").
type CancelSignal func() bool

// Trampoline owns the call stack of Levels and is the sole dispatcher
// (spec.md §4.2, §5 "single logical thread of control").
type Trampoline struct {
	top *Level

	Tick      uint64
	countdown int

	TraceID uuid.UUID // correlates this run's GC/debug-server log lines

	GC     GCHook
	Cancel CancelSignal

	ring *tickRing

	recycling bool // GC reentrancy guard (spec.md §4.6 "Reentrancy")
}

// NewTrampoline creates a Trampoline with root as the bottom level
// already pushed.
func NewTrampoline(root *Level) *Trampoline {
	t := &Trampoline{
		top:       root,
		countdown: SignalEvery,
		TraceID:   uuid.New(),
		ring:      newTickRing(64),
	}
	root.Thread = t
	return t
}

// Push installs sub as the new top, parented under the current top.
// Executors call this before returning BounceContinue/BounceDelegate.
func (t *Trampoline) Push(sub *Level) {
	sub.Prior = t.top
	sub.Thread = t
	t.top = sub
}

// Top returns the currently-running level.
func (t *Trampoline) Top() *Level { return t.top }

// Depth reports the live level-stack depth, as shown in
// internal/debugserver's snapshots. No depth limit is enforced.
func (t *Trampoline) Depth() int {
	n := 0
	for l := t.top; l != nil; l = l.Prior {
		n++
	}
	return n
}

// Walk visits every level from top to the root, for the GC's root-set
// traversal (spec.md §4.6 "Every level on the level stack").
func (t *Trampoline) Walk(fn func(*Level)) {
	for l := t.top; l != nil; l = l.Prior {
		fn(l)
	}
}

// Run drives the trampoline until the root level completes (BounceOut
// with no Prior) or it suspends. Returns the final output cell, or an
// error for an uncaught throw/fail that reached the outermost level
// (spec.md §7: "Uncaught throws at the outermost level are converted
// to errors").
func (t *Trampoline) Run() (cell.Cell, bool, error) {
	for {
		if t.top == nil {
			return cell.Cell{}, true, nil
		}

		t.countdown--
		if t.countdown <= 0 {
			t.countdown = SignalEvery
			if t.Cancel != nil && t.Cancel() {
				t.top.Throwing = true
				res := Thrown(cancelLabel, cell.Void())
				t.handle(res)
				continue
			}
			if t.GC != nil && !t.recycling {
				t.recycling = true
				t.GC()
				t.recycling = false
			}
		}

		t.Tick++
		cur := t.top
		res := cur.Executor(cur)
		t.ring.record(cur, res)

		if res.Kind == BounceSuspend {
			return cell.Cell{}, false, nil
		}

		if done, out, err := t.handle(res); done {
			return out, true, err
		}
	}
}

var cancelLabel = cell.Logic(false) // placeholder distinct cell identity for cancellation throws

// handle applies one Bounce to the level stack. The bool return is
// whether the whole run is finished (root popped).
func (t *Trampoline) handle(res Bounce) (finished bool, out cell.Cell, err error) {
	switch res.Kind {
	case BounceContinue:
		return false, cell.Cell{}, nil

	case BounceDelegate:
		if t.top.Prior != nil {
			t.top.Prior.Set(FlagDelegating)
		}
		return false, cell.Cell{}, nil

	case BounceRedoUnchecked, BounceRedoChecked:
		return false, cell.Cell{}, nil

	case BounceFail:
		t.top.Throwing = true
		t.top.ThrowLabel = raiseLabel
		t.top.ThrowArg = cell.Void()
		return t.unwind(res.Err)

	case BounceThrown:
		t.top.ThrowLabel = res.ThrowLabel
		t.top.ThrowArg = res.ThrowArg
		return t.unwind(nil)

	case BounceOut:
		return t.popOut()

	default:
		return false, cell.Cell{}, nil
	}
}

var raiseLabel = cell.Logic(true) // placeholder distinct cell identity for raised-error throws

// popOut completes the current level normally, cascading through any
// chain of BounceDelegate-marked parents (spec.md §4.2 "Delegate").
func (t *Trampoline) popOut() (finished bool, out cell.Cell, err error) {
	finished, outCell := t.completeOne()
	for !finished {
		parent := t.top
		if !parent.Has(FlagDelegating) {
			return false, cell.Cell{}, nil
		}
		parent.Clear(FlagDelegating)
		finished, outCell = t.completeOne()
	}
	return finished, outCell, nil
}

// completeOne pops t.top, returns (true, out) if that was the root.
func (t *Trampoline) completeOne() (rootDone bool, out cell.Cell) {
	finishedLevel := t.top
	var outVal cell.Cell
	if finishedLevel.Out != nil {
		outVal = *finishedLevel.Out
	}
	t.top = finishedLevel.Prior
	if t.top == nil {
		return true, outVal
	}
	return false, outVal
}

// unwind pops levels until one with FlagCatchesThrows is found (which
// is re-entered with Throwing=true to run cleanup) or the stack is
// exhausted (uncaught throw converted to an error at the outermost
// level, spec.md §7).
func (t *Trampoline) unwind(cause error) (finished bool, out cell.Cell, err error) {
	for t.top != nil {
		if t.top.Has(FlagCatchesThrows) && !t.top.Throwing {
			t.top.Throwing = true
			return false, cell.Cell{}, nil
		}
		if t.top.Prior == nil {
			if cause != nil {
				return true, cell.Cell{}, cause
			}
			return true, t.top.ThrowArg, uncaughtThrowError{label: t.top.ThrowLabel}
		}
		child := t.top
		t.top = child.Prior
		t.top.ThrowLabel = child.ThrowLabel
		t.top.ThrowArg = child.ThrowArg
	}
	return true, cell.Cell{}, cause
}

type uncaughtThrowError struct{ label cell.Cell }

func (e uncaughtThrowError) Error() string { return "uncaught throw" }
