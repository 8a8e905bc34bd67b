package eval

import (
	"rebcore/internal/cell"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// Action is a callable value: spec.md §3's "details" phase carrying
// the dispatcher, plus its parameter list and infix lookahead policy
// (spec.md §4.3 "Right-side infix lookahead").
type Action struct {
	Label  symbol.ID
	Params []Param

	Infix bool
	// Defer sets the feed's FlagDeferringInfix for one further step
	// before this infix action is allowed to take its left argument
	// (spec.md §4.3 "An action declared defer").
	Defer bool
	// Tight fulfills this infix action's own right-hand argument with
	// a tight-only stepper (stepperState.TightOnly) instead of the
	// ordinary bare one: lookahead from that argument continues into a
	// further Tight infix action, recursing the right operand instead
	// of binding left-to-right, which is what gives a chain like
	// "2 ** 3 ** 2" right-associative grouping (spec.md §4.3 "An
	// action declared tight").
	Tight bool

	// Dispatch runs the action body once every parameter has been
	// fulfilled and typechecked. args is indexed the same as Params.
	// It returns a Bounce exactly like any other executor — Out (with
	// lvl.Out already written), Fail, Thrown, Continue (having pushed
	// a further sublevel), etc. (spec.md §4.4 "Dispatch").
	Dispatch func(in *Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce
}
