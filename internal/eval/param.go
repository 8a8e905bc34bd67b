// Package eval implements the stepper, evaluator, and action
// executors (spec.md §4.3, §4.4, §4.5): the heart of rebcore's
// trampoline-driven dispatch.
package eval

import "rebcore/internal/cell"

// ParamClass selects how the action executor fulfills one parameter
// slot during argument fulfillment (spec.md §4.4 "Fulfillment rules").
type ParamClass uint8

const (
	ParamNormal ParamClass = iota
	ParamMeta
	ParamJust
	ParamThe
	ParamSoft
	ParamVariadic
	ParamRefinement
)

// Param describes one entry in an action's parameter list.
type Param struct {
	Name       string
	Class      ParamClass
	Endable    bool
	Skippable  bool
	Predicate  func(cell.Cell) bool // nil accepts anything
	QuotesLeft bool                 // this parameter left-quotes (backward-quote lookahead)

	// NoopIfVoid resolves the spec.md §9 open question per parameter:
	// when true ("noop-if-void"), a void argument causes the dispatcher
	// to be skipped and null written directly; when false (the zero
	// value), the dispatcher runs and receives the void argument
	// unchanged — no null is substituted for it. Exposed per-parameter
	// rather than as a single global switch — see DESIGN.md.
	NoopIfVoid bool
}

// TypeCheck reports whether v satisfies p, treating an absent
// predicate as "accepts anything" and an End cell as acceptable only
// when p is Endable.
func (p Param) TypeCheck(v cell.Cell) bool {
	if v.Kind() == cell.KindEnd {
		return p.Endable
	}
	if p.Predicate == nil {
		return true
	}
	return p.Predicate(v)
}
