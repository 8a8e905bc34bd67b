// Package level implements the per-activation Level record and the
// trampoline that schedules a stack of them (spec.md §3
// "Frame/Activation (Level)" and §4.2 "Trampoline & Level Stack").
package level

import "rebcore/internal/cell"

// BounceKind is the sum type an Executor returns to tell the
// trampoline what to do next.
type BounceKind uint8

const (
	// BounceOut: this level completed successfully; pop it and
	// return control to Prior.
	BounceOut BounceKind = iota
	// BounceContinue: a sublevel has already been pushed; keep
	// executing (the new top is the sublevel).
	BounceContinue
	// BounceDelegate: like Continue, but the current level's output
	// is whatever the sublevel produces, and the current level will
	// not be re-entered except to catch a throw for cleanup.
	BounceDelegate
	// BounceSuspend: this level yields; control returns to the host.
	BounceSuspend
	// BounceThrown: unwind until a level that catches handles it.
	BounceThrown
	// BounceRedoUnchecked: re-run the current level's dispatch as-is.
	BounceRedoUnchecked
	// BounceRedoChecked: re-run the current level's dispatch, first
	// re-running typechecking.
	BounceRedoChecked
	// BounceFail: convert to BounceThrown carrying an error label.
	BounceFail
)

// Bounce is the full return value of an Executor.
type Bounce struct {
	Kind BounceKind

	// ThrowLabel/ThrowArg are set for BounceThrown (e.g. RETURN's
	// label and the returned value, or PARSE-ACCEPT/PARSE-BREAK/
	// PARSE-REJECT's label and payload).
	ThrowLabel cell.Cell
	ThrowArg   cell.Cell

	// Err is set for BounceFail.
	Err error
}

func Out() Bounce                  { return Bounce{Kind: BounceOut} }
func Continue() Bounce             { return Bounce{Kind: BounceContinue} }
func Delegate() Bounce             { return Bounce{Kind: BounceDelegate} }
func Suspend() Bounce              { return Bounce{Kind: BounceSuspend} }
func RedoUnchecked() Bounce        { return Bounce{Kind: BounceRedoUnchecked} }
func RedoChecked() Bounce          { return Bounce{Kind: BounceRedoChecked} }
func Fail(err error) Bounce        { return Bounce{Kind: BounceFail, Err: err} }
func Thrown(label, arg cell.Cell) Bounce {
	return Bounce{Kind: BounceThrown, ThrowLabel: label, ThrowArg: arg}
}
