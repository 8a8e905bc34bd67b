// Package api is rebcore's embedding facade: the ABI a host Go program
// links against to hand it code, get values back, and register its
// own native functions, the role the teacher's internal/vm "builtin
// function" registration (vm.AddBuiltinFunction, RegisterDatabaseBindings
// and friends) plays for the bytecode VM, generalized to the
// trampoline/cell model and to Ren-C's rebValue/rebRelease/rebElide
// API-handle lifetime.
package api

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
)

// Handle is an API-owned reference to a value living outside the
// ordinary cell/series graph: a FlavorPairing stub allocated
// Unmanaged (spec.md §3 "Ownership"), so the garbage collector never
// reclaims it on its own — only RebRelease (or ReleaseLevel's
// cleanup of a level's API-transient handles) frees it. This is the Go-side analog of a
// Ren-C REBVAL* returned from rebValue().
type Handle struct {
	a   *arena.Arena
	ref cell.NodeRef
}

func newHandle(a *arena.Arena, v cell.Cell) *Handle {
	ref, stub := a.Alloc(arena.FlavorPairing)
	stub.Cells = append(stub.Cells, v)
	return &Handle{a: a, ref: ref}
}

// Value returns the cell this handle holds.
func (h *Handle) Value() cell.Cell {
	return h.a.Get(h.ref).Cells[0]
}

func (h *Handle) release() {
	h.a.FreeUnmanaged(h.ref)
}
