// Package gc implements rebcore's mark-and-sweep collector (spec.md
// §4.6): a mark phase driven by an explicit, heap-allocated worklist
// (not Go-stack recursion, so an arbitrarily deep stub graph can't
// overflow it) over the arena's stub graph, rooted at the global
// context and every level on a Trampoline's stack, followed by a
// fixpoint pass over the symbol table's hitch chains and a sweep.
package gc

import (
	"log"

	"github.com/dustin/go-humanize"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// rootSource is implemented by an executor's lvl.Union scratch type
// when it holds cells the GC cannot otherwise see (spec.md §4.6
// "every level's feed/spare/scratch/out/varlist/partial args"). Each
// internal/eval state struct implements it; gc never imports eval
// (eval already imports level, and gc would otherwise cycle), so the
// interface is satisfied structurally rather than by name.
type rootSource interface {
	GCRoots(yield func(cell.Cell))
}

// Collector owns the process-wide state a collection cycle needs to
// reach every live stub: the arena itself, the symbol table (for the
// hitch-chain fixpoint), and the global context (the outermost root
// besides whatever Trampoline is currently running).
type Collector struct {
	Arena   *arena.Arena
	Symbols *symbol.Table
	Globals *series.Context

	// Verbose logs a line via the standard logger after every cycle
	// that reclaims at least one stub. Off by default since a tight
	// ballast can otherwise flood stderr.
	Verbose bool
}

// New builds a Collector over the given process state.
func New(a *arena.Arena, syms *symbol.Table, globals *series.Context) *Collector {
	return &Collector{Arena: a, Symbols: syms, Globals: globals}
}

// Hook returns a level.GCHook bound to tr, suitable for assigning to
// Trampoline.GC — the trampoline's signal-polling loop calls it every
// SignalEvery ticks once the arena reports Depleted (spec.md §4.6
// "Ballast-triggered cycles").
func (c *Collector) Hook(tr *level.Trampoline) level.GCHook {
	return func() {
		if !c.Arena.Depleted() {
			return
		}
		c.Collect(tr)
	}
}

// Collect runs one full mark-and-sweep cycle rooted at c.Globals and
// every level currently live on tr (pass nil to collect with no
// in-flight trampoline, e.g. between REPL lines). Returns the number
// of stubs reclaimed.
func (c *Collector) Collect(tr *level.Trampoline) int {
	m := &marker{arena: c.Arena, symbols: c.Symbols}

	c.Symbols.ClearAllMarks()

	m.markCell(c.Globals.Archetype())

	if tr != nil {
		tr.Walk(func(lvl *level.Level) {
			m.markLevel(lvl)
		})
	}

	m.drain()
	m.markHitchFixpoint()

	reclaimed := c.Arena.Sweep()
	if c.Verbose && reclaimed > 0 {
		log.Printf("gc: reclaimed %s stubs, %s live", humanize.Comma(int64(reclaimed)), humanize.Comma(int64(c.Arena.Live())))
	}
	return reclaimed
}
