// Package debugserver streams level-stack snapshots to an attached
// inspector over a WebSocket, the way the teacher's internal/network
// WebSocket server broadcasts to connected clients, repurposed from a
// general-purpose network primitive into a single-tenant debug feed
// for spec.md §4.2's "single logical thread of control".
package debugserver

import (
	"rebcore/internal/cell"
	"rebcore/internal/level"
)

// LevelSnapshot is one activation record's debugger-visible state: a
// label when the level is an action call, its executor-private step
// counter, whether it is mid-unwind, and a full dump of its current
// output cell for an attached inspector drilling past the summary
// fields into the cell's raw internal layout.
type LevelSnapshot struct {
	Label    string `json:"label,omitempty"`
	State    int    `json:"state"`
	Flags    uint16 `json:"flags"`
	Throwing bool   `json:"throwing"`
	OutDump  string `json:"out_dump,omitempty"`
}

// Snapshot is one tick's worth of trampoline state, serialized to JSON
// and broadcast to every attached inspector.
type Snapshot struct {
	Tick    uint64          `json:"tick"`
	TraceID string          `json:"trace_id"`
	Depth   int             `json:"depth"`
	Levels  []LevelSnapshot `json:"levels"`
}

// Spelling renders a level's Label symbol as text. Build takes this
// as a plain function value — a closure over *symbol.Table.Spelling —
// rather than an interface, so debugserver never needs to import
// internal/symbol just to name the one method it calls.
type Spelling func(id uint32) string

// Build walks tr's level stack (top to root, the same order GC's
// marker uses) into a Snapshot. spell may be nil, in which case Label
// is left blank rather than rendered.
func Build(tr *level.Trampoline, spell Spelling) Snapshot {
	snap := Snapshot{
		Tick:    tr.Tick,
		TraceID: tr.TraceID.String(),
		Depth:   tr.Depth(),
	}
	tr.Walk(func(lvl *level.Level) {
		ls := LevelSnapshot{
			State:    lvl.State,
			Flags:    uint16(lvl.Flags),
			Throwing: lvl.Throwing,
		}
		if spell != nil && lvl.Label != 0 {
			ls.Label = spell(uint32(lvl.Label))
		}
		if lvl.Out != nil {
			ls.OutDump = cell.Dump(*lvl.Out)
		}
		snap.Levels = append(snap.Levels, ls)
	})
	return snap
}
