package eval

import (
	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// GCCollector is the narrow interface internal/gc.Collector satisfies;
// declared here (rather than imported) so eval never depends on gc —
// gc already depends on eval-adjacent packages (level, series, symbol)
// and an eval->gc edge would cycle back through the rootSource duck
// typing gc uses against eval's executor states.
type GCCollector interface {
	Hook(tr *level.Trampoline) level.GCHook
}

// Interp is the process-wide interpreter state shared by every level:
// the arena, the symbol table, the global environment, and the action
// registry. It plays the role the teacher's vm.VM struct plays for the
// bytecode machine, generalized to rebcore's trampoline/cell model.
type Interp struct {
	Arena   *arena.Arena
	Symbols *symbol.Table
	Globals *series.Context

	// GC is optional; when set, NewTrampoline wires its Hook as the
	// returned Trampoline's signal-polling collection cycle (spec.md
	// §4.6). Left nil, a trampoline runs with collection disabled
	// (every test in this module that doesn't exercise internal/gc
	// directly takes this path).
	GC GCCollector

	actions    map[symbol.ID]*Action
	actionRefs []*Action
}

// NewTrampoline builds a Trampoline rooted at root, wiring in.GC's
// collection hook if one is configured.
func (in *Interp) NewTrampoline(root *level.Level) *level.Trampoline {
	tr := level.NewTrampoline(root)
	if in.GC != nil {
		tr.GC = in.GC.Hook(tr)
	}
	return tr
}

// New creates an Interp with a fresh arena, symbol table, and global
// module-like context.
func New(a *arena.Arena) *Interp {
	in := &Interp{
		Arena:   a,
		Symbols: symbol.NewTable(a),
		actions: make(map[symbol.ID]*Action),
	}
	in.Globals = series.NewContext(a, cell.KindModule)
	return in
}

// DefineAction registers a native action under name, also binding it
// into the global context so word lookup finds it.
func (in *Interp) DefineAction(name string, act *Action) symbol.ID {
	id := in.Symbols.Intern(name)
	act.Label = id
	in.actions[id] = act
	val := in.actionCell(act)
	if _, ok := in.Globals.Get(id); ok {
		in.Globals.Set(id, val)
	} else {
		in.Globals.Expand(in.Arena, id, val)
	}
	return id
}

// actionCell allocates a stable integer handle denoting act. Actions
// are native Go dispatchers that live on the Go heap, outside the
// arena: rebcore's custom GC traces cell-visible structure, not Go
// closures, the same boundary spec.md §1 draws around "the extension
// binding ABI".
func (in *Interp) actionCell(act *Action) cell.Cell {
	in.actionRefs = append(in.actionRefs, act)
	ref := cell.NodeRef(len(in.actionRefs))
	return cell.Series(cell.KindAction, ref)
}

// ActionAt resolves a KindAction cell back to its *Action.
func (in *Interp) ActionAt(c cell.Cell) *Action {
	ref := c.SeriesRef()
	if ref == 0 || int(ref) > len(in.actionRefs) {
		return nil
	}
	return in.actionRefs[ref-1]
}

// Lookup resolves a word cell against env, falling back to Globals.
func (in *Interp) Lookup(env *series.Context, sym symbol.ID) (cell.Cell, bool) {
	if env != nil {
		if v, ok := env.Get(sym); ok {
			return v, true
		}
	}
	return in.Globals.Get(sym)
}

// Bind stores val under sym in env, expanding env if the symbol is new.
func (in *Interp) Bind(env *series.Context, sym symbol.ID, val cell.Cell) {
	if env == nil {
		env = in.Globals
	}
	if !env.Set(sym, val) {
		env.Expand(in.Arena, sym, val)
	}
}

