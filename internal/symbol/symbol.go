// Package symbol implements the canonical interned-identifier table
// (spec.md §2 "Symbol/intern table"): every WORD! cell's spelling
// resolves to one ID, shared process-wide, with its own GC mark bit
// and a per-symbol "hitch" chain of module-scoped declarations.
package symbol

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
)

// ID is a symbol handle. Zero is never issued by Intern.
type ID uint32

type entry struct {
	spelling string
	marked   bool
	hitch    cell.NodeRef // head of this symbol's patch chain, or 0
}

// Table is the process-wide registry described in spec.md §4.6 and
// §9 ("Global mutable state"): append-only during execution, safe to
// call Intern from any executor. Interning a new symbol allocates no
// arena stub and never triggers a collection cycle.
type Table struct {
	mu      sync.RWMutex
	byName  map[string]ID
	entries []entry // index 0 unused, mirrors arena's nil-handle convention
	patches *arena.Arena
	group   singleflight.Group
}

// NewTable creates an empty symbol table. patches is the arena used
// to allocate hitch-chain patch nodes; passing the same arena the rest
// of the runtime uses lets the garbage collector sweep patches
// alongside every other stub.
func NewTable(patches *arena.Arena) *Table {
	return &Table{
		byName:  make(map[string]ID),
		entries: make([]entry, 1),
		patches: patches,
	}
}

// Intern returns the canonical ID for spelling, allocating one if this
// is the first time it has been seen. Concurrent calls for the same
// spelling collapse into a single allocation via singleflight, so two
// executors racing to intern the same brand-new word never produce two
// IDs for it.
func (t *Table) Intern(spelling string) ID {
	t.mu.RLock()
	if id, ok := t.byName[spelling]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	v, _, _ := t.group.Do(spelling, func() (interface{}, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if id, ok := t.byName[spelling]; ok {
			return id, nil
		}
		id := ID(len(t.entries))
		t.entries = append(t.entries, entry{spelling: spelling})
		t.byName[spelling] = id
		return id, nil
	})
	return v.(ID)
}

// Lookup returns the ID for spelling without interning it.
func (t *Table) Lookup(spelling string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[spelling]
	return id, ok
}

// Spelling returns the canonical string for id.
func (t *Table) Spelling(id ID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[id].spelling
}

// Mark, IsMarked and ClearAllMarks manage the symbol's own GC mark
// bit; the collector calls ClearAllMarks once at the start of every
// cycle (spec.md §4.6's module-iteration fixpoint needs
// to re-test "mark the symbol to keep it alive" each pass).
func (t *Table) Mark(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id].marked = true
}

func (t *Table) IsMarked(id ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[id].marked
}

func (t *Table) ClearAllMarks() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		t.entries[i].marked = false
	}
}

// AllIDs returns every interned ID, for the GC's module-iteration pass
// (spec.md §4.6: "iterate all symbols and mark any patch whose context
// is already marked").
func (t *Table) AllIDs() []ID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]ID, 0, len(t.entries)-1)
	for i := 1; i < len(t.entries); i++ {
		ids = append(ids, ID(i))
	}
	return ids
}

// HitchHead returns the head of id's patch chain.
func (t *Table) HitchHead(id ID) cell.NodeRef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[id].hitch
}

// AddPatch prepends a new hitch-chain entry for id recording that
// moduleContext declares this symbol; the patch's Misc slot holds
// moduleContext and its Link slot the previous chain head. Returns the
// new patch's handle.
func (t *Table) AddPatch(id ID, moduleContext cell.NodeRef) cell.NodeRef {
	t.mu.Lock()
	defer t.mu.Unlock()

	ref, stub := t.patches.Alloc(arena.FlavorPatch)
	stub.HasLink = true
	stub.Link = t.entries[id].hitch // chain to previous head
	stub.HasMisc = true
	stub.Misc = moduleContext
	t.patches.Manage(ref)

	t.entries[id].hitch = ref
	return ref
}
