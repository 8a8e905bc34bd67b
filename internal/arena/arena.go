package arena

import (
	"sync"

	"rebcore/internal/cell"
)

// DefaultBallast mirrors the teacher's habit of picking a round
// "do a few thousand allocations before worrying about it" constant;
// internal/config can override it at process start.
const DefaultBallast = 4096

// Arena owns every Stub a running rebcore process can reach. It is
// safe for concurrent use because symbol interning (internal/symbol)
// and the evaluator can both be mid-allocation around a GC safe-point,
// even though the trampoline itself is single-threaded (spec.md §5).
type Arena struct {
	mu        sync.Mutex
	stubs     []Stub
	freelist  []cell.NodeRef
	ballast   int
	depletion int
}

// New creates an Arena with the given ballast: the number of
// allocations permitted between garbage collections before Depleted
// reports true (spec.md §4.6 "Ballast").
func New(ballast int) *Arena {
	if ballast <= 0 {
		ballast = DefaultBallast
	}
	a := &Arena{ballast: ballast}
	a.depletion = ballast
	// NodeRef zero is reserved as the nil handle; pre-seed index 0
	// with a permanently-free sentinel stub so real allocations never
	// receive ref 0.
	a.stubs = append(a.stubs, Stub{Ownership: Free})
	return a
}

// Alloc reserves a new Stub of the given flavor, returning its handle.
// The returned Stub is Unmanaged until the caller calls Manage.
func (a *Arena) Alloc(flavor Flavor) (cell.NodeRef, *Stub) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.depletion--

	var ref cell.NodeRef
	if n := len(a.freelist); n > 0 {
		ref = a.freelist[n-1]
		a.freelist = a.freelist[:n-1]
		a.stubs[ref] = Stub{Flavor: flavor}
	} else {
		ref = cell.NodeRef(len(a.stubs))
		a.stubs = append(a.stubs, Stub{Flavor: flavor})
	}
	return ref, &a.stubs[ref]
}

// Get resolves a handle to its Stub. Returns nil for the nil handle or
// an out-of-range/freed handle (callers treat that as a logic error in
// debug builds; production callers should not hold stale handles past
// a sweep).
func (a *Arena) Get(ref cell.NodeRef) *Stub {
	if ref == 0 || int(ref) >= len(a.stubs) {
		return nil
	}
	s := &a.stubs[ref]
	if s.Ownership == Free {
		return nil
	}
	return s
}

// Manage transfers ownership of ref from its allocating site to the
// garbage collector (spec.md §3 "Ownership": "once managed, the GC
// becomes owner").
func (a *Arena) Manage(ref cell.NodeRef) {
	if s := a.Get(ref); s != nil {
		s.Ownership = Managed
	}
}

// FreeUnmanaged releases an unmanaged stub explicitly. Calling it on a
// managed stub panics: only the sweeper frees those.
func (a *Arena) FreeUnmanaged(ref cell.NodeRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.Get(ref)
	if s == nil {
		return
	}
	if s.Ownership == Managed {
		panic("arena: FreeUnmanaged called on a GC-managed stub")
	}
	a.release(ref)
}

// release is called by both FreeUnmanaged and the sweeper; caller
// holds a.mu or is single-threaded-by-contract (sweep).
func (a *Arena) release(ref cell.NodeRef) {
	a.stubs[ref] = Stub{Ownership: Free}
	a.freelist = append(a.freelist, ref)
}

// Sweep is invoked by internal/gc once marking completes. It applies
// spec.md §4.6's four-way dispatch per stub and returns how many were
// reclaimed.
func (a *Arena) Sweep() (reclaimed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ref := 1; ref < len(a.stubs); ref++ {
		s := &a.stubs[ref]
		switch {
		case s.Ownership == Free:
			continue
		case s.Ownership == Unmanaged && !s.Marked:
			// leave alone: its owner will free it
		case s.Ownership == Unmanaged && s.Marked:
			s.Marked = false
		case s.Ownership == Managed && s.Marked:
			s.Marked = false
		case s.Ownership == Managed && !s.Marked:
			a.release(cell.NodeRef(ref))
			reclaimed++
		}
	}
	a.depletion = a.ballast
	return reclaimed
}

// Depleted reports whether the ballast counter has crossed zero since
// the last Sweep, meaning an allocation site should trigger a GC
// safe-point.
func (a *Arena) Depleted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.depletion <= 0
}

// Live reports the number of stubs that are neither free nor the
// reserved nil sentinel — used by GC idempotence tests (spec.md §8).
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for i := 1; i < len(a.stubs); i++ {
		if a.stubs[i].Ownership != Free {
			n++
		}
	}
	return n
}

// ForEachStub invokes fn for every non-free stub with its handle, in
// allocation order. The GC's sweep does not use it; that is Sweep.
func (a *Arena) ForEachStub(fn func(cell.NodeRef, *Stub)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 1; i < len(a.stubs); i++ {
		if a.stubs[i].Ownership != Free {
			fn(cell.NodeRef(i), &a.stubs[i])
		}
	}
}
