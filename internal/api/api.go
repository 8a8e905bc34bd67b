package api

import (
	"fmt"
	"sync"

	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// API wraps an *eval.Interp with the embedding entry points: running a
// program and getting a managed Handle back (RebValue), running one
// for its side effects only (RebElide), releasing a handle early
// (RebRelease), and registering a host-defined native (RegisterNative).
type API struct {
	In *eval.Interp

	mu    sync.Mutex
	owned map[*level.Level][]*Handle
}

// New wraps in as an embedding surface.
func New(in *eval.Interp) *API {
	return &API{In: in, owned: make(map[*level.Level][]*Handle)}
}

// run evaluates program to completion on a fresh local trampoline.
// Like internal/parse's evalGroup, this deliberately uses the raw
// level.NewTrampoline rather than in.NewTrampoline: RebValue/RebElide
// are callable from inside a native's own Dispatch (a level already
// running on the host trampoline), and wiring the GC hook here would
// let a cycle walk only this inner, synchronous run's single level
// while the real call stack — the native's own Level, still alive
// purely as a paused Go frame above this call — goes unmarked.
func (api *API) run(program cell.Cell, env *series.Context) (cell.Cell, error) {
	arr := series.Array{A: api.In.Arena, Ref: program.SeriesRef()}
	f := feed.New(arr)
	var out cell.Cell
	root := api.In.NewEvaluatorLevel(f, env, &out)
	tr := level.NewTrampoline(root)
	res, done, err := tr.Run()
	if err != nil {
		return cell.Cell{}, err
	}
	if !done {
		return cell.Cell{}, fmt.Errorf("api: evaluation did not complete")
	}
	return res, nil
}

// RebValue runs program to completion and returns its result as a
// managed Handle. When owner is non-nil, the handle is API-transient:
// ReleaseLevel(owner) frees it automatically, matching Ren-C's rule
// that a native's own rebValue() calls live no longer than the native
// itself unless explicitly kept with rebUnmanage. Pass a nil owner for
// a host-side call with no enclosing level, where the caller is
// responsible for an explicit RebRelease.
func (api *API) RebValue(program cell.Cell, env *series.Context, owner *level.Level) (*Handle, error) {
	res, err := api.run(program, env)
	if err != nil {
		return nil, err
	}
	h := newHandle(api.In.Arena, res)
	if owner != nil {
		api.mu.Lock()
		api.owned[owner] = append(api.owned[owner], h)
		api.mu.Unlock()
	}
	return h, nil
}

// RebElide runs program to completion purely for its side effects,
// discarding the result instead of allocating a Handle for it.
func (api *API) RebElide(program cell.Cell, env *series.Context) error {
	_, err := api.run(program, env)
	return err
}

// RebRelease frees h immediately. Safe to call on a handle already
// released by ReleaseLevel; arena.FreeUnmanaged is idempotent against
// a ref that no longer resolves to a live stub in the same way a
// double free of an already-swept managed stub would not be, but a
// Handle is only ever created Unmanaged so this path never races the
// collector.
func (api *API) RebRelease(h *Handle) {
	h.release()
}

// ReleaseLevel frees every API-transient handle created with owner
// lvl, the automatic cleanup a native's Dispatch runs once it has
// read whatever rebValue() calls it made during its own body.
func (api *API) ReleaseLevel(lvl *level.Level) {
	api.mu.Lock()
	hs := api.owned[lvl]
	delete(api.owned, lvl)
	api.mu.Unlock()
	for _, h := range hs {
		h.release()
	}
}

// NativeFunc is the signature a host-registered native function
// implements: plain Go in, plain Go (or error) out, with no level/
// Bounce plumbing of its own to write — the same simplification the
// teacher's vm.NativeFunction.Function (func([]Value) (Value, error))
// makes over a raw bytecode-VM callback.
type NativeFunc func(api *API, lvl *level.Level, args []cell.Cell) (cell.Cell, error)

// RegisterNative defines name as an action whose Dispatch runs fn and
// then releases any API-transient handles fn created via RebValue,
// generalizing the teacher's AddBuiltinFunction/RegisterDatabaseBindings
// pattern onto internal/eval's Action/Dispatch shape.
func (api *API) RegisterNative(name string, params []eval.Param, fn NativeFunc) symbol.ID {
	return api.In.DefineAction(name, &eval.Action{
		Params: params,
		Dispatch: func(in *eval.Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			res, err := fn(api, lvl, args)
			api.ReleaseLevel(lvl)
			if err != nil {
				return level.Fail(err)
			}
			*lvl.Out = res
			return level.Out()
		},
	})
}
