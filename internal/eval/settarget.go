package eval

import (
	"rebcore/internal/cell"
	"rebcore/internal/errors"
	"rebcore/internal/series"
)

// pathSteps returns the sequence of step cells making up a tuple!/
// path!/set-tuple!/set-path! cell's picker chain.
func (in *Interp) pathSteps(p cell.Cell) []cell.Cell {
	arr := series.Array{A: in.Arena, Ref: p.SeriesRef()}
	out := make([]cell.Cell, arr.Len())
	for i := range out {
		out[i] = arr.At(i)
	}
	return out
}

// PickPath resolves a tuple!/path! read by walking its steps: the
// first step looks up a word in env; every further step picks into
// the running value, which must be a context (object!/module!/
// frame!/error!/port!) picked by word, per spec.md §4.3's generalized
// picker. rebcore implements the Open Question (§9) "legacy SET-PATH!/
// SET-TUPLE! semantics" decision as the strict variant: an absent
// intermediate key is always an error, never silent nothing (see
// DESIGN.md).
func (in *Interp) PickPath(env *series.Context, p cell.Cell) (cell.Cell, error) {
	steps := in.pathSteps(p)
	if len(steps) == 0 {
		return cell.Cell{}, errors.New(errors.BadWordGet, "empty path")
	}

	cur, found := in.lookupWordCell(env, steps[0])
	if !found {
		return cell.Cell{}, errors.Newf(errors.NotBound, "%s has no value",
			in.Symbols.Spelling(symFromWordCell(steps[0])))
	}

	for _, step := range steps[1:] {
		ctx, ok := asContext(in, cur)
		if !ok {
			return cell.Cell{}, errors.Newf(errors.BadWordGet, "cannot pick into %s", cur.Kind())
		}
		sym := symFromWordCell(step)
		v, ok := ctx.Get(sym)
		if !ok {
			return cell.Cell{}, errors.Newf(errors.NoValue, "%s has no field %s",
				cur.Kind(), in.Symbols.Spelling(sym))
		}
		cur = v
	}
	return cur, nil
}

// SetPath writes val through a set-path!/set-tuple!'s step chain. The
// strict variant: every step but the last must already resolve to an
// existing context field (no auto-vivification of missing
// intermediate objects), and the final step must already exist as a
// key in that context (spec.md §9 decision: "error unconditionally").
func (in *Interp) SetPath(env *series.Context, p cell.Cell, val cell.Cell) error {
	steps := in.pathSteps(p)
	if len(steps) < 2 {
		return errors.New(errors.BadWordGet, "set-path needs at least two steps")
	}

	cur, found := in.lookupWordCell(env, steps[0])
	if !found {
		return errors.Newf(errors.NotBound, "%s has no value",
			in.Symbols.Spelling(symFromWordCell(steps[0])))
	}

	for _, step := range steps[1 : len(steps)-1] {
		ctx, ok := asContext(in, cur)
		if !ok {
			return errors.Newf(errors.BadWordGet, "cannot pick into %s", cur.Kind())
		}
		sym := symFromWordCell(step)
		v, ok := ctx.Get(sym)
		if !ok {
			return errors.Newf(errors.NoValue, "%s has no field %s", cur.Kind(), in.Symbols.Spelling(sym))
		}
		cur = v
	}

	ctx, ok := asContext(in, cur)
	if !ok {
		return errors.Newf(errors.BadWordGet, "cannot set into %s", cur.Kind())
	}
	last := symFromWordCell(steps[len(steps)-1])
	if !ctx.Set(last, val) {
		return errors.Newf(errors.NoValue, "%s has no field %s", cur.Kind(), in.Symbols.Spelling(last))
	}
	return nil
}

func asContext(in *Interp, v cell.Cell) (*series.Context, bool) {
	switch v.Kind() {
	case cell.KindObject, cell.KindFrame, cell.KindModule, cell.KindError, cell.KindPort:
		varlist := series.Array{A: in.Arena, Ref: v.SeriesRef()}
		keylist := series.Array{A: in.Arena, Ref: in.Arena.Get(varlist.Ref).Link}
		return &series.Context{Keylist: keylist, Varlist: varlist}, true
	default:
		return nil, false
	}
}
