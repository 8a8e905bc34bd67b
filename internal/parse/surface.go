package parse

import (
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/level"
	"rebcore/internal/series"
)

// NewSubparseLevel builds the Level that runs one subparse attempt to
// completion: matching rules against input starting at position zero
// and writing the result into out.
//
// Unlike the stepper/evaluator executors, a subparse level's Executor
// runs the whole attempt synchronously in one trampoline step rather
// than suspending and resuming across many (spec.md §4.7 still gets
// its "recursion is a level" property: an embedded GROUP! and an INTO
// target each get a genuine child Level, just driven by a fresh,
// short-lived local trampoline rather than being pushed onto the
// caller's). Writing the full backtracking matcher as an explicit
// multi-step state machine would buy debugger-visible single-stepping
// through every rule item; this trades that granularity for an engine
// that is tractable to get right without running it — see DESIGN.md.
func NewSubparseLevel(in *eval.Interp, input series.Array, rules series.Array, env *series.Context, out *cell.Cell) (*level.Level, *parseState) {
	st := &parseState{Env: env, Input: input}
	lvl := level.New(nil, out, nil)
	lvl.Union = st
	lvl.Executor = func(l *level.Level) level.Bounce {
		res := matchAlternates(in, st, rules)
		switch {
		case res.err != nil:
			return level.Fail(res.err)
		case res.sig == sigAccept || res.sig == sigBypass:
			*l.Out = res.value
			return level.Out()
		case res.ok:
			*l.Out = parseSuccessValue(in, st)
			return level.Out()
		default:
			*l.Out = cell.Logic(false)
			return level.Out()
		}
	}
	return lvl, st
}

// parseSuccessValue is what a plain (non-ACCEPT) successful match
// produces: the whole matched prefix as a block under :match, #[true]
// otherwise.
func parseSuccessValue(in *eval.Interp, st *parseState) cell.Cell {
	if st.Match {
		return captureBlock(in.Arena, st.Input.Slice(0, st.Pos))
	}
	return cell.Logic(true)
}

func asLogic(c cell.Cell) bool {
	return c.Kind() == cell.KindLogic && c.First.Raw != 0
}

// RegisterParse3 defines "parse3", the dialect engine's surface action
// (spec.md §4.7), with :relax (a short match is not an error, though
// plain non-INTO top-level matching already reports whatever position
// it reached rather than erroring) and :match (success returns the
// matched range instead of #[true]) refinements, mirroring Ren-C's
// PARSE3.
func RegisterParse3(in *eval.Interp) {
	in.DefineAction("parse3", &eval.Action{
		Params: []eval.Param{
			{Name: "input", Class: eval.ParamNormal, Predicate: func(c cell.Cell) bool { return c.Kind() == cell.KindBlock }},
			{Name: "rules", Class: eval.ParamNormal, Predicate: func(c cell.Cell) bool { return c.Kind() == cell.KindBlock }},
			{Name: "relax", Class: eval.ParamRefinement},
			{Name: "match", Class: eval.ParamRefinement},
		},
		Dispatch: func(in *eval.Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			inputArr := series.Array{A: in.Arena, Ref: args[0].SeriesRef()}
			rulesArr := series.Array{A: in.Arena, Ref: args[1].SeriesRef()}
			sub, st := NewSubparseLevel(in, inputArr, rulesArr, env, lvl.Out)
			st.Relax = asLogic(args[2])
			st.Match = asLogic(args[3])
			lvl.Thread.Push(sub)
			return level.Delegate()
		},
	})
}

// Run parses input against rules to completion on its own local
// trampoline, for callers that want a parse result without going
// through the action-call machinery (cmd/rebcore's parse subcommand
// uses it). parse3 does not call Run: it pushes a NewSubparseLevel
// onto the caller's own trampoline.
func Run(in *eval.Interp, input, rules series.Array, env *series.Context, relax, match bool) (cell.Cell, error) {
	var out cell.Cell
	child, st := NewSubparseLevel(in, input, rules, env, &out)
	st.Relax = relax
	st.Match = match
	tr := in.NewTrampoline(child)
	res, done, err := tr.Run()
	if err != nil {
		return cell.Cell{}, err
	}
	if !done {
		return cell.Cell{}, ruleErr("parse did not complete")
	}
	return res, nil
}
