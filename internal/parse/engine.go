package parse

import (
	"rebcore/internal/cell"
	"rebcore/internal/errors"
	"rebcore/internal/eval"
	"rebcore/internal/feed"
	"rebcore/internal/level"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// signal is a control-flow effect a rule item produced that must
// unwind past ordinary sequencing: ACCEPT/BYPASS end the whole match
// immediately with a value, BREAK/REJECT end the nearest enclosing
// quantifier (SOME/REPEAT). They are plain Go return values rather
// than level.Thrown bounces: the whole subparse attempt runs inside
// one trampoline step (see NewSubparseLevel's doc), so there is no
// intervening suspension point for a throw to unwind across.
type signal uint8

const (
	sigNone signal = iota
	sigBreak
	sigReject
	sigAccept
	sigBypass
)

// outcome is what matching one rule item (or a whole sequence of them)
// produced: success/failure, any unwinding signal, ACCEPT's carried
// value, and a hard error (an unbound variable, a malformed rule
// shape — distinct from an ordinary non-match).
type outcome struct {
	ok    bool
	sig   signal
	value cell.Cell
	err   error
}

func matched() outcome         { return outcome{ok: true} }
func failed() outcome          { return outcome{ok: false} }
func errOut(err error) outcome { return outcome{err: err} }

func ruleErr(msg string) error { return errors.New(errors.ParseRule, msg) }

// sliceSource is a feed.Source over [from, to) of an underlying array,
// letting matchAlternates hand each bar-separated alternative its own
// cursor without copying cells.
type sliceSource struct {
	arr      series.Array
	from, to int
}

func (s sliceSource) At(i int) cell.Cell { return s.arr.At(s.from + i) }
func (s sliceSource) Len() int           { return s.to - s.from }

func isBar(in *eval.Interp, c cell.Cell) bool {
	if c.Kind() != cell.KindWord || c.QuoteDepth() != 0 {
		return false
	}
	return in.Symbols.Spelling(symbol.ID(c.SymbolRef())) == barWord
}

// matchAlternates tries each "|"-delimited alternative in rules in
// turn against st.Input starting at st.Pos, resetting position between
// attempts (spec.md §4.7 "Alternates via bar-scanning"). The first
// alternative that matches (or signals) wins; if none do, position is
// restored to where matchAlternates started and a failure is reported.
func matchAlternates(in *eval.Interp, st *parseState, rules series.Array) outcome {
	start := st.Pos
	n := rules.Len()
	altStart := 0
	for altStart <= n {
		end := altStart
		for end < n && !isBar(in, rules.At(end)) {
			end++
		}
		st.Pos = start
		res := matchSeq(in, st, feed.New(sliceSource{rules, altStart, end}))
		if res.err != nil || res.sig != sigNone || res.ok {
			return res
		}
		if end >= n {
			break
		}
		altStart = end + 1
	}
	st.Pos = start
	return failed()
}

// matchSeq runs every item of one alternative in sequence, stopping at
// the first failure, error, or unwinding signal.
func matchSeq(in *eval.Interp, st *parseState, rules *feed.Feed) outcome {
	for {
		cur, ok := rules.At()
		if !ok {
			return matched()
		}
		rules.Advance()
		res := matchItem(in, st, rules, cur)
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if !res.ok {
			return failed()
		}
	}
}

// matchItem matches a single rule unit: item has already been read off
// rules, but keyword dispatch may itself pull further operand items
// from rules (spec.md §4.7's reserved keyword table).
func matchItem(in *eval.Interp, st *parseState, rules *feed.Feed, item cell.Cell) outcome {
	switch item.Kind() {
	case cell.KindGroup:
		return matchGroup(in, st, item)
	case cell.KindBlock:
		return matchAlternates(in, st, series.Array{A: in.Arena, Ref: item.SeriesRef()})
	case cell.KindSetWord:
		return matchCapture(in, st, rules, item)
	case cell.KindWord:
		if item.QuoteDepth() > 0 {
			return matchLiteralValue(st, item.Unquote())
		}
		return matchWord(in, st, rules, item)
	default:
		return matchLiteralValue(st, item)
	}
}

func matchLiteralValue(st *parseState, item cell.Cell) outcome {
	cur, ok := st.Peek()
	if !ok || !valuesEqual(cur, item) {
		return failed()
	}
	st.Advance()
	return matched()
}

func nextOperand(rules *feed.Feed) (cell.Cell, bool) {
	item, ok := rules.At()
	if !ok {
		return cell.Cell{}, false
	}
	rules.Advance()
	return item, true
}

// matchWord dispatches a plain word! rule item: a reserved keyword, or
// a variable whose bound value is either a nested rule-set (block!) or
// a literal value to match.
func matchWord(in *eval.Interp, st *parseState, rules *feed.Feed, item cell.Cell) outcome {
	sym := symbol.ID(item.SymbolRef())
	if kw, ok := keywordFor(in.Symbols, sym); ok {
		return dispatchKeyword(in, st, rules, kw)
	}
	val, ok := in.Lookup(st.Env, sym)
	if !ok {
		return errOut(errors.Newf(errors.ParseVariable, "unbound parse variable %q", in.Symbols.Spelling(sym)))
	}
	if val.Kind() == cell.KindBlock {
		return matchAlternates(in, st, series.Array{A: in.Arena, Ref: val.SeriesRef()})
	}
	return matchLiteralValue(st, val)
}

// matchCapture implements a SET-WORD (or LET) rule item: match the
// following single rule unit, then bind its consumed span to the
// word — one cell for a single-item match, a fresh block for a
// multi-item one, #[true] for a zero-width match (AHEAD, NOT, WHEN).
func matchCapture(in *eval.Interp, st *parseState, rules *feed.Feed, setw cell.Cell) outcome {
	nxt, ok := nextOperand(rules)
	if !ok {
		return errOut(ruleErr("set-word capture needs a following rule"))
	}
	before := st.Pos
	res := matchItem(in, st, rules, nxt)
	if res.err != nil || res.sig != sigNone {
		return res
	}
	if !res.ok {
		return failed()
	}
	sym := symbol.ID(setw.SymbolRef())
	var val cell.Cell
	switch st.Pos - before {
	case 0:
		val = cell.Logic(true)
	case 1:
		val = st.Input.At(before)
	default:
		val = captureBlock(in.Arena, st.Input.Slice(before, st.Pos))
	}
	in.Bind(st.Env, sym, val)
	return matched()
}

func matchGroup(in *eval.Interp, st *parseState, grp cell.Cell) outcome {
	if _, err := evalGroup(in, st, grp); err != nil {
		return errOut(err)
	}
	return matched()
}

// evalGroup runs an embedded GROUP!'s contents to completion on a
// fresh, short-lived local trampoline (see NewSubparseLevel's doc for
// why this stays synchronous rather than suspending the caller). It
// deliberately uses the raw level.NewTrampoline rather than
// in.NewTrampoline: this trampoline is nested synchronously inside an
// already-running outer step, and wiring the GC hook here would let a
// cycle collect while walking only this inner stack, missing the
// paused outer level still reachable from the Go call stack above it.
func evalGroup(in *eval.Interp, st *parseState, grp cell.Cell) (cell.Cell, error) {
	arr := series.Array{A: in.Arena, Ref: grp.SeriesRef()}
	f := feed.New(arr)
	var out cell.Cell
	root := in.NewEvaluatorLevel(f, st.Env, &out)
	tr := level.NewTrampoline(root)
	res, done, err := tr.Run()
	if err != nil {
		return cell.Cell{}, err
	}
	if !done {
		return cell.Cell{}, ruleErr("group evaluation did not complete")
	}
	return res, nil
}

func isTruthy(v cell.Cell) bool {
	switch v.Kind() {
	case cell.KindNulled, cell.KindVoid:
		return false
	case cell.KindLogic:
		return v.First.Raw != 0
	default:
		return true
	}
}

// ruleValue resolves an operand cell to a concrete value for INSERT/
// CHANGE: a GROUP! is evaluated, a plain variable word is looked up,
// anything else stands for itself.
func ruleValue(in *eval.Interp, st *parseState, item cell.Cell) (cell.Cell, error) {
	switch item.Kind() {
	case cell.KindGroup:
		return evalGroup(in, st, item)
	case cell.KindWord:
		if item.QuoteDepth() == 0 {
			sym := symbol.ID(item.SymbolRef())
			if _, isKw := keywordFor(in.Symbols, sym); !isKw {
				if v, ok := in.Lookup(st.Env, sym); ok {
					return v, nil
				}
			}
		}
	}
	return item, nil
}

// probeMatches is TO/THRU's lookahead test: a single literal value or
// variable rule checked against the current input position without
// consuming it. TO/THRU terminators are a single value probe, not a
// full sub-rule — see DESIGN.md.
func probeMatches(in *eval.Interp, st *parseState, op cell.Cell) bool {
	if op.Kind() == cell.KindWord && op.QuoteDepth() == 0 {
		sym := symbol.ID(op.SymbolRef())
		if _, isKw := keywordFor(in.Symbols, sym); !isKw {
			if v, ok := in.Lookup(st.Env, sym); ok {
				op = v
			}
		}
	}
	cur, ok := st.Peek()
	if !ok {
		return false
	}
	return valuesEqual(cur, op)
}

func repeatRange(in *eval.Interp, c cell.Cell) (min, max int, ok bool) {
	switch c.Kind() {
	case cell.KindInteger:
		n := int(c.AsInteger())
		return n, n, true
	case cell.KindBlock:
		arr := series.Array{A: in.Arena, Ref: c.SeriesRef()}
		if arr.Len() != 2 {
			return 0, 0, false
		}
		a0, a1 := arr.At(0), arr.At(1)
		if a0.Kind() != cell.KindInteger {
			return 0, 0, false
		}
		if a1.Kind() != cell.KindInteger {
			return int(a0.AsInteger()), -1, true
		}
		return int(a0.AsInteger()), int(a1.AsInteger()), true
	default:
		return 0, 0, false
	}
}

// dispatchKeyword runs one reserved dialect word, pulling whatever
// further operand items it needs from rules.
func dispatchKeyword(in *eval.Interp, st *parseState, rules *feed.Feed, kw Keyword) outcome {
	switch kw {
	case kwOne:
		if st.AtEnd() {
			return failed()
		}
		st.Advance()
		return matched()

	case kwSome:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("some needs an operand"))
		}
		n := 0
		for {
			before := st.Pos
			res := matchItem(in, st, rules, op)
			if res.err != nil {
				return res
			}
			if res.sig == sigBreak {
				break
			}
			if res.sig == sigReject {
				return failed()
			}
			if res.sig != sigNone {
				return res
			}
			if !res.ok {
				break
			}
			n++
			if st.Pos == before {
				break
			}
		}
		if n == 0 {
			return failed()
		}
		return matched()

	case kwOpt, kwOptional, kwTry:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("opt needs an operand"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		if res.err != nil {
			return res
		}
		if res.sig != sigNone && res.sig != sigReject {
			return res
		}
		if res.sig == sigReject || !res.ok {
			st.Pos = before
		}
		return matched()

	case kwRepeat:
		countItem, ok1 := rules.At()
		if ok1 {
			rules.Advance()
		}
		op, ok2 := nextOperand(rules)
		if !ok1 || !ok2 {
			return errOut(ruleErr("repeat needs a count and an operand"))
		}
		minN, maxN, ok := repeatRange(in, countItem)
		if !ok {
			return errOut(ruleErr("repeat needs an integer or [min max] count"))
		}
		n := 0
		for maxN < 0 || n < maxN {
			before := st.Pos
			res := matchItem(in, st, rules, op)
			if res.err != nil {
				return res
			}
			if res.sig == sigBreak {
				break
			}
			if res.sig == sigReject {
				if n < minN {
					return failed()
				}
				break
			}
			if res.sig != sigNone {
				return res
			}
			if !res.ok {
				break
			}
			n++
			if st.Pos == before {
				break
			}
		}
		if n < minN {
			return failed()
		}
		return matched()

	case kwFurther:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("further needs an operand"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if !res.ok || st.Pos == before {
			st.Pos = before
			return failed()
		}
		return matched()

	case kwLet:
		nameItem, ok := rules.At()
		if !ok || nameItem.Kind() != cell.KindWord {
			return errOut(ruleErr("let needs a word"))
		}
		rules.Advance()
		setw := nameItem
		setw.Header.Kind = cell.KindSetWord
		return matchCapture(in, st, rules, setw)

	case kwNot:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("not needs an operand"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		st.Pos = before
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if res.ok {
			return failed()
		}
		return matched()

	case kwAhead:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("ahead needs an operand"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		st.Pos = before
		return res

	case kwRemove:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("remove needs an operand"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if !res.ok {
			return failed()
		}
		count := st.Pos - before
		st.Input.Splice(before, count, nil)
		st.Pos = before
		return matched()

	case kwInsert:
		nxt, ok := rules.At()
		if !ok {
			return errOut(ruleErr("insert needs a value"))
		}
		rules.Advance()
		val, err := ruleValue(in, st, nxt)
		if err != nil {
			return errOut(err)
		}
		ins := spreadValue(in, val)
		st.Input.Splice(st.Pos, 0, ins)
		st.Pos += len(ins)
		return matched()

	case kwChange:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("change needs a rule"))
		}
		before := st.Pos
		res := matchItem(in, st, rules, op)
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if !res.ok {
			return failed()
		}
		count := st.Pos - before
		nxt, ok2 := rules.At()
		if !ok2 {
			return errOut(ruleErr("change needs a replacement value"))
		}
		rules.Advance()
		val, err := ruleValue(in, st, nxt)
		if err != nil {
			return errOut(err)
		}
		ins := spreadValue(in, val)
		st.Input.Splice(before, count, ins)
		st.Pos = before + len(ins)
		return matched()

	case kwWhen:
		grp, ok := rules.At()
		if !ok || grp.Kind() != cell.KindGroup {
			return errOut(ruleErr("when needs a group"))
		}
		rules.Advance()
		val, err := evalGroup(in, st, grp)
		if err != nil {
			return errOut(err)
		}
		if isTruthy(val) {
			return matched()
		}
		return failed()

	case kwAccept:
		val := cell.Logic(true)
		if nxt, ok := rules.At(); ok && nxt.Kind() == cell.KindGroup {
			rules.Advance()
			v, err := evalGroup(in, st, nxt)
			if err != nil {
				return errOut(err)
			}
			val = v
		}
		return outcome{ok: true, sig: sigAccept, value: val}

	case kwBreak:
		return outcome{ok: true, sig: sigBreak}

	case kwReject:
		return outcome{ok: false, sig: sigReject}

	case kwBypass:
		return outcome{ok: true, sig: sigBypass, value: cell.Logic(true)}

	case kwSeek:
		nxt, ok := rules.At()
		if !ok {
			return errOut(ruleErr("seek needs a position"))
		}
		rules.Advance()
		var idx int64
		switch nxt.Kind() {
		case cell.KindInteger:
			idx = nxt.AsInteger()
		case cell.KindGroup:
			v, err := evalGroup(in, st, nxt)
			if err != nil {
				return errOut(err)
			}
			idx = v.AsInteger()
		default:
			return errOut(ruleErr("seek needs an integer or a group"))
		}
		if idx < 0 || int(idx) > st.Input.Len() {
			return errOut(ruleErr("seek position out of range"))
		}
		st.Pos = int(idx)
		return matched()

	case kwTo, kwThru:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("to/thru needs an operand"))
		}
		for {
			if probeMatches(in, st, op) {
				if kw == kwThru {
					st.Advance()
				}
				return matched()
			}
			if st.AtEnd() {
				return failed()
			}
			st.Advance()
		}

	case kwThe:
		nxt, ok := rules.At()
		if !ok {
			return errOut(ruleErr("the needs an operand"))
		}
		rules.Advance()
		return matchLiteralValue(st, nxt)

	case kwInto:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("into needs a rule"))
		}
		cur, ok2 := st.Peek()
		if !ok2 || !cur.Kind().SeriesBacked() || cur.Kind() == cell.KindText || cur.Kind() == cell.KindBlob {
			return failed()
		}
		if op.Kind() != cell.KindBlock {
			return errOut(ruleErr("into's rule must be a block"))
		}
		sub := series.Array{A: in.Arena, Ref: cur.SeriesRef()}
		intoRules := series.Array{A: in.Arena, Ref: op.SeriesRef()}
		ok3, err := runInto(in, st, sub, intoRules)
		if err != nil {
			return errOut(err)
		}
		if !ok3 {
			return failed()
		}
		st.Advance()
		return matched()

	case kwCollect:
		op, ok := nextOperand(rules)
		if !ok {
			return errOut(ruleErr("collect needs a rule"))
		}
		buf := &[]cell.Cell{}
		st.Collect = append(st.Collect, buf)
		res := matchItem(in, st, rules, op)
		st.Collect = st.Collect[:len(st.Collect)-1]
		if res.err != nil {
			return res
		}
		if res.sig == sigAccept || res.sig == sigBypass || res.sig == sigBreak || res.sig == sigReject {
			return res
		}
		if !res.ok {
			return failed()
		}
		return outcome{ok: true, value: captureBlock(in.Arena, *buf)}

	case kwKeep:
		if len(st.Collect) == 0 {
			return errOut(ruleErr("keep used outside collect"))
		}
		nxt, ok := rules.At()
		if !ok {
			return errOut(ruleErr("keep needs a rule"))
		}
		rules.Advance()
		buf := st.Collect[len(st.Collect)-1]
		if nxt.Kind() == cell.KindGroup {
			v, err := evalGroup(in, st, nxt)
			if err != nil {
				return errOut(err)
			}
			*buf = append(*buf, v)
			return matched()
		}
		before := st.Pos
		res := matchItem(in, st, rules, nxt)
		if res.err != nil || res.sig != sigNone {
			return res
		}
		if !res.ok {
			return failed()
		}
		*buf = append(*buf, st.Input.Slice(before, st.Pos)...)
		return matched()

	default:
		return errOut(ruleErr("unimplemented parse keyword"))
	}
}

func spreadValue(in *eval.Interp, v cell.Cell) []cell.Cell {
	if v.Kind() == cell.KindBlock {
		arr := series.Array{A: in.Arena, Ref: v.SeriesRef()}
		return arr.Slice(0, arr.Len())
	}
	return []cell.Cell{v}
}

// runInto drives a fresh subparse level for an INTO target on its own
// short-lived local trampoline (see NewSubparseLevel's doc and
// evalGroup's note on why this is level.NewTrampoline, not
// in.NewTrampoline), requiring the nested rules to consume sub's
// entire content unless the outer match was opened with :relax.
func runInto(in *eval.Interp, st *parseState, sub, rules series.Array) (bool, error) {
	var out cell.Cell
	child, childSt := NewSubparseLevel(in, sub, rules, st.Env, &out)
	childSt.Relax = st.Relax
	tr := level.NewTrampoline(child)
	_, done, err := tr.Run()
	if err != nil {
		return false, err
	}
	if !done {
		return false, ruleErr("into did not complete")
	}
	if out.Kind() == cell.KindLogic && out.First.Raw == 0 {
		return false, nil
	}
	if !st.Relax && childSt.Pos < sub.Len() {
		return false, nil
	}
	return true, nil
}
