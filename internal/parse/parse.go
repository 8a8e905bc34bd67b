// Package parse implements the dialect engine spec.md §4.7 describes:
// a re-entrant, backtracking matcher over a series of rule cells
// applied against a series of input cells, generalizing the teacher's
// one-pass recursive-descent parser.Parser into a data-driven matcher
// whose grammar is itself an ordinary block! value rather than a
// token grammar baked into Go control flow.
//
// Input is a plain list (block!/group!-backed series.Array); text!/
// blob! input is not implemented — series.Array is rebcore's only
// series backing store so far (see DESIGN.md).
package parse

import "rebcore/internal/symbol"

// Keyword identifies one of the dialect's reserved rule words. A word
// rule item that does not name a keyword is instead looked up as a
// variable (spec.md §4.7's "rule values fetched through variables").
type Keyword uint8

const (
	kwNone Keyword = iota
	kwSome
	kwOpt
	kwOptional
	kwTry
	kwRepeat
	kwFurther
	kwLet
	kwNot
	kwAhead
	kwRemove
	kwInsert
	kwChange
	kwWhen
	kwAccept
	kwBreak
	kwReject
	kwBypass
	kwSeek
	kwOne
	kwTo
	kwThru
	kwThe
	kwInto
	kwCollect
	kwKeep
)

var keywordSpellings = map[string]Keyword{
	"some":     kwSome,
	"opt":      kwOpt,
	"optional": kwOptional,
	"try":      kwTry,
	"repeat":   kwRepeat,
	"further":  kwFurther,
	"let":      kwLet,
	"not":      kwNot,
	"ahead":    kwAhead,
	"remove":   kwRemove,
	"insert":   kwInsert,
	"change":   kwChange,
	"when":     kwWhen,
	"accept":   kwAccept,
	"break":    kwBreak,
	"reject":   kwReject,
	"bypass":   kwBypass,
	"seek":     kwSeek,
	"one":      kwOne,
	"to":       kwTo,
	"thru":     kwThru,
	"the":      kwThe,
	"into":     kwInto,
	"collect":  kwCollect,
	"keep":     kwKeep,
}

// keywordFor reports whether sym's spelling names a reserved dialect
// word, without interning anything new.
func keywordFor(syms *symbol.Table, sym symbol.ID) (Keyword, bool) {
	kw, ok := keywordSpellings[syms.Spelling(sym)]
	return kw, ok
}

// barWord is the alternate-rule separator "|": an ordinary word! in
// rebcore's symbol table (bar! was folded into word! upstream, and
// rebcore never gave it a distinct Kind either).
const barWord = "|"
