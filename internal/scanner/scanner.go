// Package scanner turns source text typed at a REPL or passed on a
// command line into cells, the way rebcore's own LOAD would if the
// dialect grew one. It is a small recursive-descent reader rather than
// a separate lexer+parser pair: block!/group! nesting in this syntax
// is the grammar, so a single pass that builds the nested Array as it
// goes (grounded on the teacher's internal/lexer/scanner.go char-class
// helpers, restructured around that nesting instead of a flat token
// stream) is the natural shape.
//
// Only the literal forms spec.md's cell model can represent without a
// text/string series store are recognized: word!, set-word!, get-word!,
// integer!, decimal!, logic!, block!, and group!. There is no string!
// literal syntax here, matching internal/series having no text/string
// backing store (only Array and Context) — quoting source text would
// have nowhere to live.
package scanner

import (
	"fmt"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

type reader struct {
	a       *arena.Arena
	symbols *symbol.Table
	src     string
	pos     int
}

// Error is a scan failure located at a byte offset into the source,
// letting a caller (replshell's Run loop) render a caret under the
// offending column rather than just printing a message.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func newError(pos int, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Scan reads src as a single top-level block! and returns it as a
// cell, the unit a REPL feeds straight into eval.Interp.NewEvaluatorLevel.
func Scan(a *arena.Arena, symbols *symbol.Table, src string) (cell.Cell, error) {
	r := &reader{a: a, symbols: symbols, src: src}
	cells, err := r.readSequence(0)
	if err != nil {
		return cell.Cell{}, err
	}
	if !r.atEnd() {
		return cell.Cell{}, newError(r.pos, "scanner: unexpected %q", r.peek())
	}
	arr := series.FromSlice(r.a, arena.FlavorPlainList, cells)
	return cell.Series(cell.KindBlock, arr.Ref), nil
}

// readSequence reads items up to a matching close (or end of input at
// depth 0), recursing into readOne for each item.
func (r *reader) readSequence(depth int) ([]cell.Cell, error) {
	var out []cell.Cell
	for {
		r.skipSpaceAndComments()
		if r.atEnd() {
			if depth > 0 {
				return nil, newError(r.pos, "scanner: unterminated block or group")
			}
			return out, nil
		}
		c := r.peek()
		if c == ']' || c == ')' {
			if depth == 0 {
				return nil, newError(r.pos, "scanner: unexpected %q", c)
			}
			return out, nil
		}
		v, err := r.readOne()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (r *reader) readOne() (cell.Cell, error) {
	c := r.peek()
	switch {
	case c == '[':
		r.advance()
		items, err := r.readSequence(1)
		if err != nil {
			return cell.Cell{}, err
		}
		if r.atEnd() || r.peek() != ']' {
			return cell.Cell{}, newError(r.pos, "scanner: expected ']'")
		}
		r.advance()
		arr := series.FromSlice(r.a, arena.FlavorPlainList, items)
		return cell.Series(cell.KindBlock, arr.Ref), nil

	case c == '(':
		r.advance()
		items, err := r.readSequence(1)
		if err != nil {
			return cell.Cell{}, err
		}
		if r.atEnd() || r.peek() != ')' {
			return cell.Cell{}, newError(r.pos, "scanner: expected ')'")
		}
		r.advance()
		arr := series.FromSlice(r.a, arena.FlavorPlainList, items)
		return cell.Series(cell.KindGroup, arr.Ref), nil

	case c == ']' || c == ')':
		return cell.Cell{}, newError(r.pos, "scanner: unexpected %q", c)

	case isDigit(c) || ((c == '-' || c == '+') && r.hasDigitNext()):
		return r.readNumber()

	case isWordStart(c):
		return r.readWordLike()

	default:
		return cell.Cell{}, newError(r.pos, "scanner: unexpected character %q", c)
	}
}

func (r *reader) readNumber() (cell.Cell, error) {
	start := r.pos
	if r.peek() == '-' || r.peek() == '+' {
		r.advance()
	}
	for !r.atEnd() && isDigit(r.peek()) {
		r.advance()
	}
	isDecimal := false
	if !r.atEnd() && r.peek() == '.' && r.hasDigitAt(r.pos+1) {
		isDecimal = true
		r.advance()
		for !r.atEnd() && isDigit(r.peek()) {
			r.advance()
		}
	}
	text := r.src[start:r.pos]
	if isDecimal {
		var f float64
		if _, err := fmt.Sscanf(text, "%g", &f); err != nil {
			return cell.Cell{}, newError(start, "scanner: invalid decimal %q", text)
		}
		return cell.Decimal(f), nil
	}
	var n int64
	if _, err := fmt.Sscanf(text, "%d", &n); err != nil {
		return cell.Cell{}, newError(start, "scanner: invalid integer %q", text)
	}
	return cell.Integer(n), nil
}

// readWordLike reads an identifier-shaped run and classifies it as
// true/false logic!, a set-word! (trailing ':'), a get-word! (leading
// ':'), or a plain word!.
func (r *reader) readWordLike() (cell.Cell, error) {
	if r.peek() == ':' {
		r.advance()
		spelling, err := r.readWordBody()
		if err != nil {
			return cell.Cell{}, err
		}
		id := r.symbols.Intern(spelling)
		return cell.Word(cell.KindGetWord, cell.NodeRef(id), 0), nil
	}

	spelling, err := r.readWordBody()
	if err != nil {
		return cell.Cell{}, err
	}
	if !r.atEnd() && r.peek() == ':' {
		r.advance()
		id := r.symbols.Intern(spelling)
		return cell.Word(cell.KindSetWord, cell.NodeRef(id), 0), nil
	}

	switch spelling {
	case "true":
		return cell.Logic(true), nil
	case "false":
		return cell.Logic(false), nil
	}
	id := r.symbols.Intern(spelling)
	return cell.Word(cell.KindWord, cell.NodeRef(id), 0), nil
}

func (r *reader) readWordBody() (string, error) {
	start := r.pos
	for !r.atEnd() && isWordChar(r.peek()) {
		r.advance()
	}
	if r.pos == start {
		return "", newError(start, "scanner: empty word")
	}
	return r.src[start:r.pos], nil
}

func (r *reader) skipSpaceAndComments() {
	for !r.atEnd() {
		c := r.peek()
		if c == ';' {
			for !r.atEnd() && r.peek() != '\n' {
				r.advance()
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			r.advance()
			continue
		}
		return
	}
}

func (r *reader) atEnd() bool        { return r.pos >= len(r.src) }
func (r *reader) peek() byte        { return r.src[r.pos] }
func (r *reader) advance()          { r.pos++ }

func (r *reader) hasDigitNext() bool { return r.hasDigitAt(r.pos + 1) }

func (r *reader) hasDigitAt(i int) bool {
	return i < len(r.src) && isDigit(r.src[i])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordStart(c byte) bool {
	return isAlpha(c) || strchr("+-*/=<>?!&|~^.:_", c)
}

func isWordChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || strchr("+-*/=<>?!&|~^._", c)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func strchr(set string, c byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}
	return false
}
