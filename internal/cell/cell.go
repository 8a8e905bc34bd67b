package cell

import "math"

// NodeRef is a handle into whatever arena owns the referenced node
// (array, pairing, or context varlist/keylist). Zero is the nil
// handle. Cells never hold raw pointers: an arena + integer handle
// sidesteps the GC having
// to reason about pointer identity inside cyclic binding chains.
type NodeRef uint32

// Slot is one of a cell's two payload words. Exactly one of Node/Raw
// is meaningful at a time, selected by the owning cell's
// FlagFirstIsNode/FlagSecondIsNode bits.
type Slot struct {
	Node NodeRef
	Raw  uint64
}

// Cell is the fixed-shape tagged value described in spec.md §3. It is
// a plain value type: no heap identity of its own. Copying a Cell by
// value is always safe; ownership lives in whatever array/context the
// cell sits inside.
type Cell struct {
	Header Header
	First  Slot
	Second Slot
	Extra  int64 // binding NodeRef or codepoint, depending on Kind
}

// Erase resets c to the "prepared uninitialized" state: blank kind,
// zero depth, no flags, zeroed payload. Levels erase their spare and
// scratch cells before reuse so stale node references never leak past
// a GC-visible slot boundary (spec.md §5 "GC and mutators").
func (c *Cell) Erase() {
	*c = Cell{}
}

// Clone returns an independent copy of c. Because Cell has no pointer
// fields, a plain value copy already satisfies spec.md's "clone by
// value" operation; Clone exists so call sites read as an intentional
// cell operation rather than an implicit copy.
func (c Cell) Clone() Cell { return c }

// MaskCopy copies src into c's payload and kind while preserving the
// subset of dst's flags named by keep. Used when rebinding a cell in
// place without disturbing caller-owned bits such as
// FlagNewlineBefore.
func (dst *Cell) MaskCopy(src Cell, keep Flag) {
	preserved := dst.Header.Flags & keep
	*dst = src
	dst.Header.Flags = (dst.Header.Flags &^ keep) | preserved
}

// Kind reports the cell's heart, stable across the quote/antiform
// ladder.
func (c Cell) Kind() Kind { return c.Header.Kind }

// QuoteDepth reports how many times the cell has been quoted. Zero
// for plain, antiform, and quasiform cells.
func (c Cell) QuoteDepth() uint8 { return c.Header.QuoteDepth }

func (c Cell) IsAntiform() bool { return c.Header.IsAntiform() }
func (c Cell) IsQuasi() bool    { return c.Header.IsQuasi() }
func (c Cell) IsPlain() bool    { return c.Header.IsPlain() }

// MarkTypechecked stamps the cell as having already passed an action
// parameter's type predicate, so a later typechecking pass (spec.md
// §4.4) can skip re-testing it.
func (c *Cell) MarkTypechecked() { c.Header.Set(FlagTypechecked) }
func (c Cell) Typechecked() bool { return c.Header.Has(FlagTypechecked) }

// --- quote ladder -----------------------------------------------------

// Quote increments the cell's quote depth by one, producing the next
// rung up the ladder. Antiform and quasiform cells cannot be quoted
// directly; callers go through Meta first.
func (c Cell) Quote() Cell {
	c.Header.QuoteDepth++
	c.Header.Clear(FlagUnevaluated)
	return c
}

// Unquote decrements the cell's quote depth by one. Calling Unquote on
// a cell at depth 0 is a caller error (checked by the stepper before
// dispatch, per spec.md §4.3 "Quoted cells decrement the quote depth
// by one").
func (c Cell) Unquote() Cell {
	if c.Header.QuoteDepth == 0 {
		panic("cell: Unquote of depth-0 cell")
	}
	c.Header.QuoteDepth--
	return c
}

// Meta raises a cell one rung: antiform becomes quasiform of the same
// kind; any other cell (plain or already quoted) has its quote depth
// incremented. This is the single operation spec.md's GLOSSARY defines
// for "Meta".
func (c Cell) Meta() Cell {
	if c.Header.IsAntiform() {
		c.Header.Clear(FlagAntiform)
		c.Header.Set(FlagQuasi)
		return c
	}
	c.Header.QuoteDepth++
	return c
}

// Unmeta is Meta's inverse: quasiform becomes antiform; quoted(N>0)
// becomes quoted(N-1); a plain (depth 0, non-quasi) cell has no valid
// Unmeta and ok is false.
func (c Cell) Unmeta() (result Cell, ok bool) {
	switch {
	case c.Header.IsQuasi():
		c.Header.Clear(FlagQuasi)
		c.Header.Set(FlagAntiform)
		return c, true
	case c.Header.QuoteDepth > 0:
		c.Header.QuoteDepth--
		return c, true
	default:
		return c, false
	}
}

// --- constructors -------------------------------------------------------

func Blank() Cell {
	return Cell{Header: Header{Kind: KindBlank, Flags: FlagUnevaluated}}
}

func End() Cell {
	return Cell{Header: Header{Kind: KindEnd}}
}

func Void() Cell {
	return Cell{Header: Header{Kind: KindVoid, Flags: FlagAntiform}}
}

func Nulled() Cell {
	return Cell{Header: Header{Kind: KindNulled, Flags: FlagAntiform}}
}

func Logic(b bool) Cell {
	var raw uint64
	if b {
		raw = 1
	}
	return Cell{Header: Header{Kind: KindLogic, Flags: FlagAntiform}, First: Slot{Raw: raw}}
}

func Integer(n int64) Cell {
	return Cell{Header: Header{Kind: KindInteger, Flags: FlagUnevaluated}, First: Slot{Raw: uint64(n)}}
}

func (c Cell) AsInteger() int64 { return int64(c.First.Raw) }

func Decimal(f float64) Cell {
	return Cell{Header: Header{Kind: KindDecimal, Flags: FlagUnevaluated}, First: Slot{Raw: math.Float64bits(f)}}
}

func (c Cell) AsDecimal() float64 { return math.Float64frombits(c.First.Raw) }

// Comma is the expression-barrier cell (spec.md §4.3).
func Comma() Cell {
	return Cell{Header: Header{Kind: KindComma, Flags: FlagUnevaluated}}
}

// Word builds an unbound word cell of the given sub-kind (word!,
// set-word!, get-word!, meta-word!, ...) referencing symbol sym and,
// once resolved, binding ref.
func Word(k Kind, sym NodeRef, binding NodeRef) Cell {
	return Cell{
		Header: Header{Kind: k, Flags: FlagFirstIsNode},
		First:  Slot{Node: sym},
		Extra:  int64(binding),
	}
}

func (c Cell) SymbolRef() NodeRef  { return c.First.Node }
func (c Cell) BindingRef() NodeRef { return NodeRef(c.Extra) }

func (c *Cell) SetBinding(b NodeRef) { c.Extra = int64(b) }

// Series builds a cell referencing an array/keylist/varlist node (a
// block!, group!, object!, etc.) by handle.
func Series(k Kind, node NodeRef) Cell {
	return Cell{Header: Header{Kind: k, Flags: FlagFirstIsNode}, First: Slot{Node: node}}
}

func (c Cell) SeriesRef() NodeRef { return c.First.Node }

// Text builds a text! cell referencing a rune-array node.
func Text(node NodeRef) Cell {
	return Series(KindText, node)
}
