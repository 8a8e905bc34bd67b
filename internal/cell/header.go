package cell

// Flag bits live alongside the Kind and quote depth in a Cell's
// header. FlagMark is defined but nothing sets it: the garbage
// collector marks arena stubs (arena.Stub.Marked), not cells.
type Flag uint16

const (
	FlagAntiform Flag = 1 << iota
	FlagQuasi
	FlagNewlineBefore
	FlagMark
	FlagFirstIsNode
	FlagSecondIsNode
	FlagUnevaluated
	FlagProtected
	FlagTypechecked
)

// Header packs kind, quote depth, and flags. Quote depth is only
// meaningful when neither FlagAntiform nor FlagQuasi is set; an
// antiform or quasiform cell is always "depth 0" of its kind with the
// ladder position recorded by the flag instead.
type Header struct {
	Kind       Kind
	QuoteDepth uint8
	Flags      Flag
}

func (h Header) Has(f Flag) bool { return h.Flags&f != 0 }

func (h *Header) Set(f Flag)   { h.Flags |= f }
func (h *Header) Clear(f Flag) { h.Flags &^= f }

// IsAntiform reports whether the cell is in its unstable, list-illegal
// state (spec.md §3: "antiform cells must not appear inside ordinary
// lists").
func (h Header) IsAntiform() bool { return h.Flags&FlagAntiform != 0 }

// IsQuasi reports the stable, tilde-decorated rung just above antiform.
func (h Header) IsQuasi() bool { return h.Flags&FlagQuasi != 0 }

// IsPlain reports a cell at quote depth 0 that is neither antiform nor
// quasiform — an ordinary evaluated value.
func (h Header) IsPlain() bool {
	return h.QuoteDepth == 0 && !h.IsAntiform() && !h.IsQuasi()
}
