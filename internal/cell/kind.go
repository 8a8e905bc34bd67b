// Package cell implements the fixed-size tagged value that every other
// package in rebcore passes around: the Cell. A Cell carries a kind
// ("heart"), a quote depth, an antiform/quasiform bit, GC and
// evaluation flags, and up to two node-reference payload slots plus an
// extra slot used for bindings or codepoints.
package cell

// Kind is the "heart" of a cell — the underlying type identity that
// persists across the quote/antiform ladder. The same Kind can appear
// at quote depth 0 (plain), depth N (quoted), or as an antiform/
// quasiform, but the Kind itself never changes across those rungs.
type Kind uint8

const (
	KindBlank Kind = iota
	KindLogic
	KindInteger
	KindDecimal
	KindMoney
	KindDate
	KindTime
	KindText
	KindBlob
	KindTag
	KindWord
	KindSetWord
	KindGetWord
	KindMetaWord
	KindTuple
	KindSetTuple
	KindGetTuple
	KindMetaTuple
	KindPath
	KindSetPath
	KindGetPath
	KindBlock
	KindSetBlock
	KindGroup
	KindMetaGroup
	KindMetaBlock
	KindBitset
	KindComma
	KindObject
	KindFrame
	KindModule
	KindError
	KindPort
	KindAction
	KindVoid
	KindNulled
	KindEnd
	kindCount
)

var kindNames = [kindCount]string{
	KindBlank:     "blank!",
	KindLogic:     "logic!",
	KindInteger:   "integer!",
	KindDecimal:   "decimal!",
	KindMoney:     "money!",
	KindDate:      "date!",
	KindTime:      "time!",
	KindText:      "text!",
	KindBlob:      "blob!",
	KindTag:       "tag!",
	KindWord:      "word!",
	KindSetWord:   "set-word!",
	KindGetWord:   "get-word!",
	KindMetaWord:  "meta-word!",
	KindTuple:     "tuple!",
	KindSetTuple:  "set-tuple!",
	KindGetTuple:  "get-tuple!",
	KindMetaTuple: "meta-tuple!",
	KindPath:      "path!",
	KindSetPath:   "set-path!",
	KindGetPath:   "get-path!",
	KindBlock:     "block!",
	KindSetBlock:  "set-block!",
	KindGroup:     "group!",
	KindMetaGroup: "meta-group!",
	KindMetaBlock: "meta-block!",
	KindBitset:    "bitset!",
	KindComma:     "comma!",
	KindObject:    "object!",
	KindFrame:     "frame!",
	KindModule:    "module!",
	KindError:     "error!",
	KindPort:      "port!",
	KindAction:    "action!",
	KindVoid:      "void!",
	KindNulled:    "nulled!",
	KindEnd:       "end!",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown!"
}

// Inert reports whether a plain (unquoted, non-antiform) cell of this
// kind evaluates to itself rather than being dispatched further by the
// stepper executor. See spec.md §4.3 "Inert kinds".
func (k Kind) Inert() bool {
	switch k {
	case KindInteger, KindDecimal, KindText, KindBlob, KindBlock, KindSetBlock,
		KindBitset, KindObject, KindError, KindDate, KindTime, KindMoney,
		KindLogic, KindBlank, KindTag, KindPort, KindComma:
		return true
	default:
		return false
	}
}

// Bindable reports whether cells of this kind carry a binding in Extra
// that the GC must mark and that word lookup resolves through.
func (k Kind) Bindable() bool {
	switch k {
	case KindWord, KindSetWord, KindGetWord, KindMetaWord,
		KindTuple, KindSetTuple, KindGetTuple, KindMetaTuple,
		KindPath, KindSetPath, KindGetPath,
		KindBlock, KindSetBlock, KindGroup, KindMetaGroup, KindMetaBlock:
		return true
	default:
		return false
	}
}

// SeriesBacked reports whether a plain cell of this kind holds an
// arena NodeRef in its First slot that the GC must trace into a Stub
// (internal/gc's mark phase). KindAction is deliberately excluded: its
// First slot is an index into Interp's Go-heap actionRefs table, not
// an arena handle, and KindWord-family cells likewise exclude this
// (their First slot is a symbol.ID, not a NodeRef — only their Extra
// binding is arena-backed, already covered by Bindable).
func (k Kind) SeriesBacked() bool {
	switch k {
	case KindText, KindBlob, KindTag, KindBitset,
		KindTuple, KindSetTuple, KindGetTuple, KindMetaTuple,
		KindPath, KindSetPath, KindGetPath,
		KindBlock, KindSetBlock, KindGroup, KindMetaGroup, KindMetaBlock,
		KindObject, KindFrame, KindModule, KindError, KindPort:
		return true
	default:
		return false
	}
}
