package replshell

import (
	"strconv"
	"strings"

	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/series"
	"rebcore/internal/symbol"
)

// Render formats v the way the shell prints a result line: close
// enough to a mold for the literal kinds scanner.Scan can produce,
// not a general-purpose printer for every cell kind the runtime knows
// about (objects, actions, errors print by their Kind name only).
func Render(in *eval.Interp, v cell.Cell) string {
	switch v.Kind() {
	case cell.KindLogic:
		if v.AsInteger() != 0 {
			return "true"
		}
		return "false"
	case cell.KindInteger:
		return strconv.FormatInt(v.AsInteger(), 10)
	case cell.KindDecimal:
		return strconv.FormatFloat(v.AsDecimal(), 'g', -1, 64)
	case cell.KindWord, cell.KindSetWord, cell.KindGetWord:
		spelling := in.Symbols.Spelling(symbol.ID(v.SymbolRef()))
		switch v.Kind() {
		case cell.KindSetWord:
			return spelling + ":"
		case cell.KindGetWord:
			return ":" + spelling
		default:
			return spelling
		}
	case cell.KindBlock:
		return "[" + renderItems(in, v) + "]"
	case cell.KindGroup:
		return "(" + renderItems(in, v) + ")"
	case cell.KindNulled:
		return "~null~"
	case cell.KindVoid:
		return ""
	default:
		return v.Kind().String()
	}
}

func renderItems(in *eval.Interp, v cell.Cell) string {
	arr := series.Array{A: in.Arena, Ref: v.SeriesRef()}
	parts := make([]string, arr.Len())
	for i := range parts {
		parts[i] = Render(in, arr.At(i))
	}
	return strings.Join(parts, " ")
}
