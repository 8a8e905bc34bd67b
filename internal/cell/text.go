package cell

import "golang.org/x/text/width"

// DisplayWidth estimates how many terminal columns r occupies, used by
// the REPL when aligning the caret under a scanner error's column in
// the source line.
func DisplayWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
