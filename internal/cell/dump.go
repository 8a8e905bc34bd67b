package cell

import (
	"fmt"

	"github.com/kr/pretty"
)

// Dump renders a cell's full internal state for debug logging and
// test failure messages. Plain fmt.Sprintf("%#v") is not useful here
// because Header/Slot nesting reads poorly; kr/pretty formats the
// struct tree with field names and indentation instead.
func Dump(c Cell) string {
	return fmt.Sprintf("%s %# v", c.Kind(), pretty.Formatter(c))
}
