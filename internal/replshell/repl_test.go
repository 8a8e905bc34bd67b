package replshell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rebcore/internal/arena"
	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/level"
	"rebcore/internal/series"
)

func newTestInterp() *eval.Interp {
	return eval.New(arena.New(4096))
}

func TestEvalLineReturnsLastValue(t *testing.T) {
	in := newTestInterp()
	sh := New(in, strings.NewReader(""), &bytes.Buffer{})

	v, err := sh.EvalLine("1 2 3")
	require.NoError(t, err)
	require.Equal(t, int64(3), v.AsInteger())
}

func TestEvalLineBindsSetWordsIntoGlobals(t *testing.T) {
	in := newTestInterp()
	sh := New(in, strings.NewReader(""), &bytes.Buffer{})

	_, err := sh.EvalLine("x: 41")
	require.NoError(t, err)

	id, ok := in.Symbols.Lookup("x")
	require.True(t, ok)
	val, ok := in.Globals.Get(id)
	require.True(t, ok)
	require.Equal(t, int64(41), val.AsInteger())
}

func TestEvalLineReportsScanError(t *testing.T) {
	in := newTestInterp()
	sh := New(in, strings.NewReader(""), &bytes.Buffer{})

	_, err := sh.EvalLine("[1 2")
	require.Error(t, err)
}

func TestRunPrintsResultsAndStopsOnExit(t *testing.T) {
	in := newTestInterp()
	input := strings.NewReader("1 + 1\nexit\nshould-not-run\n")
	var out bytes.Buffer
	sh := New(in, input, &out)

	defineAdd(t, in)
	sh.Run(^uintptr(0))

	require.Contains(t, out.String(), "2")
	require.NotContains(t, out.String(), "should-not-run")
}

func TestRunStopsAtEOF(t *testing.T) {
	in := newTestInterp()
	input := strings.NewReader("1\n2\n")
	var out bytes.Buffer
	sh := New(in, input, &out)

	sh.Run(^uintptr(0))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{"1", "2"}, lines)
}

func TestRunPrintsCaretUnderScanErrorColumn(t *testing.T) {
	in := newTestInterp()
	input := strings.NewReader("[1 2\n")
	var out bytes.Buffer
	sh := New(in, input, &out)

	sh.Run(^uintptr(0))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "**")
	require.Equal(t, "    ^", lines[1])
}

func TestRenderFormatsNestedBlocks(t *testing.T) {
	in := newTestInterp()
	sh := New(in, strings.NewReader(""), &bytes.Buffer{})

	v, err := sh.EvalLine("[1 foo (2 3)]")
	require.NoError(t, err)
	require.Equal(t, cell.KindBlock, v.Kind())
	require.Equal(t, "[1 foo (2 3)]", Render(in, v))
}

// defineAdd wires a minimal "+" infix action so TestRunPrintsResultsAndStopsOnExit
// can exercise evaluation beyond literal-block last-value semantics.
func defineAdd(t *testing.T, in *eval.Interp) {
	t.Helper()
	in.DefineAction("+", &eval.Action{
		Infix: true,
		Params: []eval.Param{
			{Name: "a", Class: eval.ParamNormal},
			{Name: "b", Class: eval.ParamNormal},
		},
		Dispatch: func(inr *eval.Interp, lvl *level.Level, env *series.Context, args []cell.Cell) level.Bounce {
			*lvl.Out = cell.Integer(args[0].AsInteger() + args[1].AsInteger())
			return level.Out()
		},
	})
}
