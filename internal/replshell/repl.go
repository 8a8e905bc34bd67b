// Package replshell is rebcore's interactive top-level loop: read a
// line, scan it to a block! of cells, run it to completion on a fresh
// trampoline, print the result. It mirrors the teacher's
// internal/repl.Start shape (bufio.Scanner over stdin, one fresh run
// per line) with the lex/parse/compile/VM pipeline replaced by
// scanner.Scan feeding eval.Interp directly.
package replshell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"rebcore/internal/cell"
	"rebcore/internal/eval"
	"rebcore/internal/feed"
	"rebcore/internal/scanner"
	"rebcore/internal/series"
)

// Shell drives one interactive session against an *eval.Interp.
type Shell struct {
	In     *eval.Interp
	Input  io.Reader
	Output io.Writer
}

// New wraps in as an interactive shell reading from r and writing to w.
func New(in *eval.Interp, r io.Reader, w io.Writer) *Shell {
	return &Shell{In: in, Input: r, Output: w}
}

// Run reads lines from sh.Input until EOF or an "exit"/"quit" line,
// evaluating each and printing its result or error to sh.Output. It
// prompts only when isatty reports Input is a real terminal.
func (sh *Shell) Run(promptFD uintptr) {
	interactive := isatty.IsTerminal(promptFD) || isatty.IsCygwinTerminal(promptFD)
	scan := bufio.NewScanner(sh.Input)

	for {
		if interactive {
			fmt.Fprint(sh.Output, ">> ")
		}
		if !scan.Scan() {
			return
		}
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		res, err := sh.EvalLine(line)
		if err != nil {
			fmt.Fprintf(sh.Output, "** %v\n", err)
			if se, ok := err.(*scanner.Error); ok {
				fmt.Fprintln(sh.Output, caretLine(line, se.Pos))
			}
			continue
		}
		fmt.Fprintln(sh.Output, Render(sh.In, res))
	}
}

// caretLine renders a line of spaces with a single "^" under the
// rune at byte offset pos in line, so a scanner error's column lines
// up under the source even when earlier runes (e.g. East Asian wide
// characters) occupy more than one terminal column each.
func caretLine(line string, pos int) string {
	var sb strings.Builder
	for i, r := range line {
		if i >= pos {
			break
		}
		sb.WriteString(strings.Repeat(" ", cell.DisplayWidth(r)))
	}
	sb.WriteByte('^')
	return sb.String()
}

// EvalLine scans src as one block! and runs it to completion against
// sh.In.Globals on a fresh trampoline, returning the last value
// produced.
func (sh *Shell) EvalLine(src string) (cell.Cell, error) {
	program, err := scanner.Scan(sh.In.Arena, sh.In.Symbols, src)
	if err != nil {
		return cell.Cell{}, err
	}

	arr := series.Array{A: sh.In.Arena, Ref: program.SeriesRef()}
	f := feed.New(arr)
	var out cell.Cell
	root := sh.In.NewEvaluatorLevel(f, sh.In.Globals, &out)
	tr := sh.In.NewTrampoline(root)
	res, done, err := tr.Run()
	if err != nil {
		return cell.Cell{}, err
	}
	if !done {
		return cell.Cell{}, fmt.Errorf("replshell: evaluation did not complete")
	}
	return res, nil
}
