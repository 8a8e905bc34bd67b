// cmd/rebcore/main.go
package main

import (
	"fmt"
	"os"

	"rebcore/internal/arena"
	"rebcore/internal/config"
	"rebcore/internal/eval"
	"rebcore/internal/replshell"
	"rebcore/internal/scanner"
	"rebcore/internal/series"

	"rebcore/internal/parse"
)

const VERSION = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"e": "eval",
	"p": "parse",
	"v": "version",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		showVersion()
		return
	}

	switch cmd {
	case "repl", "run":
		runRepl()
	case "eval":
		runEval(args[1:])
	case "parse":
		runParse(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "rebcore: unknown command %q\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func newInterp() *eval.Interp {
	cfg, err := config.LoadOrDefault(".")
	if err != nil {
		cfg = config.Default()
	}
	return eval.New(arena.New(cfg.BallastStubs))
}

func runRepl() {
	in := newInterp()
	sh := replshell.New(in, os.Stdin, os.Stdout)
	sh.Run(os.Stdin.Fd())
}

func runEval(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: rebcore eval <source>")
		os.Exit(1)
	}
	in := newInterp()
	sh := replshell.New(in, os.Stdin, os.Stdout)
	v, err := sh.EvalLine(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "** %v\n", err)
		os.Exit(1)
	}
	fmt.Println(replshell.Render(in, v))
}

// runParse reads exactly two arguments, an input block source and a
// rules block source, and prints whether the rules matched.
func runParse(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: rebcore parse <input-block> <rules-block>")
		os.Exit(1)
	}
	in := newInterp()

	inputCell, err := scanner.Scan(in.Arena, in.Symbols, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "** %v\n", err)
		os.Exit(1)
	}
	rulesCell, err := scanner.Scan(in.Arena, in.Symbols, args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "** %v\n", err)
		os.Exit(1)
	}

	inputArr := series.Array{A: in.Arena, Ref: inputCell.SeriesRef()}
	rulesArr := series.Array{A: in.Arena, Ref: rulesCell.SeriesRef()}

	res, err := parse.Run(in, inputArr, rulesArr, in.Globals, false, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "** %v\n", err)
		os.Exit(1)
	}
	fmt.Println(replshell.Render(in, res))
}

func showVersion() {
	fmt.Printf("rebcore %s\n", VERSION)
}

func showUsage() {
	fmt.Println(`rebcore - a homoiconic symbolic interpreter core

Usage:
  rebcore repl               start an interactive session
  rebcore eval <source>      evaluate one block of source and print the result
  rebcore parse <in> <rules> run the parse dialect over <in> with <rules>
  rebcore version            print the version

Aliases: r=run, i=repl, e=eval, p=parse, v=version`)
}
