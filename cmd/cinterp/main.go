// cinterp is a thin reference driver over pkg/interp, pkg/lexer, and
// pkg/parser: it is not the interactive menu/sample catalog the teacher's
// cmd/console and cmd/desktop entry points wrap around their VM, just the
// minimum needed to run, inspect, and step a C source file from a
// terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"cinterp/pkg/interp"
	"cinterp/pkg/lexer"
	"cinterp/pkg/parser"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "repl":
		replCmd()
	case "tokens":
		tokensCmd(os.Args[2:])
	case "ast":
		astCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cinterp run|repl|tokens|ast <file.c>")
}

func runCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	res, err := interp.InterpretFile(context.Background(), args[0], nil)
	fmt.Print(res.Stdout)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Kind, d.Message)
	}
	if err != nil {
		os.Exit(1)
	}
	os.Exit(res.ExitCode)
}

// replCmd reads fragments line-by-line from stdin, feeding each one to a
// single persistent Context, printing its stdout delta and diagnostic (if
// any) before reading the next line.
func replCmd() {
	ctx := context.Background()
	c := interp.NewContext()
	defer c.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		step, err := c.ReplStep(ctx, line)
		fmt.Print(step.StdoutDelta)
		for _, d := range step.Diagnostics {
			fmt.Fprintf(os.Stderr, "%s: %s\n", d.Kind, d.Message)
		}
		if err != nil {
			continue
		}
	}
}

// tokensCmd dumps the lexer stage, matching the teacher's cmd/ccompiler
// "Tokens (%d)" listing.
func tokensCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}
	toks, err := lexer.Lex(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}
	fmt.Printf("Tokens (%d)\n", len(toks))
	for _, t := range toks {
		fmt.Println(" ", t)
	}
}

// astCmd dumps the parser stage, matching the teacher's cmd/ccompiler "AST"
// listing.
func astCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}
	toks, err := lexer.Lex(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}
	fmt.Printf("Globals (%d)\n", len(prog.Globals))
	for _, g := range prog.Globals {
		fmt.Printf("  %+v\n", g)
	}
	fmt.Printf("Funcs (%d)\n", len(prog.Funcs))
	for _, fn := range prog.Funcs {
		fmt.Printf("  %s\n", fn.Name)
	}
}
