// Package interp implements the driver-facing Context API: the single
// mutable object one interpretation run owns, grounded on the teacher's
// cpu.CPU (the one mutable value threaded through every executed
// instruction) but generalised from a register-VM run loop to a
// tree-walking one. A Context serializes access to itself with a
// golang.org/x/sync/semaphore.Weighted(1): when two goroutines call
// ReplStep concurrently on the same context, the second waits until the
// first finishes rather than corrupting state (spec.md §5's "concurrent
// interpretations require independent contexts").
package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/semaphore"

	"cinterp/pkg/diag"
	"cinterp/pkg/eval"
	"cinterp/pkg/lexer"
	"cinterp/pkg/parser"
)

// Result is the outcome of a complete interpret() call (spec.md §6).
type Result struct {
	ExitCode    int
	Stdout      string
	Diagnostics []diag.Diagnostic
}

// StepResult is the outcome of one ReplStep call (spec.md §6).
type StepResult struct {
	StdoutDelta string
	Diagnostics []diag.Diagnostic
}

// Context owns one run's environment, memory, function table, and output
// sink. It is exclusive to one interpretation at a time.
type Context struct {
	interp *eval.Interp
	buf    *bytes.Buffer
	sem    *semaphore.Weighted
}

// NewContext creates an empty, ready-to-use interpretation context.
func NewContext() *Context {
	buf := &bytes.Buffer{}
	return &Context{
		interp: eval.New(buf),
		buf:    buf,
		sem:    semaphore.NewWeighted(1),
	}
}

// Close releases the context. A Context is not reusable after Close.
func (c *Context) Close() {
	c.interp = nil
	c.buf = nil
}

func diagFromError(err error) diag.Diagnostic {
	if d, ok := err.(*diag.Diagnostic); ok {
		return *d
	}
	return diag.Diagnostic{Kind: diag.KindRuntimeError, Message: err.Error()}
}

// Interpret runs source to completion in a fresh Context and returns its
// result, matching spec.md §6's interpret(source, stdin_text?).
func Interpret(ctx context.Context, source string, stdin io.Reader) (Result, error) {
	c := NewContext()
	defer c.Close()
	return c.run(ctx, source)
}

// InterpretFile reads path and interprets its contents, matching spec.md
// §6's interpret_file(path). Reading the file itself is the only file-
// system touch this package makes; the richer file-loading/catalog
// concerns spec.md §1 places out of scope remain the driver's job.
func InterpretFile(ctx context.Context, path string, stdin io.Reader) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Interpret(ctx, string(data), stdin)
}

func (c *Context) run(ctx context.Context, source string) (Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		d := diag.FromRuntimeError(diag.ErrInterrupted, 0, 0)
		return Result{Diagnostics: []diag.Diagnostic{*d}}, d
	}
	defer c.sem.Release(1)

	tokens, err := lexer.Lex(source)
	if err != nil {
		d := diagFromError(err)
		return Result{Diagnostics: []diag.Diagnostic{d}}, err
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		d := diagFromError(err)
		return Result{Diagnostics: []diag.Diagnostic{d}}, err
	}

	if err := c.interp.Load(prog); err != nil {
		d := diagFromError(err)
		return Result{Stdout: c.buf.String(), Diagnostics: []diag.Diagnostic{d}}, err
	}

	exitCode, err := c.interp.RunMain(ctx)
	if err != nil {
		d := diagFromError(err)
		return Result{ExitCode: -1, Stdout: c.buf.String(), Diagnostics: []diag.Diagnostic{d}}, err
	}

	diags := leakDiagnostics(c.interp)
	return Result{ExitCode: exitCode, Stdout: c.buf.String(), Diagnostics: diags}, nil
}

func leakDiagnostics(i *eval.Interp) []diag.Diagnostic {
	leaked := i.Heap.LeakedBlocks()
	if len(leaked) == 0 {
		return nil
	}
	var msgs []string
	for _, addr := range leaked {
		msgs = append(msgs, fmt.Sprintf("0x%x", addr))
	}
	return []diag.Diagnostic{{
		Kind:    diag.KindLeakWarning,
		Message: "unfreed allocations at exit: " + strings.Join(msgs, ", "),
	}}
}

// ReplStep parses fragment in permissive top-level mode (a declaration, a
// statement, or a bare expression) and executes it against the
// persistent context, matching spec.md §6's repl_step. A fragment that
// fails to lex or parse leaves the context unchanged. A fragment that fails
// while executing keeps every effect it made before the failure (bindings
// declared, memory written, output printed); none of it is rolled back.
func (c *Context) ReplStep(ctx context.Context, fragment string) (StepResult, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return StepResult{}, diag.FromRuntimeError(diag.ErrInterrupted, 0, 0)
	}
	defer c.sem.Release(1)

	before := c.buf.Len()

	tokens, err := lexer.Lex(fragment)
	if err != nil {
		d := diagFromError(err)
		return StepResult{Diagnostics: []diag.Diagnostic{d}}, err
	}

	frag, err := parser.ParseFragment(tokens)
	if err != nil {
		d := diagFromError(err)
		return StepResult{Diagnostics: []diag.Diagnostic{d}}, err
	}

	err = c.interp.ExecFragment(ctx, frag)
	delta := c.buf.String()[before:]
	if err != nil {
		d := diagFromError(err)
		return StepResult{StdoutDelta: delta, Diagnostics: []diag.Diagnostic{d}}, err
	}
	return StepResult{StdoutDelta: delta}, nil
}
