// Package eval implements the tree-walking evaluator: the component that
// consults env and memory while walking an ast.Program, dispatching to
// builtins on native calls, via a per-node type switch.
package eval

import (
	"context"
	"io"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/env"
	"cinterp/pkg/memory"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// DefaultHeapSize is the simulated heap's total byte capacity.
const DefaultHeapSize = 1 << 24

// Interp holds all mutable state for one interpretation: the heap,
// globals/function table, output sink, and the active call-frame stack:
// one mutable struct threaded through every node the evaluator visits.
type Interp struct {
	Heap     *memory.Heap
	Globals  *env.Globals
	Out      io.Writer
	Frames   []*env.Frame
	strings  map[string]int64
	topFrame *env.Frame
}

// New creates an Interp with a fresh heap and globals, writing program
// output to out.
func New(out io.Writer) *Interp {
	return &Interp{
		Heap:    memory.New(DefaultHeapSize),
		Globals: env.NewGlobals(),
		Out:     out,
	}
}

func (i *Interp) frame() *env.Frame {
	if len(i.Frames) == 0 {
		return nil
	}
	return i.Frames[len(i.Frames)-1]
}

// replTopFrame lazily creates and returns the persistent frame that backs
// top-level REPL statement fragments, so a bare block or for-loop fragment
// (which call Frame.EnterScope) has a live frame to push a scope onto
// instead of hitting the nil Frames stack that exists before any call.
func (i *Interp) replTopFrame() *env.Frame {
	if i.topFrame == nil {
		i.topFrame = env.NewFrame()
	}
	return i.topFrame
}

// checkCancel returns diag.ErrInterrupted if ctx has been cancelled,
// checked before each statement and each loop iteration.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return diag.ErrInterrupted
	default:
		return nil
	}
}

// Load registers every top-level function definition before any code
// runs, so mutual recursion works regardless of source order.
func (i *Interp) Load(prog *ast.Program) error {
	for _, fn := range prog.Funcs {
		if err := i.Globals.DeclareFunc(fn); err != nil {
			return diag.FromRuntimeError(err, fn.Pos.Line, fn.Pos.Column)
		}
	}
	for _, g := range prog.Globals {
		if err := i.execGlobalDecl(g); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interp) execGlobalDecl(g *ast.GlobalDecl) error {
	ctx := context.Background()
	for _, d := range g.Declarators {
		addr, err := i.allocateStorage(d.Type)
		if err != nil {
			return diag.FromRuntimeError(err, g.Pos.Line, g.Pos.Column)
		}
		if d.Init != nil {
			iv, err := i.evalExpr(ctx, d.Init)
			if err != nil {
				return err
			}
			cv, cerr := value.ConvertForAssignment(iv, d.Type)
			if cerr != nil {
				return diag.FromRuntimeError(cerr, d.Init.Position().Line, d.Init.Position().Column)
			}
			if err := i.storeValue(addr, d.Type, cv); err != nil {
				return diag.FromRuntimeError(err, g.Pos.Line, g.Pos.Column)
			}
		} else if d.InitList != nil {
			if err := i.storeInitList(ctx, d.Type, addr, d.InitList); err != nil {
				return err
			}
		} else if err := i.zeroFill(addr, d.Type); err != nil {
			return diag.FromRuntimeError(err, g.Pos.Line, g.Pos.Column)
		}
		if err := i.Globals.DeclareVar(d.Name, env.Binding{Type: d.Type, Addr: addr}); err != nil {
			return diag.FromRuntimeError(err, g.Pos.Line, g.Pos.Column)
		}
	}
	return nil
}

// allocateStorage reserves heap space sized for t.
func (i *Interp) allocateStorage(t types.Type) (int64, error) {
	size := types.SizeOf(t)
	if size == 0 {
		size = 1
	}
	return i.Heap.Allocate(size)
}

// RunMain looks up and calls main() with no arguments, the entry point for
// a non-REPL interpretation run. If no main is defined, it returns (0,
// nil): Load has already run the global declarations and registered the
// functions, and nothing else is executed.
func (i *Interp) RunMain(ctx context.Context) (int, error) {
	fn, ok := i.Globals.LookupFunc("main")
	if !ok {
		return 0, nil
	}
	result, err := i.callFunction(ctx, fn, nil, fn.Pos)
	if err != nil {
		return -1, err
	}
	return int(result.AsInt64()), nil
}
