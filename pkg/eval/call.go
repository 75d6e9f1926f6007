package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/builtins"
	"cinterp/pkg/diag"
	"cinterp/pkg/env"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

func (i *Interp) evalCall(ctx context.Context, n *ast.CallExpr) (value.Value, error) {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok {
		return value.Value{}, diag.FromRuntimeError(diag.ErrNotAFunction, n.Pos.Line, n.Pos.Column)
	}

	args := make([]value.Value, len(n.Args))
	for idx, a := range n.Args {
		v, err := i.evalExpr(ctx, a)
		if err != nil {
			return value.Value{}, err
		}
		args[idx] = v
	}

	if builtins.IsBuiltin(ident.Name) {
		entry := builtins.Registry[ident.Name]
		if entry.Arity >= 0 && len(args) != entry.Arity {
			return value.Value{}, diag.FromRuntimeError(diag.ErrArityMismatch, n.Pos.Line, n.Pos.Column)
		}
		v, err := entry.Impl(i.Heap, i.Out, args)
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		return v, nil
	}

	fn, ok := i.Globals.LookupFunc(ident.Name)
	if !ok {
		return value.Value{}, diag.FromRuntimeError(diag.ErrUndeclared, n.Pos.Line, n.Pos.Column)
	}
	return i.callFunction(ctx, fn, args, n.Pos)
}

// callFunction implements the call protocol: push a fresh frame whose
// only visible scope is parameter bindings (no access to the caller's
// locals), execute the body, and convert a Return's value (or body
// fall-off) to the declared return type.
func (i *Interp) callFunction(ctx context.Context, fn *ast.FuncDecl, args []value.Value, pos ast.Pos) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return value.Value{}, diag.FromRuntimeError(diag.ErrArityMismatch, pos.Line, pos.Column)
	}

	frame := env.NewFrame()
	for idx, p := range fn.Params {
		addr, err := i.allocateStorage(p.Type)
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, pos.Line, pos.Column)
		}
		converted, cerr := value.ConvertForAssignment(args[idx], p.Type)
		if cerr != nil {
			return value.Value{}, diag.FromRuntimeError(cerr, pos.Line, pos.Column)
		}
		if err := i.storeValue(addr, p.Type, converted); err != nil {
			return value.Value{}, diag.FromRuntimeError(err, pos.Line, pos.Column)
		}
		if err := frame.Declare(p.Name, env.Binding{Type: p.Type, Addr: addr}); err != nil {
			return value.Value{}, diag.FromRuntimeError(err, pos.Line, pos.Column)
		}
	}

	i.Frames = append(i.Frames, frame)
	defer func() {
		for _, addr := range frame.TopScopeAddrs() {
			i.Heap.Free(addr)
		}
		i.Frames = i.Frames[:len(i.Frames)-1]
	}()

	sig, err := i.execBlock(ctx, fn.Body)
	if err != nil {
		return value.Value{}, err
	}

	switch sig.Kind {
	case SigReturn:
		converted, cerr := value.ConvertForAssignment(sig.Value, fn.Ret)
		if cerr != nil {
			return value.Value{}, diag.FromRuntimeError(cerr, pos.Line, pos.Column)
		}
		return converted, nil
	case SigBreak, SigContinue:
		return value.Value{}, diag.FromRuntimeError(diag.ErrStrayControlFlow, pos.Line, pos.Column)
	default:
		// Fall-off: Return(0) for int-returning functions, Return(void)
		// otherwise.
		if fn.Ret.Kind == types.KindInt {
			return value.Int(0), nil
		}
		return value.Void(), nil
	}
}
