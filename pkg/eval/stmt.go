package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/env"
	"cinterp/pkg/value"
)

// execBlock pushes a fresh block scope, executes each statement in order
// until a non-Normal signal or error, then releases the scope's storage
// so a loop body's locals don't accumulate across iterations.
func (i *Interp) execBlock(ctx context.Context, b *ast.Block) (Signal, error) {
	f := i.frame()
	f.EnterScope()
	defer func() {
		for _, addr := range f.TopScopeAddrs() {
			i.Heap.Free(addr)
		}
		f.ExitScope()
	}()

	for _, s := range b.Stmts {
		sig, err := i.execStmt(ctx, s)
		if err != nil {
			return Normal, err
		}
		if sig.Kind != SigNormal {
			return sig, nil
		}
	}
	return Normal, nil
}

func (i *Interp) execStmt(ctx context.Context, s ast.Stmt) (Signal, error) {
	if err := checkCancel(ctx); err != nil {
		return Normal, diag.FromRuntimeError(err, s.Position().Line, s.Position().Column)
	}
	switch n := s.(type) {
	case *ast.Block:
		return i.execBlock(ctx, n)
	case *ast.DeclStmt:
		return Normal, i.execDeclStmt(ctx, n)
	case *ast.ExprStmt:
		_, err := i.evalExpr(ctx, n.Value)
		return Normal, err
	case *ast.EmptyStmt:
		return Normal, nil
	case *ast.IfStmt:
		return i.execIf(ctx, n)
	case *ast.WhileStmt:
		return i.execWhile(ctx, n)
	case *ast.DoWhileStmt:
		return i.execDoWhile(ctx, n)
	case *ast.ForStmt:
		return i.execFor(ctx, n)
	case *ast.SwitchStmt:
		return i.execSwitch(ctx, n)
	case *ast.ReturnStmt:
		if n.Value == nil {
			return Return(value.Void()), nil
		}
		v, err := i.evalExpr(ctx, n.Value)
		if err != nil {
			return Normal, err
		}
		return Return(v), nil
	case *ast.BreakStmt:
		return Break, nil
	case *ast.ContinueStmt:
		return Continue, nil
	default:
		return Normal, diag.FromRuntimeError(diag.ErrTypeMismatch, s.Position().Line, s.Position().Column)
	}
}

func (i *Interp) execDeclStmt(ctx context.Context, n *ast.DeclStmt) error {
	f := i.frame()
	for _, d := range n.Declarators {
		addr, err := i.allocateStorage(d.Type)
		if err != nil {
			return diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		if d.InitList != nil {
			if err := i.storeInitList(ctx, d.Type, addr, d.InitList); err != nil {
				return err
			}
		} else if d.Init != nil {
			iv, err := i.evalExpr(ctx, d.Init)
			if err != nil {
				return err
			}
			cv, cerr := value.ConvertForAssignment(iv, d.Type)
			if cerr != nil {
				return diag.FromRuntimeError(cerr, d.Init.Position().Line, d.Init.Position().Column)
			}
			if err := i.storeValue(addr, d.Type, cv); err != nil {
				return diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
			}
		} else if err := i.zeroFill(addr, d.Type); err != nil {
			return diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		if err := f.Declare(d.Name, env.Binding{Type: d.Type, Addr: addr}); err != nil {
			return diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
	}
	return nil
}

func (i *Interp) execIf(ctx context.Context, n *ast.IfStmt) (Signal, error) {
	cond, err := i.evalExpr(ctx, n.Cond)
	if err != nil {
		return Normal, err
	}
	if cond.IsTruthy() {
		return i.execStmt(ctx, n.Then)
	}
	if n.Else != nil {
		return i.execStmt(ctx, n.Else)
	}
	return Normal, nil
}

func (i *Interp) execWhile(ctx context.Context, n *ast.WhileStmt) (Signal, error) {
	for {
		if err := checkCancel(ctx); err != nil {
			return Normal, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		cond, err := i.evalExpr(ctx, n.Cond)
		if err != nil {
			return Normal, err
		}
		if !cond.IsTruthy() {
			return Normal, nil
		}
		sig, err := i.execStmt(ctx, n.Body)
		if err != nil {
			return Normal, err
		}
		switch sig.Kind {
		case SigBreak:
			return Normal, nil
		case SigReturn:
			return sig, nil
		}
	}
}

func (i *Interp) execDoWhile(ctx context.Context, n *ast.DoWhileStmt) (Signal, error) {
	for {
		if err := checkCancel(ctx); err != nil {
			return Normal, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		sig, err := i.execStmt(ctx, n.Body)
		if err != nil {
			return Normal, err
		}
		switch sig.Kind {
		case SigBreak:
			return Normal, nil
		case SigReturn:
			return sig, nil
		}
		cond, err := i.evalExpr(ctx, n.Cond)
		if err != nil {
			return Normal, err
		}
		if !cond.IsTruthy() {
			return Normal, nil
		}
	}
}

func (i *Interp) execFor(ctx context.Context, n *ast.ForStmt) (Signal, error) {
	f := i.frame()
	f.EnterScope()
	defer func() {
		for _, addr := range f.TopScopeAddrs() {
			i.Heap.Free(addr)
		}
		f.ExitScope()
	}()

	if n.Init != nil {
		if _, err := i.execStmt(ctx, n.Init); err != nil {
			return Normal, err
		}
	}
	for {
		if err := checkCancel(ctx); err != nil {
			return Normal, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		if n.Cond != nil {
			cond, err := i.evalExpr(ctx, n.Cond)
			if err != nil {
				return Normal, err
			}
			if !cond.IsTruthy() {
				return Normal, nil
			}
		}
		sig, err := i.execStmt(ctx, n.Body)
		if err != nil {
			return Normal, err
		}
		switch sig.Kind {
		case SigBreak:
			return Normal, nil
		case SigReturn:
			return sig, nil
		}
		if n.Step != nil {
			if _, err := i.evalExpr(ctx, n.Step); err != nil {
				return Normal, err
			}
		}
	}
}

// execSwitch implements C fallthrough semantics: once a matching case (or
// the default, if no case matches) is found, execution continues through
// subsequent cases' statements until a break or the switch body ends.
func (i *Interp) execSwitch(ctx context.Context, n *ast.SwitchStmt) (Signal, error) {
	v, err := i.evalExpr(ctx, n.Value)
	if err != nil {
		return Normal, err
	}
	target := v.AsInt64()

	matchIdx := -1
	defaultIdx := -1
	for idx, c := range n.Cases {
		if c.IsDefault {
			defaultIdx = idx
		} else if c.Value == target {
			matchIdx = idx
		}
	}
	start := matchIdx
	if start == -1 {
		start = defaultIdx
	}
	if start == -1 {
		return Normal, nil
	}

	for idx := start; idx < len(n.Cases); idx++ {
		for _, s := range n.Cases[idx].Stmts {
			sig, err := i.execStmt(ctx, s)
			if err != nil {
				return Normal, err
			}
			if sig.Kind == SigBreak {
				return Normal, nil
			}
			if sig.Kind == SigReturn || sig.Kind == SigContinue {
				return sig, nil
			}
		}
	}
	return Normal, nil
}
