package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// evalExpr evaluates e to an rvalue, applying array-to-pointer decay
// except where the caller specifically wants the undecayed handle (sizeof
// and & apply their own rules internally, see below).
func (i *Interp) evalExpr(ctx context.Context, e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return value.Int(n.Value), nil
	case *ast.FloatLit:
		return value.Float(n.Value), nil
	case *ast.CharLit:
		return value.Char(int64(n.Value)), nil
	case *ast.StringLit:
		return i.evalStringLit(n)
	case *ast.Ident:
		return i.evalIdent(ctx, n)
	case *ast.UnaryExpr:
		return i.evalUnary(ctx, n)
	case *ast.PostfixExpr:
		return i.evalPostfix(ctx, n)
	case *ast.BinaryExpr:
		return i.evalBinary(ctx, n)
	case *ast.LogicalExpr:
		return i.evalLogical(ctx, n)
	case *ast.AssignExpr:
		return i.evalAssign(ctx, n)
	case *ast.IndexExpr:
		lv, err := i.evalLvalue(ctx, n)
		if err != nil {
			return value.Value{}, err
		}
		return i.loadRvalue(lv)
	case *ast.CallExpr:
		return i.evalCall(ctx, n)
	case *ast.CastExpr:
		return i.evalCast(ctx, n)
	case *ast.TernaryExpr:
		return i.evalTernary(ctx, n)
	case *ast.SizeofExpr:
		return i.evalSizeofExpr(ctx, n)
	case *ast.SizeofTypeExpr:
		return value.Int(int64(types.SizeOf(n.Target))), nil
	default:
		return value.Value{}, diag.FromRuntimeError(diag.ErrTypeMismatch, e.Position().Line, e.Position().Column)
	}
}

// evalStringLit caches one heap allocation per distinct string literal
// text so repeated uses of the same literal share storage; string
// literals are immutable and safe to share this way.
func (i *Interp) evalStringLit(n *ast.StringLit) (value.Value, error) {
	if i.strings == nil {
		i.strings = make(map[string]int64)
	}
	if addr, ok := i.strings[n.Value]; ok {
		return value.Pointer(types.Char, addr), nil
	}
	addr, err := i.Heap.Allocate(len(n.Value) + 1)
	if err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	if err := i.Heap.StoreCString(addr, n.Value); err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	i.strings[n.Value] = addr
	return value.Pointer(types.Char, addr), nil
}

func (i *Interp) evalIdent(ctx context.Context, n *ast.Ident) (value.Value, error) {
	lv, err := i.evalLvalue(ctx, n)
	if err != nil {
		return value.Value{}, err
	}
	return i.loadRvalue(lv)
}

// loadRvalue loads the value at lv and applies array decay.
func (i *Interp) loadRvalue(lv lvalue) (value.Value, error) {
	v, err := i.loadValue(lv.Addr, lv.Type)
	if err != nil {
		return value.Value{}, err
	}
	return value.Decay(v), nil
}

func (i *Interp) evalCast(ctx context.Context, n *ast.CastExpr) (value.Value, error) {
	v, err := i.evalExpr(ctx, n.Value)
	if err != nil {
		return value.Value{}, err
	}
	return value.TruncateToType(v, n.Target), nil
}

func (i *Interp) evalTernary(ctx context.Context, n *ast.TernaryExpr) (value.Value, error) {
	cond, err := i.evalExpr(ctx, n.Cond)
	if err != nil {
		return value.Value{}, err
	}
	if cond.IsTruthy() {
		return i.evalExpr(ctx, n.Then)
	}
	return i.evalExpr(ctx, n.Else)
}

func (i *Interp) evalSizeofExpr(ctx context.Context, n *ast.SizeofExpr) (value.Value, error) {
	// sizeof does not evaluate its operand for side effects in real C, but
	// this interpreter has no static type pass, so it evaluates the
	// operand to discover its type and discards the value. Array operands
	// are evaluated as lvalues so sizeof reports the array's true size
	// rather than the decayed pointer size.
	if lv, err := i.evalLvalue(ctx, n.Value); err == nil {
		return value.Int(int64(types.SizeOf(lv.Type))), nil
	}
	v, err := i.evalExpr(ctx, n.Value)
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(types.SizeOf(v.Type))), nil
}

func (i *Interp) evalLogical(ctx context.Context, n *ast.LogicalExpr) (value.Value, error) {
	left, err := i.evalExpr(ctx, n.Left)
	if err != nil {
		return value.Value{}, err
	}
	if n.Op == "&&" && !left.IsTruthy() {
		return value.Int(0), nil
	}
	if n.Op == "||" && left.IsTruthy() {
		return value.Int(1), nil
	}
	right, err := i.evalExpr(ctx, n.Right)
	if err != nil {
		return value.Value{}, err
	}
	if right.IsTruthy() {
		return value.Int(1), nil
	}
	return value.Int(0), nil
}
