package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/env"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// lvalue is an (address, type) pair designating a storage location.
type lvalue struct {
	Addr int64
	Type types.Type
}

// evalLvalue evaluates e as an lvalue. Only Ident, UnaryExpr("*"), and
// IndexExpr produce lvalues; every other expression kind fails with
// TypeMismatch, since assignment requires the left operand to be an
// lvalue.
func (i *Interp) evalLvalue(ctx context.Context, e ast.Expr) (lvalue, error) {
	switch n := e.(type) {
	case *ast.Ident:
		b, ok := env.Resolve(i.frame(), i.Globals, n.Name)
		if !ok {
			return lvalue{}, diag.FromRuntimeError(diag.ErrUndeclared, n.Pos.Line, n.Pos.Column)
		}
		return lvalue{Addr: b.Addr, Type: b.Type}, nil

	case *ast.UnaryExpr:
		if n.Op != "*" {
			return lvalue{}, diag.FromRuntimeError(diag.ErrTypeMismatch, n.Pos.Line, n.Pos.Column)
		}
		v, err := i.evalExpr(ctx, n.Operand)
		if err != nil {
			return lvalue{}, err
		}
		if v.Type.Kind != types.KindPointer {
			return lvalue{}, diag.FromRuntimeError(diag.ErrTypeMismatch, n.Pos.Line, n.Pos.Column)
		}
		if v.Addr == 0 {
			return lvalue{}, diag.FromRuntimeError(diag.ErrNullDereference, n.Pos.Line, n.Pos.Column)
		}
		return lvalue{Addr: v.Addr, Type: *v.Type.Elem}, nil

	case *ast.IndexExpr:
		base, err := i.evalArrayBase(ctx, n.Array)
		if err != nil {
			return lvalue{}, err
		}
		idxVal, err := i.evalExpr(ctx, n.Index)
		if err != nil {
			return lvalue{}, err
		}
		idx := idxVal.AsInt64()

		var elemType types.Type
		var baseAddr int64
		switch base.Type.Kind {
		case types.KindArray:
			elemType = *base.Type.Elem
			baseAddr = base.Addr
			if idx < 0 || idx >= int64(base.Type.Len) {
				return lvalue{}, diag.FromRuntimeError(diag.ErrIndexOutOfBounds, n.Pos.Line, n.Pos.Column)
			}
		case types.KindPointer:
			elemType = *base.Type.Elem
			baseAddr = base.Addr
			if baseAddr == 0 {
				return lvalue{}, diag.FromRuntimeError(diag.ErrNullDereference, n.Pos.Line, n.Pos.Column)
			}
		default:
			return lvalue{}, diag.FromRuntimeError(diag.ErrTypeMismatch, n.Pos.Line, n.Pos.Column)
		}
		elemSize := int64(types.SizeOf(elemType))
		return lvalue{Addr: baseAddr + idx*elemSize, Type: elemType}, nil

	default:
		return lvalue{}, diag.FromRuntimeError(diag.ErrTypeMismatch, e.Position().Line, e.Position().Column)
	}
}

// evalArrayBase evaluates the subscripted operand of an IndexExpr,
// preferring its lvalue form so an array variable keeps its true Array
// type (and length) instead of being decayed to a bare pointer, mirroring
// the lvalue-first pattern evalSizeofExpr uses. Operands that aren't
// themselves lvalues (e.g. a function call returning a pointer) fall back
// to ordinary rvalue evaluation, which does decay.
func (i *Interp) evalArrayBase(ctx context.Context, e ast.Expr) (value.Value, error) {
	if lv, err := i.evalLvalue(ctx, e); err == nil {
		return i.loadValue(lv.Addr, lv.Type)
	}
	return i.evalExpr(ctx, e)
}
