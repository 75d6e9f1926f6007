package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

func (i *Interp) evalUnary(ctx context.Context, n *ast.UnaryExpr) (value.Value, error) {
	switch n.Op {
	case "&":
		lv, err := i.evalLvalue(ctx, n.Operand)
		if err != nil {
			return value.Value{}, err
		}
		return value.Pointer(lv.Type, lv.Addr), nil

	case "*":
		lv, err := i.evalLvalue(ctx, n)
		if err != nil {
			return value.Value{}, err
		}
		return i.loadRvalue(lv)

	case "++", "--":
		lv, err := i.evalLvalue(ctx, n.Operand)
		if err != nil {
			return value.Value{}, err
		}
		cur, err := i.loadValue(lv.Addr, lv.Type)
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		next, err := i.step(cur, lv.Type, n.Op == "++")
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		if err := i.storeValue(lv.Addr, lv.Type, next); err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		return next, nil

	default:
		v, err := i.evalExpr(ctx, n.Operand)
		if err != nil {
			return value.Value{}, err
		}
		switch n.Op {
		case "+":
			return v, nil
		case "-":
			if v.Type.Kind == types.KindFloat {
				return value.Float(-v.F), nil
			}
			return value.Int(-v.AsInt64()), nil
		case "!":
			if v.IsTruthy() {
				return value.Int(0), nil
			}
			return value.Int(1), nil
		case "~":
			return value.Int(^v.AsInt64()), nil
		default:
			return value.Value{}, diag.FromRuntimeError(diag.ErrTypeMismatch, n.Pos.Line, n.Pos.Column)
		}
	}
}

func (i *Interp) evalPostfix(ctx context.Context, n *ast.PostfixExpr) (value.Value, error) {
	lv, err := i.evalLvalue(ctx, n.Operand)
	if err != nil {
		return value.Value{}, err
	}
	cur, err := i.loadValue(lv.Addr, lv.Type)
	if err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	next, err := i.step(cur, lv.Type, n.Op == "++")
	if err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	if err := i.storeValue(lv.Addr, lv.Type, next); err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	return value.Decay(cur), nil
}

// step advances v (of static type t) by one unit, scaling by pointee size
// for pointers.
func (i *Interp) step(v value.Value, t types.Type, up bool) (value.Value, error) {
	delta := int64(1)
	if !up {
		delta = -1
	}
	if t.Kind == types.KindPointer {
		return value.Pointer(*t.Elem, v.Addr+delta*int64(types.SizeOf(*t.Elem))), nil
	}
	if t.Kind == types.KindFloat {
		return value.Float(v.F + float64(delta)), nil
	}
	return value.TruncateToType(value.Int(v.AsInt64()+delta), t), nil
}

func (i *Interp) evalBinary(ctx context.Context, n *ast.BinaryExpr) (value.Value, error) {
	left, err := i.evalExpr(ctx, n.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := i.evalExpr(ctx, n.Right)
	if err != nil {
		return value.Value{}, err
	}
	v, err := applyBinaryOp(n.Op, left, right)
	if err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	return v, nil
}

// applyBinaryOp implements the promotion and pointer-arithmetic rules for
// every binary operator except && / || (LogicalExpr handles those for
// short-circuiting).
func applyBinaryOp(op string, left, right value.Value) (value.Value, error) {
	// Pointer arithmetic takes priority over numeric promotion.
	if left.Type.Kind == types.KindPointer || right.Type.Kind == types.KindPointer {
		if v, ok, err := pointerOp(op, left, right); ok {
			return v, err
		}
	}

	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return compareOp(op, left, right)
	}

	promoted := value.PromotedNumericKind(left.Type, right.Type)
	if promoted.Kind == types.KindFloat {
		lf, rf := left.AsFloat64(), right.AsFloat64()
		switch op {
		case "+":
			return value.Float(lf + rf), nil
		case "-":
			return value.Float(lf - rf), nil
		case "*":
			return value.Float(lf * rf), nil
		case "/":
			if rf == 0 {
				return value.Value{}, diag.ErrDivisionByZero
			}
			return value.Float(lf / rf), nil
		default:
			return value.Value{}, diag.ErrTypeMismatch
		}
	}

	li, ri := left.AsInt64(), right.AsInt64()
	switch op {
	case "+":
		return value.Int(li + ri), nil
	case "-":
		return value.Int(li - ri), nil
	case "*":
		return value.Int(li * ri), nil
	case "/":
		if ri == 0 {
			return value.Value{}, diag.ErrDivisionByZero
		}
		return value.Int(li / ri), nil
	case "%":
		if ri == 0 {
			return value.Value{}, diag.ErrDivisionByZero
		}
		return value.Int(li % ri), nil
	case "&":
		return value.Int(li & ri), nil
	case "|":
		return value.Int(li | ri), nil
	case "^":
		return value.Int(li ^ ri), nil
	case "<<":
		if ri < 0 || ri >= 64 {
			return value.Value{}, diag.ErrShiftOutOfRange
		}
		return value.Int(li << uint(ri)), nil
	case ">>":
		if ri < 0 || ri >= 64 {
			return value.Value{}, diag.ErrShiftOutOfRange
		}
		return value.Int(li >> uint(ri)), nil
	default:
		return value.Value{}, diag.ErrTypeMismatch
	}
}

func compareOp(op string, left, right value.Value) (value.Value, error) {
	var lt, eq bool
	if left.Type.Kind == types.KindPointer || right.Type.Kind == types.KindPointer {
		l, r := left.Addr, right.Addr
		lt, eq = l < r, l == r
	} else {
		promoted := value.PromotedNumericKind(left.Type, right.Type)
		if promoted.Kind == types.KindFloat {
			l, r := left.AsFloat64(), right.AsFloat64()
			lt, eq = l < r, l == r
		} else {
			l, r := left.AsInt64(), right.AsInt64()
			lt, eq = l < r, l == r
		}
	}
	var result bool
	switch op {
	case "==":
		result = eq
	case "!=":
		result = !eq
	case "<":
		result = lt
	case "<=":
		result = lt || eq
	case ">":
		result = !lt && !eq
	case ">=":
		result = !lt || eq
	}
	if result {
		return value.Int(1), nil
	}
	return value.Int(0), nil
}

// pointerOp handles p+k, k+p, p-k, and p-q (equal pointee types only);
// ok is false when the operator/operand combination is not one of those
// (e.g. p == q, p < q, or p * k), and applyBinaryOp then handles the
// operands through its ordinary path.
func pointerOp(op string, left, right value.Value) (value.Value, bool, error) {
	lp := left.Type.Kind == types.KindPointer
	rp := right.Type.Kind == types.KindPointer

	switch {
	case lp && rp && op == "-":
		if !types.Equal(*left.Type.Elem, *right.Type.Elem) {
			return value.Value{}, true, diag.ErrTypeMismatch
		}
		elemSize := int64(types.SizeOf(*left.Type.Elem))
		if elemSize == 0 {
			elemSize = 1
		}
		return value.Int((left.Addr - right.Addr) / elemSize), true, nil

	case lp && !rp && (op == "+" || op == "-"):
		elemSize := int64(types.SizeOf(*left.Type.Elem))
		delta := right.AsInt64() * elemSize
		if op == "-" {
			delta = -delta
		}
		return value.Pointer(*left.Type.Elem, left.Addr+delta), true, nil

	case rp && !lp && op == "+":
		elemSize := int64(types.SizeOf(*right.Type.Elem))
		return value.Pointer(*right.Type.Elem, right.Addr+left.AsInt64()*elemSize), true, nil

	default:
		return value.Value{}, false, nil
	}
}
