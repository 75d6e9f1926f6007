package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/value"
)

func (i *Interp) evalAssign(ctx context.Context, n *ast.AssignExpr) (value.Value, error) {
	lv, err := i.evalLvalue(ctx, n.Target)
	if err != nil {
		return value.Value{}, err
	}
	rhs, err := i.evalExpr(ctx, n.Value)
	if err != nil {
		return value.Value{}, err
	}

	result := rhs
	if n.Op != "=" {
		cur, err := i.loadValue(lv.Addr, lv.Type)
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
		op := map[string]string{"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%"}[n.Op]
		result, err = applyBinaryOp(op, cur, rhs)
		if err != nil {
			return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
		}
	}

	converted, err := value.ConvertForAssignment(result, lv.Type)
	if err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	if err := i.storeValue(lv.Addr, lv.Type, converted); err != nil {
		return value.Value{}, diag.FromRuntimeError(err, n.Pos.Line, n.Pos.Column)
	}
	return converted, nil
}
