package eval

import (
	"context"

	"cinterp/pkg/ast"
	"cinterp/pkg/diag"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// storeValue writes v (already converted to t) into the heap at addr,
// dispatching on t's kind to the matching fixed-width accessor
// (char=1, int=4, float=4, pointer=8).
func (i *Interp) storeValue(addr int64, t types.Type, v value.Value) error {
	switch t.Kind {
	case types.KindChar:
		return i.Heap.StoreByte(addr, byte(v.I))
	case types.KindInt:
		return i.Heap.StoreInt32(addr, int32(v.I))
	case types.KindFloat:
		return i.Heap.StoreFloat32(addr, v.F)
	case types.KindPointer:
		return i.Heap.StorePointer(addr, v.Addr)
	case types.KindArray:
		return diag.ErrTypeMismatch
	default:
		return nil
	}
}

// loadValue reads a value of type t from addr.
func (i *Interp) loadValue(addr int64, t types.Type) (value.Value, error) {
	switch t.Kind {
	case types.KindChar:
		b, err := i.Heap.LoadByte(addr)
		if err != nil {
			return value.Value{}, err
		}
		return value.Char(int64(b)), nil
	case types.KindInt:
		n, err := i.Heap.LoadInt32(addr)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(n)), nil
	case types.KindFloat:
		f, err := i.Heap.LoadFloat32(addr)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	case types.KindPointer:
		a, err := i.Heap.LoadPointer(addr)
		if err != nil {
			return value.Value{}, err
		}
		return value.Pointer(*t.Elem, a), nil
	case types.KindArray:
		return value.Array(*t.Elem, t.Len, addr), nil
	default:
		return value.Void(), nil
	}
}

// zeroFill writes t's zeroed default into addr, recursing element-by-
// element for an Array type (whose storage is never one scalar Value) and
// otherwise delegating to storeValue with value.Zero(t). Used both for
// uninitialized declarations and for zero-filling an initializer list's
// missing tail elements, so a 2-D+ array with too few rows zeroes the
// remaining rows instead of routing them through storeValue's scalar
// dispatch, which rejects KindArray outright.
func (i *Interp) zeroFill(addr int64, t types.Type) error {
	if t.Kind != types.KindArray {
		return i.storeValue(addr, t, value.Zero(t))
	}
	elemType := *t.Elem
	elemSize := int64(types.SizeOf(elemType))
	for idx := 0; idx < t.Len; idx++ {
		if err := i.zeroFill(addr+int64(idx)*elemSize, elemType); err != nil {
			return err
		}
	}
	return nil
}

// storeInitList fills an array allocation at addr from a (possibly
// nested, for 2-D) brace initializer, zero-filling any missing tail
// elements and failing with InitializerOverflow on excess elements.
func (i *Interp) storeInitList(ctx context.Context, t types.Type, addr int64, list *ast.InitList) error {
	if t.Kind != types.KindArray {
		return diag.ErrTypeMismatch
	}
	elemType := *t.Elem
	elemSize := types.SizeOf(elemType)
	if len(list.Elements) > t.Len {
		return diag.FromRuntimeError(diag.ErrInitializerOverflow, list.Pos.Line, list.Pos.Column)
	}
	for idx := 0; idx < t.Len; idx++ {
		elemAddr := addr + int64(idx)*int64(elemSize)
		if idx >= len(list.Elements) {
			if err := i.zeroFill(elemAddr, elemType); err != nil {
				return diag.FromRuntimeError(err, list.Pos.Line, list.Pos.Column)
			}
			continue
		}
		el := list.Elements[idx]
		if nested, ok := el.(*ast.InitList); ok {
			if err := i.storeInitList(ctx, elemType, elemAddr, nested); err != nil {
				return err
			}
			continue
		}
		v, err := i.evalExpr(ctx, el)
		if err != nil {
			return err
		}
		cv, cerr := value.ConvertForAssignment(v, elemType)
		if cerr != nil {
			return diag.FromRuntimeError(cerr, el.Position().Line, el.Position().Column)
		}
		if err := i.storeValue(elemAddr, elemType, cv); err != nil {
			return diag.FromRuntimeError(err, el.Position().Line, el.Position().Column)
		}
	}
	return nil
}
