// Package value defines the runtime value representation shared by the
// evaluator and the builtins, kept in its own package so builtins need not
// import the evaluator.
package value

import (
	"math"

	"cinterp/pkg/diag"
	"cinterp/pkg/types"
)

// Value is a tagged union over the C-subset value space. Which field is
// meaningful is determined by Type.Kind: Int/Char use I, Float uses F,
// Pointer/Array use Addr (Array additionally carries its length in
// Type.Len).
type Value struct {
	Type types.Type
	I    int64
	F    float64
	Addr int64
}

func Int(n int64) Value   { return Value{Type: types.Int, I: n} }
func Char(n int64) Value  { return Value{Type: types.Char, I: n & 0xFF} }
func Float(f float64) Value { return Value{Type: types.Float, F: f} }
func Void() Value          { return Value{Type: types.Void} }

// Pointer builds a pointer value to the given pointee type at addr.
func Pointer(pointee types.Type, addr int64) Value {
	return Value{Type: types.Pointer(pointee), Addr: addr}
}

// Array builds an array handle value.
func Array(elem types.Type, length int, addr int64) Value {
	return Value{Type: types.Array(elem, length), Addr: addr}
}

// IsTruthy implements C's "any nonzero value is true" rule for
// conditions, && / ||, and ternary.
func (v Value) IsTruthy() bool {
	switch v.Type.Kind {
	case types.KindFloat:
		return v.F != 0
	case types.KindPointer, types.KindArray:
		return v.Addr != 0
	default:
		return v.I != 0
	}
}

// AsFloat64 returns v's numeric value widened to float64, valid for
// Int/Char/Float.
func (v Value) AsFloat64() float64 {
	if v.Type.Kind == types.KindFloat {
		return v.F
	}
	return float64(v.I)
}

// AsInt64 returns v's numeric value narrowed to int64, valid for
// Int/Char/Float (float truncates toward zero).
func (v Value) AsInt64() int64 {
	if v.Type.Kind == types.KindFloat {
		return int64(v.F)
	}
	return v.I
}

// Decay converts an array handle to a pointer to its first element,
// applied in every rvalue context except sizeof and the operand of unary &.
func Decay(v Value) Value {
	if v.Type.Kind == types.KindArray {
		return Pointer(*v.Type.Elem, v.Addr)
	}
	return v
}

// PromotedNumericKind returns the common type two numeric operands
// promote to for arithmetic/comparison: any Float operand promotes both
// to Float, otherwise both promote to Int (char's ordinal value
// participates as an int).
func PromotedNumericKind(a, b types.Type) types.Type {
	if a.Kind == types.KindFloat || b.Kind == types.KindFloat {
		return types.Float
	}
	return types.Int
}

// TruncateToType narrows v's numeric value to fit t's declared width,
// applied on every store.
func TruncateToType(v Value, t types.Type) Value {
	switch t.Kind {
	case types.KindFloat:
		return Value{Type: types.Float, F: v.AsFloat64()}
	case types.KindChar:
		n := v.AsInt64()
		return Value{Type: types.Char, I: n & 0xFF}
	case types.KindInt:
		n := v.AsInt64()
		return Value{Type: types.Int, I: int64(int32(n))}
	case types.KindPointer:
		return Value{Type: t, Addr: v.Addr}
	case types.KindArray:
		return v
	default:
		return v
	}
}

// ConvertForAssignment converts v to the declared type t, used for
// variable initialization, assignment, and argument passing.
func ConvertForAssignment(v Value, t types.Type) (Value, error) {
	if t.Kind == types.KindPointer && v.Type.Kind == types.KindArray {
		v = Decay(v)
	}
	if t.Kind == types.KindPointer && types.IsNumeric(v.Type) && v.AsInt64() == 0 {
		return Value{Type: t, Addr: 0}, nil
	}
	if !types.Equal(v.Type, t) && !(types.IsNumeric(v.Type) && types.IsNumeric(t)) {
		if t.Kind == types.KindPointer && v.Type.Kind == types.KindPointer {
			return Value{Type: t, Addr: v.Addr}, nil
		}
		return Value{}, diag.ErrTypeMismatch
	}
	return TruncateToType(v, t), nil
}

// Zero returns the zeroed default value for t, used for uninitialised
// locals and globals.
func Zero(t types.Type) Value {
	switch t.Kind {
	case types.KindFloat:
		return Float(0)
	case types.KindChar:
		return Char(0)
	case types.KindPointer:
		return Pointer(*t.Elem, 0)
	default:
		return Int(0)
	}
}

// BitsOf reinterprets a Float value's IEEE-754 single-precision bit
// pattern as an int32. The memory package does its own float32/int32
// conversion and does not call it.
func BitsOf(f float64) int32 { return int32(math.Float32bits(float32(f))) }
