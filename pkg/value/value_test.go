package value

import (
	"errors"
	"reflect"
	"testing"

	"cinterp/pkg/diag"
	"cinterp/pkg/types"
)

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nonzero int", Int(5), true},
		{"zero int", Int(0), false},
		{"nonzero float", Float(0.1), true},
		{"zero float", Float(0), false},
		{"non-null pointer", Pointer(types.Int, 100), true},
		{"null pointer", Pointer(types.Int, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsTruthy(); got != tt.want {
				t.Fatalf("IsTruthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCharWrapsTo8Bits(t *testing.T) {
	v := Char(300)
	if v.I != (300 & 0xFF) {
		t.Fatalf("Char(300).I = %d, want %d", v.I, 300&0xFF)
	}
}

func TestDecayArrayToPointer(t *testing.T) {
	arr := Array(types.Int, 3, 500)
	ptr := Decay(arr)
	if ptr.Type.Kind != types.KindPointer {
		t.Fatalf("decayed kind = %v, want Pointer", ptr.Type.Kind)
	}
	if ptr.Addr != 500 {
		t.Fatalf("decayed addr = %d, want 500", ptr.Addr)
	}
	// Decay is a no-op on a non-array value.
	i := Int(7)
	if got := Decay(i); !reflect.DeepEqual(got, i) {
		t.Fatalf("Decay(non-array) changed the value: %v", got)
	}
}

func TestPromotedNumericKind(t *testing.T) {
	if got := PromotedNumericKind(types.Int, types.Char); got.Kind != types.KindInt {
		t.Fatalf("int+char promotes to %v, want Int", got)
	}
	if got := PromotedNumericKind(types.Int, types.Float); got.Kind != types.KindFloat {
		t.Fatalf("int+float promotes to %v, want Float", got)
	}
	if got := PromotedNumericKind(types.Char, types.Float); got.Kind != types.KindFloat {
		t.Fatalf("char+float promotes to %v, want Float", got)
	}
}

func TestTruncateToType(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		t    types.Type
		want int64
	}{
		{"int to char truncates", Int(300), types.Char, 300 & 0xFF},
		{"int to char negative", Int(-1), types.Char, 255},
		{"float to int truncates toward zero", Float(3.9), types.Int, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateToType(tt.v, tt.t)
			if got.AsInt64() != tt.want {
				t.Fatalf("got %d, want %d", got.AsInt64(), tt.want)
			}
		})
	}
}

func TestConvertForAssignmentArrayDecaysToPointer(t *testing.T) {
	arr := Array(types.Int, 3, 64)
	got, err := ConvertForAssignment(arr, types.Pointer(types.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Kind != types.KindPointer || got.Addr != 64 {
		t.Fatalf("got %+v, want a pointer to addr 64", got)
	}
}

func TestConvertForAssignmentTypeMismatch(t *testing.T) {
	_, err := ConvertForAssignment(Pointer(types.Int, 8), types.Int)
	if !errors.Is(err, diag.ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestConvertForAssignmentIntegerZeroBecomesNullPointer(t *testing.T) {
	got, err := ConvertForAssignment(Int(0), types.Pointer(types.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Kind != types.KindPointer || got.Addr != 0 {
		t.Fatalf("got %+v, want a null Int pointer", got)
	}
}

func TestConvertForAssignmentNonzeroIntegerToPointerStillFails(t *testing.T) {
	_, err := ConvertForAssignment(Int(5), types.Pointer(types.Int))
	if !errors.Is(err, diag.ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestConvertForAssignmentNumericCoercion(t *testing.T) {
	got, err := ConvertForAssignment(Float(2.5), types.Int)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type.Kind != types.KindInt || got.I != 2 {
		t.Fatalf("got %+v, want Int(2)", got)
	}
}

func TestZero(t *testing.T) {
	tests := []struct {
		name string
		typ  types.Type
	}{
		{"int", types.Int},
		{"float", types.Float},
		{"char", types.Char},
		{"pointer", types.Pointer(types.Int)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := Zero(tt.typ)
			if z.IsTruthy() {
				t.Fatalf("Zero(%v) is truthy: %+v", tt.typ, z)
			}
		})
	}
}

func TestAsFloat64AndAsInt64Conversions(t *testing.T) {
	f := Float(2.75)
	if f.AsInt64() != 2 {
		t.Fatalf("Float(2.75).AsInt64() = %d, want 2", f.AsInt64())
	}
	i := Int(5)
	if i.AsFloat64() != 5.0 {
		t.Fatalf("Int(5).AsFloat64() = %v, want 5.0", i.AsFloat64())
	}
}
