package builtins

import (
	"bytes"
	"errors"
	"testing"

	"cinterp/pkg/diag"
	"cinterp/pkg/memory"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

func TestIsBuiltin(t *testing.T) {
	for _, name := range []string{"printf", "strlen", "strcpy", "strcmp", "malloc", "free", "realloc"} {
		if !IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false, want true", name)
		}
	}
	if IsBuiltin("not_a_builtin") {
		t.Errorf("IsBuiltin(unknown) = true, want false")
	}
}

func TestMallocZeroReturnsNull(t *testing.T) {
	h := memory.New(64)
	v, err := builtinMalloc(h, nil, []value.Value{value.Int(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Addr != memory.NullAddr {
		t.Fatalf("malloc(0) = %+v, want NullAddr", v)
	}
}

func TestMallocNonzeroReturnsDereferenceablePointer(t *testing.T) {
	h := memory.New(64)
	v, err := builtinMalloc(h, nil, []value.Value{value.Int(8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Addr == memory.NullAddr {
		t.Fatalf("malloc(8) returned NULL")
	}
	if err := h.StoreByte(v.Addr, 1); err != nil {
		t.Fatalf("returned pointer is not dereferenceable: %v", err)
	}
}

func TestFreeNullIsNoOp(t *testing.T) {
	h := memory.New(64)
	_, err := builtinFree(h, nil, []value.Value{value.Pointer(types.Char, memory.NullAddr)})
	if err != nil {
		t.Fatalf("free(NULL) = %v, want nil", err)
	}
}

func TestReallocFromNullBehavesLikeMalloc(t *testing.T) {
	h := memory.New(64)
	v, err := builtinRealloc(h, nil, []value.Value{value.Pointer(types.Char, memory.NullAddr), value.Int(8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Addr == memory.NullAddr {
		t.Fatalf("realloc(NULL, 8) returned NULL")
	}
}

func TestReallocPreservesPriorBytes(t *testing.T) {
	h := memory.New(64)
	orig, _ := builtinMalloc(h, nil, []value.Value{value.Int(4)})
	h.StoreCString(orig.Addr, "ab")

	grown, err := builtinRealloc(h, nil, []value.Value{orig, value.Int(8)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := h.LoadCString(grown.Addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != "ab" {
		t.Fatalf("got %q, want %q preserved across realloc", s, "ab")
	}
}

func TestReallocFreesOldBlock(t *testing.T) {
	h := memory.New(64)
	orig, _ := builtinMalloc(h, nil, []value.Value{value.Int(4)})
	if _, err := builtinRealloc(h, nil, []value.Value{orig, value.Int(8)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Free(orig.Addr); !errors.Is(err, diag.ErrDoubleFree) {
		t.Fatalf("err = %v, want ErrDoubleFree (realloc should already have freed it)", err)
	}
}

func TestStrlen(t *testing.T) {
	h := memory.New(64)
	addr, _ := h.Allocate(8)
	h.StoreCString(addr, "abcd")
	v, err := builtinStrlen(h, nil, []value.Value{value.Pointer(types.Char, addr)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I != 4 {
		t.Fatalf("strlen = %d, want 4", v.I)
	}
}

func TestStrcpyRoundTripsWithStrcmp(t *testing.T) {
	h := memory.New(64)
	dstAddr, _ := h.Allocate(16)
	srcAddr, _ := h.Allocate(8)
	h.StoreCString(srcAddr, "hello")

	dst, err := builtinStrcpy(h, nil, []value.Value{value.Pointer(types.Char, dstAddr), value.Pointer(types.Char, srcAddr)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, err := builtinStrcmp(h, nil, []value.Value{dst, value.Pointer(types.Char, srcAddr)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp.I != 0 {
		t.Fatalf("strcmp(dst, src) = %d, want 0", cmp.I)
	}
}

func TestStrcmpOrdering(t *testing.T) {
	h := memory.New(64)
	aAddr, _ := h.Allocate(8)
	bAddr, _ := h.Allocate(8)
	h.StoreCString(aAddr, "abc")
	h.StoreCString(bAddr, "abd")

	v, err := builtinStrcmp(h, nil, []value.Value{value.Pointer(types.Char, aAddr), value.Pointer(types.Char, bAddr)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I >= 0 {
		t.Fatalf("strcmp(\"abc\",\"abd\") = %d, want negative", v.I)
	}
}

func TestStrcmpPrefixComparesTerminatorAsFirstDifferingByte(t *testing.T) {
	h := memory.New(64)
	aAddr, _ := h.Allocate(8)
	bAddr, _ := h.Allocate(8)
	h.StoreCString(aAddr, "abc")
	h.StoreCString(bAddr, "abcdef")

	v, err := builtinStrcmp(h, nil, []value.Value{value.Pointer(types.Char, aAddr), value.Pointer(types.Char, bAddr)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I != -int64('d') {
		t.Fatalf("strcmp(\"abc\",\"abcdef\") = %d, want %d", v.I, -int64('d'))
	}
}

func TestPrintfWritesToOut(t *testing.T) {
	h := memory.New(64)
	fmtAddr, _ := h.Allocate(16)
	h.StoreCString(fmtAddr, "x=%d\n")

	var buf bytes.Buffer
	v, err := builtinPrintf(h, &buf, []value.Value{value.Pointer(types.Char, fmtAddr), value.Int(42)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "x=42\n" {
		t.Fatalf("output = %q, want %q", buf.String(), "x=42\n")
	}
	if v.I != int64(len("x=42\n")) {
		t.Fatalf("return value = %d, want %d", v.I, len("x=42\n"))
	}
}
