package memory

import (
	"errors"
	"testing"

	"cinterp/pkg/diag"
)

func TestAllocateNeverReturnsNullOnSuccess(t *testing.T) {
	h := New(1024)
	addr, err := h.Allocate(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr == NullAddr {
		t.Fatalf("Allocate returned NullAddr on success")
	}
}

func TestAllocateDistinctAddressesBumpForward(t *testing.T) {
	h := New(1024)
	a, _ := h.Allocate(8)
	b, _ := h.Allocate(8)
	if b < a+8 {
		t.Fatalf("second allocation at %d overlaps first at %d size 8", b, a)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	h := New(16)
	if _, err := h.Allocate(32); !errors.Is(err, diag.ErrSegFault) {
		t.Fatalf("err = %v, want ErrSegFault", err)
	}
}

func TestFreeNullIsNoOp(t *testing.T) {
	h := New(64)
	if err := h.Free(NullAddr); err != nil {
		t.Fatalf("Free(NULL) = %v, want nil", err)
	}
}

func TestFreeUnknownAddressIsInvalidFree(t *testing.T) {
	h := New(64)
	if err := h.Free(999); !errors.Is(err, diag.ErrInvalidFree) {
		t.Fatalf("err = %v, want ErrInvalidFree", err)
	}
}

func TestDoubleFreeDetected(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(8)
	if err := h.Free(addr); err != nil {
		t.Fatalf("first free: %v", err)
	}
	if err := h.Free(addr); !errors.Is(err, diag.ErrDoubleFree) {
		t.Fatalf("err = %v, want ErrDoubleFree", err)
	}
}

func TestLoadStoreByteRoundTrip(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(1)
	if err := h.StoreByte(addr, 0xAB); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := h.LoadByte(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != 0xAB {
		t.Fatalf("got %x, want %x", got, 0xAB)
	}
}

func TestLoadStoreInt32RoundTrip(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(4)
	if err := h.StoreInt32(addr, -12345); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := h.LoadInt32(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != -12345 {
		t.Fatalf("got %d, want -12345", got)
	}
}

func TestLoadStoreFloat32RoundTrip(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(4)
	if err := h.StoreFloat32(addr, 3.5); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := h.LoadFloat32(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != 3.5 {
		t.Fatalf("got %v, want 3.5", got)
	}
}

func TestLoadStorePointerRoundTrip(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(8)
	if err := h.StorePointer(addr, 777); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := h.LoadPointer(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != 777 {
		t.Fatalf("got %d, want 777", got)
	}
}

func TestCStringRoundTrip(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(16)
	if err := h.StoreCString(addr, "abc"); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := h.LoadCString(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "abc" {
		t.Fatalf("got %q, want %q", got, "abc")
	}
}

func TestLoadCStringNullIsNullDereference(t *testing.T) {
	h := New(64)
	if _, err := h.LoadCString(NullAddr); !errors.Is(err, diag.ErrNullDereference) {
		t.Fatalf("err = %v, want ErrNullDereference", err)
	}
}

func TestCheckAccessIndexOutOfBounds(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(4)
	if err := h.StoreByte(addr+4, 1); !errors.Is(err, diag.ErrIndexOutOfBounds) {
		t.Fatalf("err = %v, want ErrIndexOutOfBounds", err)
	}
	// The last in-bounds byte must still succeed.
	if err := h.StoreByte(addr+3, 1); err != nil {
		t.Fatalf("last byte in range: %v", err)
	}
}

func TestCheckAccessAfterFreeIsSegFault(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(4)
	if err := h.Free(addr); err != nil {
		t.Fatalf("free: %v", err)
	}
	if _, err := h.LoadByte(addr); !errors.Is(err, diag.ErrSegFault) {
		t.Fatalf("err = %v, want ErrSegFault", err)
	}
}

func TestLeakedBlocksReportsOnlyUnfreed(t *testing.T) {
	h := New(64)
	a, _ := h.Allocate(4)
	b, _ := h.Allocate(4)
	h.Free(a)
	leaked := h.LeakedBlocks()
	if len(leaked) != 1 || leaked[0] != b {
		t.Fatalf("leaked = %v, want [%d]", leaked, b)
	}
}

func TestSizeOfLiveMatchesAllocationSize(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(10)
	n, err := h.SizeOfLive(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 10 {
		t.Fatalf("size = %d, want 10", n)
	}
}

func TestSizeOfLiveOnFreedBlockFails(t *testing.T) {
	h := New(64)
	addr, _ := h.Allocate(10)
	h.Free(addr)
	if _, err := h.SizeOfLive(addr); err == nil {
		t.Fatalf("expected an error for a freed block")
	}
}
