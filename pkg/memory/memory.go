// Package memory implements the simulated byte-addressable heap: a flat
// byte buffer plus an allocator metadata table, grounded on the teacher's
// pkg/cpu.CPU fixed-size Memory array and ReadByte/WriteByte/Read16/Write16
// accessors. Addresses here are opaque int64 offsets into the buffer, never
// native Go pointers.
package memory

import (
	"encoding/binary"
	"fmt"
	"math"

	"cinterp/pkg/diag"
	"cinterp/pkg/types"
)

func int32ToFloat32(bits int32) float32 { return math.Float32frombits(uint32(bits)) }
func float32ToInt32(v float32) int32    { return int32(math.Float32bits(v)) }

// NullAddr is the sentinel NULL pointer value. Address 0 is never handed
// out by Allocate, so it is safe to reserve as "points nowhere" (spec.md
// §4.3's free(NULL)-is-a-no-op rule).
const NullAddr int64 = 0

// block is one entry in the allocator metadata table.
type block struct {
	addr  int64
	size  int
	freed bool
}

// Heap is a simulated byte-addressable heap with bump-pointer allocation.
// Freed blocks are marked dead but never reclaimed or reused, a deliberate
// divergence from a free-list allocator: simpler to reason about, and it
// turns use-after-free into a permanent, always-detectable error rather
// than one that depends on allocation order.
type Heap struct {
	buf    []byte
	bump   int64
	blocks map[int64]*block
}

// New creates an empty heap with the given total byte capacity.
func New(capacity int) *Heap {
	return &Heap{
		buf:    make([]byte, capacity),
		bump:   1, // address 0 is reserved for NULL
		blocks: make(map[int64]*block),
	}
}

// Allocate reserves n bytes and returns their starting address. It never
// returns NullAddr for a successful allocation.
func (h *Heap) Allocate(n int) (int64, error) {
	if n <= 0 {
		return NullAddr, diag.ErrInvalidFree
	}
	if h.bump+int64(n) > int64(len(h.buf)) {
		return NullAddr, fmt.Errorf("heap exhausted: %w", diag.ErrSegFault)
	}
	addr := h.bump
	h.blocks[addr] = &block{addr: addr, size: n}
	h.bump += int64(n)
	return addr, nil
}

// Free marks the block at addr dead. Freeing NullAddr is a no-op. Freeing
// an address that was never allocated is ErrInvalidFree; freeing a block
// twice is ErrDoubleFree.
func (h *Heap) Free(addr int64) error {
	if addr == NullAddr {
		return nil
	}
	b, ok := h.blocks[addr]
	if !ok {
		return diag.ErrInvalidFree
	}
	if b.freed {
		return diag.ErrDoubleFree
	}
	b.freed = true
	return nil
}

// blockFor finds the block addr was allocated from. A strictly-contained
// address is preferred over a one-past-the-end match so that, since the
// bump allocator packs blocks contiguously, an address that is genuinely
// the start of the next live block is never misattributed to the block
// before it. Only when no block strictly contains addr does a block whose
// allocation ends exactly at addr match, so that overrunning it by even
// one byte is still attributed to that allocation rather than reported as
// belonging to no block at all; checkAccess is what turns that into
// IndexOutOfBounds vs SegFault.
func (h *Heap) blockFor(addr int64) (*block, error) {
	for _, b := range h.blocks {
		if addr >= b.addr && addr < b.addr+int64(b.size) {
			if b.freed {
				return nil, diag.ErrSegFault
			}
			return b, nil
		}
	}
	for _, b := range h.blocks {
		if addr == b.addr+int64(b.size) {
			if b.freed {
				return nil, diag.ErrSegFault
			}
			return b, nil
		}
	}
	return nil, diag.ErrSegFault
}

// checkAccess validates that [addr, addr+n) lies within a single live
// allocation, raising ErrNullDereference for the NULL address,
// ErrIndexOutOfBounds for a start address that belongs to a live
// allocation but whose access runs past its end, and ErrSegFault otherwise.
func (h *Heap) checkAccess(addr int64, n int) error {
	if addr == NullAddr {
		return diag.ErrNullDereference
	}
	b, err := h.blockFor(addr)
	if err != nil {
		return err
	}
	if addr+int64(n) > b.addr+int64(b.size) {
		return diag.ErrIndexOutOfBounds
	}
	return nil
}

// LoadByte reads one byte at addr.
func (h *Heap) LoadByte(addr int64) (byte, error) {
	if err := h.checkAccess(addr, 1); err != nil {
		return 0, err
	}
	return h.buf[addr], nil
}

// StoreByte writes one byte at addr.
func (h *Heap) StoreByte(addr int64, v byte) error {
	if err := h.checkAccess(addr, 1); err != nil {
		return err
	}
	h.buf[addr] = v
	return nil
}

// LoadInt32 reads a little-endian 4-byte int at addr (used for both `int`
// and `float`'s bit pattern, per spec.md §4.3's fixed 4-byte sizes).
func (h *Heap) LoadInt32(addr int64) (int32, error) {
	if err := h.checkAccess(addr, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(h.buf[addr : addr+4])), nil
}

// StoreInt32 writes v as 4 little-endian bytes at addr.
func (h *Heap) StoreInt32(addr int64, v int32) error {
	if err := h.checkAccess(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.buf[addr:addr+4], uint32(v))
	return nil
}

// LoadFloat32 reads the IEEE-754 bit pattern at addr as a float64-widened
// value, matching the evaluator's use of float64 as its sole float
// representation (spec.md §4.3).
func (h *Heap) LoadFloat32(addr int64) (float64, error) {
	bits, err := h.LoadInt32(addr)
	if err != nil {
		return 0, err
	}
	return float64(int32ToFloat32(bits)), nil
}

// StoreFloat32 writes v, narrowed to float32, as its IEEE-754 bit pattern.
func (h *Heap) StoreFloat32(addr int64, v float64) error {
	return h.StoreInt32(addr, float32ToInt32(float32(v)))
}

// LoadPointer reads an 8-byte address value at addr.
func (h *Heap) LoadPointer(addr int64) (int64, error) {
	if err := h.checkAccess(addr, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(h.buf[addr : addr+8])), nil
}

// StorePointer writes an 8-byte address value at addr.
func (h *Heap) StorePointer(addr int64, v int64) error {
	if err := h.checkAccess(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(h.buf[addr:addr+8], uint64(v))
	return nil
}

// LoadBytes copies n bytes starting at addr, used by strcpy/strlen/printf
// string handling in the builtins package.
func (h *Heap) LoadBytes(addr int64, n int) ([]byte, error) {
	if err := h.checkAccess(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, h.buf[addr:addr+int64(n)])
	return out, nil
}

// StoreBytes writes data starting at addr.
func (h *Heap) StoreBytes(addr int64, data []byte) error {
	if err := h.checkAccess(addr, len(data)); err != nil {
		return err
	}
	copy(h.buf[addr:addr+int64(len(data))], data)
	return nil
}

// LoadCString reads bytes from addr up to (but not including) the first
// NUL terminator.
func (h *Heap) LoadCString(addr int64) (string, error) {
	if addr == NullAddr {
		return "", diag.ErrNullDereference
	}
	var out []byte
	for {
		b, err := h.LoadByte(addr)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		out = append(out, b)
		addr++
	}
	return string(out), nil
}

// StoreCString writes s followed by a NUL terminator starting at addr.
func (h *Heap) StoreCString(addr int64, s string) error {
	return h.StoreBytes(addr, append([]byte(s), 0))
}

// SizeOfLive returns the allocation size recorded for addr, or an error if
// addr is not the start of a live block (used by realloc to know how many
// bytes of the old block to copy).
func (h *Heap) SizeOfLive(addr int64) (int, error) {
	b, ok := h.blocks[addr]
	if !ok || b.freed {
		return 0, diag.ErrSegFault
	}
	return b.size, nil
}

// LeakedBlocks returns the addresses of every allocation still live (never
// freed) when the heap is torn down, used by the interpreter to emit
// KindLeakWarning diagnostics at program exit (spec.md §7).
func (h *Heap) LeakedBlocks() []int64 {
	var leaked []int64
	for addr, b := range h.blocks {
		if !b.freed {
			leaked = append(leaked, addr)
		}
	}
	return leaked
}

// SizeOf re-exports types.SizeOf for callers that only import memory.
func SizeOf(t types.Type) int { return types.SizeOf(t) }
