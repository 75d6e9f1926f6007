// Package builtins implements the runtime library: printf and the
// string/heap primitives. Builtins are first-class entries in a registry
// keyed by name and dispatched through one native-call branch in the
// evaluator, rather than interpreted like ordinary function bodies.
package builtins

import (
	"fmt"
	"io"

	"cinterp/pkg/diag"
	"cinterp/pkg/memory"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// Func is one builtin's native implementation.
type Func func(h *memory.Heap, out io.Writer, args []value.Value) (value.Value, error)

// Registry maps a builtin's name to its implementation and declared arity
// (-1 means variadic, for printf).
var Registry = map[string]struct {
	Arity int
	Impl  Func
}{
	"printf":  {-1, builtinPrintf},
	"strlen":  {1, builtinStrlen},
	"strcpy":  {2, builtinStrcpy},
	"strcmp":  {2, builtinStrcmp},
	"malloc":  {1, builtinMalloc},
	"free":    {1, builtinFree},
	"realloc": {2, builtinRealloc},
}

// IsBuiltin reports whether name names a builtin, used by the evaluator's
// call dispatch to choose the native path over an interpreted one.
func IsBuiltin(name string) bool {
	_, ok := Registry[name]
	return ok
}

func builtinMalloc(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	n := int(args[0].AsInt64())
	if n == 0 {
		// malloc(0) may return null or a unique non-dereferenceable
		// pointer; this implementation always returns null.
		return value.Pointer(types.Char, memory.NullAddr), nil
	}
	addr, err := h.Allocate(n)
	if err != nil {
		return value.Value{}, err
	}
	return value.Pointer(types.Char, addr), nil
}

func builtinFree(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	if err := h.Free(args[0].Addr); err != nil {
		return value.Value{}, err
	}
	return value.Void(), nil
}

func builtinRealloc(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	oldAddr := args[0].Addr
	n := int(args[1].AsInt64())

	if oldAddr == memory.NullAddr {
		return builtinMalloc(h, nil, args[1:])
	}

	oldSize, err := h.SizeOfLive(oldAddr)
	if err != nil {
		return value.Value{}, err
	}
	newAddr, err := h.Allocate(n)
	if err != nil {
		return value.Value{}, err
	}
	toCopy := oldSize
	if n < toCopy {
		toCopy = n
	}
	data, err := h.LoadBytes(oldAddr, toCopy)
	if err != nil {
		return value.Value{}, err
	}
	if err := h.StoreBytes(newAddr, data); err != nil {
		return value.Value{}, err
	}
	if err := h.Free(oldAddr); err != nil {
		return value.Value{}, err
	}
	return value.Pointer(types.Char, newAddr), nil
}

func builtinStrlen(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	s, err := h.LoadCString(args[0].Addr)
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(len(s))), nil
}

func builtinStrcpy(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	dst, src := args[0].Addr, args[1].Addr
	s, err := h.LoadCString(src)
	if err != nil {
		return value.Value{}, err
	}
	if err := h.StoreCString(dst, s); err != nil {
		return value.Value{}, err
	}
	return value.Pointer(types.Char, dst), nil
}

func builtinStrcmp(h *memory.Heap, _ io.Writer, args []value.Value) (value.Value, error) {
	a, err := h.LoadCString(args[0].Addr)
	if err != nil {
		return value.Value{}, err
	}
	b, err := h.LoadCString(args[1].Addr)
	if err != nil {
		return value.Value{}, err
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i <= n; i++ {
		ca, cb := byteAt(a, i), byteAt(b, i)
		if ca != cb {
			return value.Int(int64(ca) - int64(cb)), nil
		}
	}
	return value.Int(0), nil
}

// byteAt returns the byte at i, or the NUL terminator (0) once i reaches
// or passes the end of s, so strcmp compares the terminator itself as the
// first differing byte when one string is a prefix of the other.
func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

// builtinPrintf re-implements C's printf from scratch rather than
// delegating to Go's fmt verbs, so conversion semantics (argument
// coercion, '%d' on a float, '%s' reading a heap-resident C string) stay
// stable regardless of host platform.
func builtinPrintf(h *memory.Heap, out io.Writer, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, fmt.Errorf("printf requires a format argument: %w", diag.ErrArityMismatch)
	}
	format, err := h.LoadCString(args[0].Addr)
	if err != nil {
		return value.Value{}, err
	}
	written, err := FormatPrintf(h, out, format, args[1:])
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(written)), nil
}
