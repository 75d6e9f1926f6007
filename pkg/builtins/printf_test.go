package builtins

import (
	"bytes"
	"testing"

	"cinterp/pkg/memory"
	"cinterp/pkg/types"
	"cinterp/pkg/value"
)

// runFormat stores format in a fresh heap and any string-valued args
// pointed to by cstrArgs (keyed by argument index), then runs FormatPrintf
// and returns the rendered output.
func runFormat(t *testing.T, format string, args []value.Value, cstrArgs map[int]string) string {
	t.Helper()
	h := memory.New(1024)
	for idx, s := range cstrArgs {
		addr, err := h.Allocate(len(s) + 1)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if err := h.StoreCString(addr, s); err != nil {
			t.Fatalf("store: %v", err)
		}
		args[idx] = value.Pointer(types.Char, addr)
	}
	var buf bytes.Buffer
	if _, err := FormatPrintf(h, &buf, format, args); err != nil {
		t.Fatalf("FormatPrintf(%q) error: %v", format, err)
	}
	return buf.String()
}

func TestFormatPrintfConversions(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []value.Value
		cstr   map[int]string
		want   string
	}{
		{"literal percent", "100%%", nil, nil, "100%"},
		{"decimal", "%d", []value.Value{value.Int(42)}, nil, "42"},
		{"negative decimal", "%d", []value.Value{value.Int(-7)}, nil, "-7"},
		{"i alias for d", "%i", []value.Value{value.Int(9)}, nil, "9"},
		{"unsigned", "%u", []value.Value{value.Int(9)}, nil, "9"},
		{"octal", "%o", []value.Value{value.Int(8)}, nil, "10"},
		{"hex lower", "%x", []value.Value{value.Int(255)}, nil, "ff"},
		{"hex upper", "%X", []value.Value{value.Int(255)}, nil, "FF"},
		{"hex alt form", "%#x", []value.Value{value.Int(255)}, nil, "0xff"},
		{"char", "%c", []value.Value{value.Int('A')}, nil, "A"},
		{"string", "%s", make([]value.Value, 1), map[int]string{0: "hi"}, "hi"},
		{"float default precision", "%f", []value.Value{value.Float(3.5)}, nil, "3.500000"},
		{"float precision", "%.2f", []value.Value{value.Float(3.14159)}, nil, "3.14"},
		{"width padding", "%5d", []value.Value{value.Int(7)}, nil, "    7"},
		{"zero padding", "%05d", []value.Value{value.Int(7)}, nil, "00007"},
		{"left align", "%-5d|", []value.Value{value.Int(7)}, nil, "7    |"},
		{"plus sign", "%+d", []value.Value{value.Int(7)}, nil, "+7"},
		{"star width", "%*d", []value.Value{value.Int(4), value.Int(7)}, nil, "   7"},
		{"precision on string truncates", "%.2s", make([]value.Value, 1), map[int]string{0: "hello"}, "he"},
		{"silent float-to-d coercion truncates toward zero", "%d", []value.Value{value.Float(1.9)}, nil, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runFormat(t, tt.format, tt.args, tt.cstr)
			if got != tt.want {
				t.Fatalf("FormatPrintf(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestFormatPrintfLiteralTextPassesThrough(t *testing.T) {
	got := runFormat(t, "a=%d, b=%d\n", []value.Value{value.Int(1), value.Int(2)}, nil)
	want := "a=1, b=2\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatPrintfTooFewArgumentsErrors(t *testing.T) {
	h := memory.New(64)
	var buf bytes.Buffer
	if _, err := FormatPrintf(h, &buf, "%d %d", []value.Value{value.Int(1)}); err == nil {
		t.Fatalf("expected an error for too few arguments")
	}
}
