package builtins

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cinterp/pkg/diag"
	"cinterp/pkg/memory"
	"cinterp/pkg/value"
)

// directive is one parsed %-conversion: flags, width, precision, length
// modifier, and the conversion verb.
type directive struct {
	leftAlign  bool
	plusSign   bool
	space      bool
	zeroPad    bool
	alt        bool
	width      int
	hasWidth   bool
	precision  int
	hasPrec    bool
	verb       byte
}

// FormatPrintf scans format for %-directives, consuming one arg per
// directive (two for '*' width/precision), and writes the rendered text
// to out. It supports the d/i/u/o/x/X/c/s/f/e/g conversions, flags,
// width/precision (including '*'), and the (ignored) 'l' length modifier.
func FormatPrintf(h *memory.Heap, out io.Writer, format string, args []value.Value) (int, error) {
	var sb strings.Builder
	argIdx := 0
	nextArg := func() (value.Value, error) {
		if argIdx >= len(args) {
			return value.Value{}, fmt.Errorf("printf: too few arguments: %w", diag.ErrArityMismatch)
		}
		v := args[argIdx]
		argIdx++
		return v, nil
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			sb.WriteByte('%')
			break
		}
		if format[i] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}

		d := directive{}
		// Flags
		for i < len(format) {
			switch format[i] {
			case '-':
				d.leftAlign = true
			case '+':
				d.plusSign = true
			case ' ':
				d.space = true
			case '0':
				d.zeroPad = true
			case '#':
				d.alt = true
			default:
				goto flagsDone
			}
			i++
		}
	flagsDone:

		// Width
		if i < len(format) && format[i] == '*' {
			w, err := nextArg()
			if err != nil {
				return sb.Len(), err
			}
			d.width = int(w.AsInt64())
			d.hasWidth = true
			i++
		} else {
			start := i
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				i++
			}
			if i > start {
				d.width, _ = strconv.Atoi(format[start:i])
				d.hasWidth = true
			}
		}

		// Precision
		if i < len(format) && format[i] == '.' {
			i++
			if i < len(format) && format[i] == '*' {
				p, err := nextArg()
				if err != nil {
					return sb.Len(), err
				}
				d.precision = int(p.AsInt64())
				d.hasPrec = true
				i++
			} else {
				start := i
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					i++
				}
				d.precision, _ = strconv.Atoi(format[start:i])
				d.hasPrec = true
			}
		}

		// Length modifier 'l' (and 'll'): 64-bit integers internally
		// already, so this is accepted and ignored.
		for i < len(format) && (format[i] == 'l' || format[i] == 'h') {
			i++
		}

		if i >= len(format) {
			return sb.Len(), fmt.Errorf("printf: truncated conversion directive: %w", diag.ErrArityMismatch)
		}
		d.verb = format[i]
		i++

		rendered, err := renderDirective(h, d, nextArg)
		if err != nil {
			return sb.Len(), err
		}
		sb.WriteString(rendered)
	}

	n, err := io.WriteString(out, sb.String())
	return n, err
}

func renderDirective(h *memory.Heap, d directive, nextArg func() (value.Value, error)) (string, error) {
	switch d.verb {
	case 'd', 'i':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		return padNumeric(strconv.FormatInt(v.AsInt64(), 10), d, v.AsInt64() < 0), nil
	case 'u':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		return padNumeric(strconv.FormatUint(uint64(v.AsInt64()), 10), d, false), nil
	case 'o':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		s := strconv.FormatUint(uint64(v.AsInt64()), 8)
		if d.alt && !strings.HasPrefix(s, "0") {
			s = "0" + s
		}
		return padNumeric(s, d, false), nil
	case 'x':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		s := strconv.FormatUint(uint64(v.AsInt64()), 16)
		if d.alt {
			s = "0x" + s
		}
		return padNumeric(s, d, false), nil
	case 'X':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		s := strings.ToUpper(strconv.FormatUint(uint64(v.AsInt64()), 16))
		if d.alt {
			s = "0X" + s
		}
		return padNumeric(s, d, false), nil
	case 'c':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		return pad(string(byte(v.AsInt64())), d), nil
	case 's':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		s, err := h.LoadCString(v.Addr)
		if err != nil {
			return "", err
		}
		if d.hasPrec && d.precision < len(s) {
			s = s[:d.precision]
		}
		return pad(s, d), nil
	case 'f':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		prec := 6
		if d.hasPrec {
			prec = d.precision
		}
		s := strconv.FormatFloat(v.AsFloat64(), 'f', prec, 64)
		return padNumericWrap(withSign(s, d), d, strings.HasPrefix(s, "-"))
	case 'e':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		prec := 6
		if d.hasPrec {
			prec = d.precision
		}
		s := strconv.FormatFloat(v.AsFloat64(), 'e', prec, 64)
		return padNumericWrap(withSign(s, d), d, strings.HasPrefix(s, "-"))
	case 'g':
		v, err := nextArg()
		if err != nil {
			return "", err
		}
		prec := 6
		if d.hasPrec {
			prec = d.precision
		}
		s := strconv.FormatFloat(v.AsFloat64(), 'g', prec, 64)
		return padNumericWrap(withSign(s, d), d, strings.HasPrefix(s, "-"))
	default:
		return "", fmt.Errorf("printf: unsupported conversion %%%c: %w", d.verb, diag.ErrArityMismatch)
	}
}

func withSign(s string, d directive) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	if d.plusSign {
		return "+" + s
	}
	if d.space {
		return " " + s
	}
	return s
}

// padNumericWrap is shared by the float branches, which pre-compute sign text
// and must return (string, error) to match their caller's signature.
func padNumericWrap(s string, d directive, negative bool) (string, error) {
	return padNumeric(s, d, negative), nil
}

// pad applies width/left-alignment with spaces (never zero-padding,
// which is numeric-only) for %c and %s.
func pad(s string, d directive) string {
	if !d.hasWidth || len(s) >= d.width {
		return s
	}
	fill := strings.Repeat(" ", d.width-len(s))
	if d.leftAlign {
		return s + fill
	}
	return fill + s
}

// padNumeric applies sign/flag handling and width padding (zero-fill or
// space-fill) for the integer and float conversions.
func padNumeric(s string, d directive, negative bool) string {
	if !negative && d.verb != 'f' && d.verb != 'e' && d.verb != 'g' {
		if d.plusSign {
			s = "+" + s
		} else if d.space {
			s = " " + s
		}
	}
	if !d.hasWidth || len(s) >= d.width {
		return s
	}
	padLen := d.width - len(s)
	if d.leftAlign {
		return s + strings.Repeat(" ", padLen)
	}
	if d.zeroPad && !d.hasPrec {
		sign := ""
		digits := s
		if len(s) > 0 && (s[0] == '-' || s[0] == '+' || s[0] == ' ') {
			sign, digits = s[:1], s[1:]
		}
		return sign + strings.Repeat("0", padLen) + digits
	}
	return strings.Repeat(" ", padLen) + s
}
