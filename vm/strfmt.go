package vm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// formatArgs spreads a tuple or list into format arguments.
func formatArgs(v Value) []Value {
	switch x := v.(type) {
	case *Tuple:
		return x.Items
	case *List:
		return x.Items
	}
	return []Value{v}
}

// formatPercent implements "text" % args with the verbs %s %r %d %i %f and %%,
// each optionally carrying flags, width and precision.
func formatPercent(format string, arg Value) (string, error) {
	args := formatArgs(arg)
	if _, ok := arg.(*List); ok {
		args = []Value{arg}
	}
	var sb strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ 0#", format[j]) >= 0 {
			j++
		}
		for j < len(format) && (format[j] == '.' || (format[j] >= '0' && format[j] <= '9')) {
			j++
		}
		if j >= len(format) {
			return "", errorf(KindOperation, "incomplete format")
		}
		spec, verb := format[i+1:j], format[j]
		i = j
		if verb == '%' {
			sb.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return "", errorf(KindOperation, "not enough arguments for format string")
		}
		a := args[next]
		next++
		switch verb {
		case 's':
			sb.WriteString(fmt.Sprintf("%"+spec+"s", Str(a)))
		case 'r':
			sb.WriteString(fmt.Sprintf("%"+spec+"s", Repr(a)))
		case 'd', 'i':
			n, err := integerArg(a)
			if err != nil {
				return "", err
			}
			sb.WriteString(fmt.Sprintf("%"+spec+"d", n))
		case 'f', 'F', 'e', 'g':
			if !isNumber(a) || rank(a) == rankComplex {
				return "", errorf(KindOperation, "%%%c format: a real number is required, not %s", verb, a.Type())
			}
			sb.WriteString(fmt.Sprintf("%"+spec+string(verb), toFloat(a)))
		default:
			return "", errorf(KindOperation, "unsupported format character '%c'", verb)
		}
	}
	if next < len(args) {
		return "", errorf(KindOperation, "not all arguments converted during string formatting")
	}
	return sb.String(), nil
}

func integerArg(a Value) (*big.Int, error) {
	if n, ok := toBig(a); ok {
		return n, nil
	}
	if f, ok := a.(Float); ok {
		n, _ := big.NewFloat(float64(f)).Int(nil)
		return n, nil
	}
	return nil, errorf(KindOperation, "%%d format: a number is required, not %s", a.Type())
}

// formatBraces fills {} and {N} placeholders from arg. {{ and }} are literal braces.
func formatBraces(format string, arg Value) (string, error) {
	args := formatArgs(arg)
	var sb strings.Builder
	auto := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return "", errorf(KindOperation, "Single '{' encountered in format string")
			}
			field := format[i+1 : i+end]
			idx := auto
			if field == "" {
				auto++
			} else {
				n, err := strconv.Atoi(field)
				if err != nil {
					return "", errorf(KindOperation, "invalid placeholder {%s}", field)
				}
				idx = n
			}
			if idx < 0 || idx >= len(args) {
				return "", errorf(KindOperation, "Replacement index %d out of range for positional args tuple", idx)
			}
			sb.WriteString(Str(args[idx]))
			i += end
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
