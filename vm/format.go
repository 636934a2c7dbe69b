package vm

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/dicelang/compiler"
)

// Str renders v the way print shows it: strings bare, everything else as Repr.
func Str(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return Repr(v)
}

// Repr renders v as dicelang source where possible.
func Repr(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v, false)
	return sb.String()
}

// EncodeLiteral renders v as a single-line literal that DecodeLiteral reads
// back. Function closures are written as an enclosing block of assignments.
func EncodeLiteral(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v, true)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value, literal bool) {
	switch x := v.(type) {
	case UndefinedValue:
		sb.WriteString("Undefined")
	case Bool:
		if x {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case Int:
		sb.WriteString(x.V.String())
	case Float:
		sb.WriteString(formatFloat(float64(x)))
	case Complex:
		writeComplex(sb, complex128(x), literal)
	case String:
		sb.WriteString(compiler.Quote(string(x)))
	case *List:
		sb.WriteByte('[')
		writeItems(sb, x.Items, literal)
		sb.WriteByte(']')
	case *Tuple:
		sb.WriteByte('(')
		writeItems(sb, x.Items, literal)
		if len(x.Items) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case *Map:
		sb.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, k, literal)
			sb.WriteString(": ")
			writeValue(sb, x.vals[i], literal)
		}
		sb.WriteByte('}')
	case *Function:
		writeFunction(sb, x, literal)
	case *Alias:
		sb.WriteString("Alias(")
		writeFunction(sb, x.Fn, literal)
		sb.WriteByte(')')
	}
}

func writeItems(sb *strings.Builder, items []Value, literal bool) {
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValue(sb, item, literal)
	}
}

func writeFunction(sb *strings.Builder, fn *Function, literal bool) {
	lambda := &compiler.Function{Params: fn.Params, Body: fn.Body}
	if !literal {
		sb.WriteString(compiler.Decompile(lambda))
		return
	}
	env := fn.Closure.flatten()
	if len(env) == 0 {
		sb.WriteString(compiler.DecompileCompact(lambda))
		return
	}
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	slices.Sort(names)
	sb.WriteString("begin ")
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(" = ")
		writeValue(sb, env[name], true)
		sb.WriteString("; ")
	}
	sb.WriteString(compiler.DecompileCompact(lambda))
	sb.WriteString(" end")
}

// formatFloat renders f with the shortest round-tripping digits, switching to
// exponent form below 1e-4 and from 1e16 up.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func complexPart(f float64) string {
	return strings.TrimSuffix(formatFloat(f), ".0")
}

func writeComplex(sb *strings.Builder, c complex128, literal bool) {
	re, im := real(c), imag(c)
	finite := !math.IsInf(re, 0) && !math.IsNaN(re) && !math.IsInf(im, 0) && !math.IsNaN(im)
	if literal && !finite {
		// inf and nan have no imaginary literal; spell the parts out.
		sb.WriteString("(" + formatFloat(re) + " + " + formatFloat(im) + " * 1j)")
		return
	}
	if re == 0 && !math.Signbit(re) {
		sb.WriteString(complexPart(im) + "j")
		return
	}
	sb.WriteByte('(')
	sb.WriteString(complexPart(re))
	if im >= 0 || math.IsNaN(im) {
		sb.WriteByte('+')
	}
	sb.WriteString(complexPart(im))
	sb.WriteString("j)")
}
