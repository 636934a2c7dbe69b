package vm

import (
	"math"
	"math/big"
	"math/cmplx"
	"slices"
)

// ---------------------------------------------------------------------------
// Numeric helpers
// ---------------------------------------------------------------------------

// numeric applies the operation matching the wider of the two operand ranks.
func numeric(a, b Value,
	fi func(x, y *big.Int) Value,
	ff func(x, y float64) Value,
	fc func(x, y complex128) Value,
) Value {
	switch max(rank(a), rank(b)) {
	case rankInt:
		x, _ := toBig(a)
		y, _ := toBig(b)
		return fi(x, y)
	case rankFloat:
		return ff(toFloat(a), toFloat(b))
	}
	return fc(toComplex(a), toComplex(b))
}

func numericAdd(a, b Value) Value {
	return numeric(a, b,
		func(x, y *big.Int) Value { return Int{new(big.Int).Add(x, y)} },
		func(x, y float64) Value { return Float(x + y) },
		func(x, y complex128) Value { return Complex(x + y) })
}

func numericSub(a, b Value) Value {
	return numeric(a, b,
		func(x, y *big.Int) Value { return Int{new(big.Int).Sub(x, y)} },
		func(x, y float64) Value { return Float(x - y) },
		func(x, y complex128) Value { return Complex(x - y) })
}

func numericMul(a, b Value) Value {
	return numeric(a, b,
		func(x, y *big.Int) Value { return Int{new(big.Int).Mul(x, y)} },
		func(x, y float64) Value { return Float(x * y) },
		func(x, y complex128) Value { return Complex(x * y) })
}

// signedInf returns the infinity of a division by a zero divisor.
func signedInf(a, b Value) Value {
	if isZero(a) || isNaN(a) {
		return Float(math.NaN())
	}
	if rank(a) == rankComplex || rank(b) == rankComplex {
		return Complex(cmplx.Inf())
	}
	neg := toFloat(a) < 0
	if f, ok := b.(Float); ok && math.Signbit(float64(f)) {
		neg = !neg
	}
	if neg {
		return Float(math.Inf(-1))
	}
	return Float(math.Inf(1))
}

// ---------------------------------------------------------------------------
// Binary arithmetic
// ---------------------------------------------------------------------------

func add(a, b Value) (Value, error) {
	if isNumber(a) && isNumber(b) {
		return numericAdd(a, b), nil
	}
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return x + y, nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return NewList(slices.Concat(x.Items, y.Items)...), nil
		}
		return NewList(append(slices.Clone(x.Items), b)...), nil
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return NewTuple(slices.Concat(x.Items, y.Items)...), nil
		}
	case *Map:
		if y, ok := b.(*Map); ok {
			return x.Merge(y), nil
		}
	}
	if y, ok := b.(*List); ok {
		return NewList(append([]Value{a}, y.Items...)...), nil
	}
	return nil, typeError("+", a, b)
}

// subtract removes elements for containers: one occurrence of every right
// element from a list or tuple, every right key from a map.
func subtract(a, b Value) (Value, error) {
	if isNumber(a) && isNumber(b) {
		return numericSub(a, b), nil
	}
	var remove []Value
	switch y := b.(type) {
	case *List:
		remove = y.Items
	case *Tuple:
		remove = y.Items
	case *Map:
		remove = y.keys
	default:
		remove = []Value{b}
	}
	switch x := a.(type) {
	case *List:
		return NewList(removeEach(x.Items, remove)...), nil
	case *Tuple:
		return NewTuple(removeEach(x.Items, remove)...), nil
	case *Map:
		out := x
		for _, k := range remove {
			m, _, _, err := out.Without(k)
			if err != nil {
				return nil, err
			}
			out = m
		}
		return out, nil
	}
	return nil, typeError("-", a, b)
}

func removeEach(items, remove []Value) []Value {
	out := slices.Clone(items)
	for _, r := range remove {
		for i, v := range out {
			if Equal(v, r) {
				out = slices.Delete(out, i, i+1)
				break
			}
		}
	}
	return out
}

// multiply multiplies numbers or repeats a sequence. limit caps the length of a
// repeated sequence.
func multiply(a, b Value, limit int) (Value, error) {
	if isNumber(a) && isNumber(b) {
		return numericMul(a, b), nil
	}
	seq, count := a, b
	if _, ok := toBig(a); ok {
		seq, count = b, a
	}
	n, ok := toBig(count)
	if !ok {
		return nil, typeError("*", a, b)
	}
	var items []Value
	var str []rune
	switch x := seq.(type) {
	case *List:
		items = x.Items
	case *Tuple:
		items = x.Items
	case String:
		str = []rune(string(x))
	default:
		return nil, typeError("*", a, b)
	}
	size := max(len(items), len(str))
	if size == 0 {
		n = bigZero
	}
	if !n.IsInt64() || (size > 0 && n.CmpAbs(big.NewInt(int64(limit/size))) > 0) {
		return nil, errorf(KindOperation, "Sequence repetition result is too large.")
	}
	times := int(n.Int64())
	reverse := times < 0
	if reverse {
		times = -times
	}
	switch x := seq.(type) {
	case String:
		if reverse {
			slices.Reverse(str)
		}
		out := make([]rune, 0, len(str)*times)
		for range times {
			out = append(out, str...)
		}
		return String(out), nil
	case *List:
		return NewList(repeatItems(x.Items, times, reverse)...), nil
	default:
		return NewTuple(repeatItems(items, times, reverse)...), nil
	}
}

func repeatItems(items []Value, times int, reverse bool) []Value {
	src := items
	if reverse {
		src = slices.Clone(items)
		slices.Reverse(src)
	}
	out := make([]Value, 0, len(src)*times)
	for range times {
		out = append(out, src...)
	}
	return out
}

func divide(a, b Value) (Value, error) {
	if !isNumber(a) || !isNumber(b) {
		return nil, typeError("/", a, b)
	}
	if isZero(b) {
		return signedInf(a, b), nil
	}
	switch max(rank(a), rank(b)) {
	case rankInt:
		x, _ := toBig(a)
		y, _ := toBig(b)
		f, _ := new(big.Rat).SetFrac(x, y).Float64()
		return Float(f), nil
	case rankFloat:
		return Float(toFloat(a) / toFloat(b)), nil
	}
	return Complex(toComplex(a) / toComplex(b)), nil
}

func floorDivide(a, b Value) (Value, error) {
	if !isNumber(a) || !isNumber(b) {
		return nil, typeError("//", a, b)
	}
	if rank(a) == rankComplex || rank(b) == rankComplex {
		return nil, errorf(KindOperation, "can't take floor of complex number.")
	}
	if isZero(b) {
		return signedInf(a, b), nil
	}
	x, xInt := toBig(a)
	y, yInt := toBig(b)
	if xInt && yInt {
		q, r := new(big.Int).QuoRem(x, y, new(big.Int))
		if r.Sign() != 0 && r.Sign() != y.Sign() {
			q.Sub(q, bigOne)
		}
		return Int{q}, nil
	}
	return Float(math.Floor(toFloat(a) / toFloat(b))), nil
}

func modulo(a, b Value) (Value, error) {
	if s, ok := a.(String); ok {
		out, err := formatPercent(string(s), b)
		if err != nil {
			return nil, err
		}
		return String(out), nil
	}
	if !isNumber(a) || !isNumber(b) {
		return nil, typeError("%", a, b)
	}
	if rank(a) == rankComplex || rank(b) == rankComplex {
		return nil, errorf(KindOperation, "can't mod complex numbers.")
	}
	if isZero(b) {
		return Float(math.NaN()), nil
	}
	x, xInt := toBig(a)
	y, yInt := toBig(b)
	if xInt && yInt {
		r := new(big.Int).Rem(x, y)
		if r.Sign() != 0 && r.Sign() != y.Sign() {
			r.Add(r, y)
		}
		return Int{r}, nil
	}
	fa, fb := toFloat(a), toFloat(b)
	r := math.Mod(fa, fb)
	if r != 0 && (r < 0) != (fb < 0) {
		r += fb
	}
	return Float(r), nil
}

// logarithm computes log_b(a), or fills {} placeholders when a is a string.
func logarithm(a, b Value) (Value, error) {
	if s, ok := a.(String); ok {
		out, err := formatBraces(string(s), b)
		if err != nil {
			return nil, err
		}
		return String(out), nil
	}
	if !isNumber(a) || !isNumber(b) {
		return nil, typeError("%%", a, b)
	}
	if rank(a) == rankComplex || rank(b) == rankComplex {
		return Complex(cmplx.Log(toComplex(a)) / cmplx.Log(toComplex(b))), nil
	}
	x, base := toFloat(a), toFloat(b)
	if x <= 0 || base <= 0 || base == 1 {
		return nil, errorf(KindOperation, "math domain error")
	}
	switch base {
	case 2:
		return Float(math.Log2(x)), nil
	case 10:
		return Float(math.Log10(x)), nil
	}
	return Float(math.Log(x) / math.Log(base)), nil
}

// catenate joins the decimal digits of two integers: 12 $ 3 == 123.
func catenate(a, b Value) (Value, error) {
	x, xInt := toBig(a)
	y, yInt := toBig(b)
	if !xInt || !yInt {
		return nil, typeError("$", a, b)
	}
	if y.Sign() < 0 {
		return nil, errorf(KindOperation, "cannot catenate a negative integer.")
	}
	n, ok := new(big.Int).SetString(x.String()+y.String(), 10)
	if !ok {
		return nil, typeError("$", a, b)
	}
	return Int{n}, nil
}

const maxShift = 1 << 20

// shift shifts integers, rotates sequences and rounds floats to n places
// (<<) or to tens (>>).
func shift(a, b Value, left bool) (Value, error) {
	op := ">>"
	if left {
		op = "<<"
	}
	n, ok := toBig(b)
	if !ok {
		return nil, typeError(op, a, b)
	}
	if !n.IsInt64() {
		return nil, errorf(KindOperation, "shift count too large.")
	}
	k := n.Int64()
	switch x := a.(type) {
	case Int, Bool:
		v, _ := toBig(x)
		if k < 0 {
			return nil, errorf(KindOperation, "negative shift count.")
		}
		if k > maxShift {
			return nil, errorf(KindOperation, "shift count too large.")
		}
		if left {
			return Int{new(big.Int).Lsh(v, uint(k))}, nil
		}
		return Int{new(big.Int).Rsh(v, uint(k))}, nil
	case Float:
		places := int(k)
		if !left {
			places = -places
		}
		return Float(roundTo(float64(x), places)), nil
	case *List:
		return NewList(rotate(x.Items, k, left)...), nil
	case *Tuple:
		return NewTuple(rotate(x.Items, k, left)...), nil
	case String:
		r := []rune(string(x))
		if len(r) == 0 {
			return x, nil
		}
		m := int(k % int64(len(r)))
		if !left {
			m = -m
		}
		m = (m%len(r) + len(r)) % len(r)
		return String(append(slices.Clone(r[m:]), r[:m]...)), nil
	}
	return nil, typeError(op, a, b)
}

func rotate(items []Value, k int64, left bool) []Value {
	n := len(items)
	if n == 0 {
		return []Value{}
	}
	m := int(k % int64(n))
	if !left {
		m = -m
	}
	m = (m%n + n) % n
	return slices.Concat(items[m:], items[:m])
}

func roundTo(f float64, places int) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) || places > 308 || places < -308 {
		return f
	}
	if places >= 0 {
		p := math.Pow10(places)
		if r := math.Round(f*p) / p; !math.IsInf(r, 0) && !math.IsNaN(r) {
			return r
		}
		return f
	}
	p := math.Pow10(-places)
	return math.Round(f/p) * p
}

// ---------------------------------------------------------------------------
// Exponentiation
// ---------------------------------------------------------------------------

// power raises a to b. Integer exponents multiply step by step and call tick
// after each step so that huge exponents hit the execution deadline.
func power(a, b Value, tick func() error) (Value, error) {
	if !isNumber(a) || !isNumber(b) {
		return nil, typeError("**", a, b)
	}
	e, intExp := toBig(b)
	if !intExp {
		if rank(a) == rankComplex || rank(b) == rankComplex {
			return Complex(cmplx.Pow(toComplex(a), toComplex(b))), nil
		}
		x, y := toFloat(a), toFloat(b)
		if x < 0 && y != math.Trunc(y) {
			return Complex(cmplx.Pow(complex(x, 0), complex(y, 0))), nil
		}
		return Float(math.Pow(x, y)), nil
	}
	if e.Sign() == 0 {
		if isZero(a) {
			return Float(math.NaN()), nil
		}
		return NewInt(1), nil
	}
	if base, ok := toBig(a); ok && base.CmpAbs(bigOne) <= 0 {
		// 0, 1 and -1 never grow.
		switch {
		case base.Sign() == 0:
			if e.Sign() < 0 {
				return Float(math.Inf(1)), nil
			}
			return NewInt(0), nil
		case base.Sign() < 0 && e.Bit(0) == 1:
			return NewInt(-1), nil
		}
		return NewInt(1), nil
	}
	out := Value(NewInt(1))
	steps := new(big.Int).Abs(e)
	for i := new(big.Int); i.Cmp(steps) < 0; i.Add(i, bigOne) {
		out = numericMul(out, a)
		if err := tick(); err != nil {
			return nil, err
		}
	}
	if e.Sign() < 0 {
		return divide(NewInt(1), out)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Unary arithmetic
// ---------------------------------------------------------------------------

func negate(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		return Int{new(big.Int).Neg(x.V)}, nil
	case Bool:
		n, _ := toBig(x)
		return Int{new(big.Int).Neg(n)}, nil
	case Float:
		return -x, nil
	case Complex:
		return -x, nil
	case String:
		r := []rune(string(x))
		slices.Reverse(r)
		return String(r), nil
	case *List:
		items := slices.Clone(x.Items)
		slices.Reverse(items)
		return NewList(items...), nil
	case *Tuple:
		items := slices.Clone(x.Items)
		slices.Reverse(items)
		return NewTuple(items...), nil
	}
	return nil, unaryTypeError("-", v)
}

// positive implements unary +: absolute value, or the real part of a complex.
func positive(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		return Int{new(big.Int).Abs(x.V)}, nil
	case Bool:
		n, _ := toBig(x)
		return Int{n}, nil
	case Float:
		return Float(math.Abs(float64(x))), nil
	case Complex:
		return Float(real(complex128(x))), nil
	}
	return nil, unaryTypeError("+", v)
}

// magnitude implements |x|: absolute value for numbers, flattening for
// sequences.
func magnitude(v Value) Value {
	switch x := v.(type) {
	case Int, Bool, Float:
		p, _ := positive(x)
		return p
	case Complex:
		return Float(cmplx.Abs(complex128(x)))
	case *List, *Tuple:
		return flatten(x)
	}
	return v
}
