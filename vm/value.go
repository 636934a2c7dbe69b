package vm

import (
	"math"
	"math/big"
	"math/cmplx"

	"github.com/chazu/dicelang/compiler"
)

// ---------------------------------------------------------------------------
// Value: the closed set of runtime values
// ---------------------------------------------------------------------------

// Value is implemented by every dicelang runtime value. Containers are never
// mutated after construction; operations that change one return a new value.
type Value interface {
	// Type returns the name reported by typeof.
	Type() string
	value()
}

// UndefinedValue is the type of Undefined.
type UndefinedValue struct{}

// Undefined is the value of unbound names and empty results.
var Undefined Value = UndefinedValue{}

// Int is an arbitrary-precision integer. The wrapped big.Int is never modified.
type Int struct{ V *big.Int }

// Float is a double-precision float.
type Float float64

// Complex is a complex number.
type Complex complex128

// Bool is True or False.
type Bool bool

// String is a string value.
type String string

// List is an ordered sequence.
type List struct{ Items []Value }

// Tuple is a fixed sequence.
type Tuple struct{ Items []Value }

// Function is a user-defined or builtin function. Closure holds the scopes that
// were visible when the function was defined; This is bound for a single call
// when the function is read from a map through an attribute.
type Function struct {
	Params  []string
	Body    *compiler.Block
	Closure Snapshot
	This    Value
}

// Alias wraps a zero-parameter function that is called whenever it is referenced.
type Alias struct{ Fn *Function }

func (UndefinedValue) Type() string { return "Undefined" }
func (Int) Type() string            { return "int" }
func (Float) Type() string          { return "float" }
func (Complex) Type() string        { return "complex" }
func (Bool) Type() string           { return "bool" }
func (String) Type() string         { return "str" }
func (*List) Type() string          { return "list" }
func (*Tuple) Type() string         { return "tuple" }
func (*Map) Type() string           { return "dict" }
func (*Function) Type() string      { return "func" }
func (*Alias) Type() string         { return "func" }

func (UndefinedValue) value() {}
func (Int) value()            {}
func (Float) value()          {}
func (Complex) value()        {}
func (Bool) value()           {}
func (String) value()         {}
func (*List) value()          {}
func (*Tuple) value()         {}
func (*Map) value()           {}
func (*Function) value()      {}
func (*Alias) value()         {}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewInt returns an Int holding n.
func NewInt(n int64) Int { return Int{big.NewInt(n)} }

// IntFromBig wraps n. The caller must not modify n afterwards.
func IntFromBig(n *big.Int) Int { return Int{n} }

// NewList returns a list over items.
func NewList(items ...Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{Items: items}
}

// NewTuple returns a tuple over items.
func NewTuple(items ...Value) *Tuple {
	if items == nil {
		items = []Value{}
	}
	return &Tuple{Items: items}
}

// String returns the decimal form of the integer.
func (i Int) String() string { return i.V.String() }

// Int64 reports the value as an int64 when it fits.
func (i Int) Int64() (int64, bool) {
	if !i.V.IsInt64() {
		return 0, false
	}
	return i.V.Int64(), true
}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// ---------------------------------------------------------------------------
// Truthiness, identity, equality
// ---------------------------------------------------------------------------

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case UndefinedValue:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x.V.Sign() != 0
	case Float:
		return x != 0
	case Complex:
		return x != 0
	case String:
		return x != ""
	case *List:
		return len(x.Items) > 0
	case *Tuple:
		return len(x.Items) > 0
	case *Map:
		return x.Len() > 0
	}
	return true
}

// Identical implements the is operator: the same variant holding the same
// scalar, or the very same container.
func Identical(a, b Value) bool {
	switch x := a.(type) {
	case UndefinedValue:
		_, ok := b.(UndefinedValue)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x.V.Cmp(y.V) == 0
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case Complex:
		y, ok := b.(Complex)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && x == y
	case *Map:
		y, ok := b.(*Map)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *Alias:
		y, ok := b.(*Alias)
		return ok && x == y
	}
	return false
}

// Equal implements ==. Numbers compare by value across int, float, complex and
// bool; functions compare by parameters and decompiled body.
func Equal(a, b Value) bool {
	if isNumber(a) && isNumber(b) {
		return numbersEqual(a, b)
	}
	switch x := a.(type) {
	case UndefinedValue:
		_, ok := b.(UndefinedValue)
		return ok
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && itemsEqual(x.Items, y.Items)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && itemsEqual(x.Items, y.Items)
	case *Map:
		y, ok := b.(*Map)
		return ok && mapsEqual(x, y)
	case *Function:
		y, ok := b.(*Function)
		return ok && functionsEqual(x, y)
	case *Alias:
		y, ok := b.(*Alias)
		return ok && functionsEqual(x.Fn, y.Fn)
	}
	return false
}

func itemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func mapsEqual(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, k := range a.keys {
		v, ok, err := b.Get(k)
		if err != nil || !ok || !Equal(a.vals[i], v) {
			return false
		}
	}
	return true
}

func functionsEqual(a, b *Function) bool {
	if a == b {
		return true
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return compiler.DecompileCompact(a.Body) == compiler.DecompileCompact(b.Body)
}

func numbersEqual(a, b Value) bool {
	switch max(rank(a), rank(b)) {
	case rankInt:
		x, _ := toBig(a)
		y, _ := toBig(b)
		return x.Cmp(y) == 0
	case rankFloat:
		c, unordered := compareReal(a, b)
		return !unordered && c == 0
	}
	return toComplex(a) == toComplex(b)
}

// ---------------------------------------------------------------------------
// Numeric tower
// ---------------------------------------------------------------------------

const (
	rankNone = iota - 1
	rankInt
	rankFloat
	rankComplex
)

func rank(v Value) int {
	switch v.(type) {
	case Int, Bool:
		return rankInt
	case Float:
		return rankFloat
	case Complex:
		return rankComplex
	}
	return rankNone
}

func isNumber(v Value) bool { return rank(v) != rankNone }

func toBig(v Value) (*big.Int, bool) {
	switch x := v.(type) {
	case Int:
		return x.V, true
	case Bool:
		if x {
			return bigOne, true
		}
		return bigZero, true
	}
	return nil, false
}

func toFloat(v Value) float64 {
	switch x := v.(type) {
	case Int:
		if x.V.IsInt64() {
			return float64(x.V.Int64())
		}
		f, _ := new(big.Float).SetInt(x.V).Float64()
		return f
	case Bool:
		if x {
			return 1
		}
		return 0
	case Float:
		return float64(x)
	case Complex:
		return real(complex128(x))
	}
	return math.NaN()
}

func toComplex(v Value) complex128 {
	if c, ok := v.(Complex); ok {
		return complex128(c)
	}
	return complex(toFloat(v), 0)
}

// compareReal orders two non-complex numbers. unordered is set when either is NaN.
func compareReal(a, b Value) (c int, unordered bool) {
	x, xInt := toBig(a)
	y, yInt := toBig(b)
	if xInt && yInt {
		return x.Cmp(y), false
	}
	fa, fb := toFloat(a), toFloat(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, true
	}
	if math.IsInf(fa, 0) || math.IsInf(fb, 0) || (!xInt && !yInt) {
		switch {
		case fa < fb:
			return -1, false
		case fa > fb:
			return 1, false
		}
		return 0, false
	}
	// One side is an integer that may not fit in a float64 exactly.
	bx := new(big.Float)
	by := new(big.Float)
	if xInt {
		bx.SetInt(x)
	} else {
		bx.SetFloat64(fa)
	}
	if yInt {
		by.SetInt(y)
	} else {
		by.SetFloat64(fb)
	}
	return bx.Cmp(by), false
}

func isZero(v Value) bool {
	switch x := v.(type) {
	case Int:
		return x.V.Sign() == 0
	case Bool:
		return !bool(x)
	case Float:
		return x == 0
	case Complex:
		return x == 0
	}
	return false
}

func isNaN(v Value) bool {
	switch x := v.(type) {
	case Float:
		return math.IsNaN(float64(x))
	case Complex:
		return cmplx.IsNaN(complex128(x))
	}
	return false
}
