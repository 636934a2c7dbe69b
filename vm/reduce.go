package vm

import (
	"math"
	"math/big"
	"slices"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

// Compare orders two values. Numbers compare numerically, strings
// lexicographically, lists and tuples element by element. unordered is set
// when NaN is involved.
func Compare(a, b Value) (c int, unordered bool, err error) {
	if isNumber(a) && isNumber(b) {
		if rank(a) == rankComplex || rank(b) == rankComplex {
			return 0, false, errorf(KindOperation, "complex numbers cannot be ordered")
		}
		c, unordered = compareReal(a, b)
		return c, unordered, nil
	}
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			switch {
			case x < y:
				return -1, false, nil
			case x > y:
				return 1, false, nil
			}
			return 0, false, nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return compareItems(x.Items, y.Items)
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return compareItems(x.Items, y.Items)
		}
	}
	return 0, false, errorf(KindOperation, "comparison not supported between instances of '%s' and '%s'", a.Type(), b.Type())
}

func compareItems(a, b []Value) (int, bool, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if Equal(a[i], b[i]) {
			continue
		}
		return Compare(a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return -1, false, nil
	case len(a) > len(b):
		return 1, false, nil
	}
	return 0, false, nil
}

// sortValues returns a sorted copy of items.
func sortValues(items []Value) ([]Value, error) {
	out := slices.Clone(items)
	var err error
	sort.SliceStable(out, func(i, j int) bool {
		c, _, e := Compare(out[i], out[j])
		if e != nil && err == nil {
			err = e
		}
		return c < 0
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Iteration and membership
// ---------------------------------------------------------------------------

// Elements returns what a for loop iterates: sequence items, string
// characters, or map keys.
func Elements(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		return x.Items, nil
	case *Tuple:
		return x.Items, nil
	case *Map:
		return x.keys, nil
	case String:
		out := make([]Value, 0, len(x))
		for _, r := range string(x) {
			out = append(out, String(r))
		}
		return out, nil
	}
	return nil, errorf(KindOperation, "'%s' object is not iterable", v.Type())
}

// contains implements elem in container.
func contains(container, elem Value) (bool, error) {
	switch x := container.(type) {
	case *List:
		return slices.ContainsFunc(x.Items, func(v Value) bool { return Equal(v, elem) }), nil
	case *Tuple:
		return slices.ContainsFunc(x.Items, func(v Value) bool { return Equal(v, elem) }), nil
	case *Map:
		_, ok, err := x.Get(elem)
		return ok, err
	case String:
		s, ok := elem.(String)
		if !ok {
			return false, errorf(KindOperation, "'in <string>' requires string as left operand, not %s", elem.Type())
		}
		return strings.Contains(string(x), string(s)), nil
	}
	return false, errorf(KindOperation, "argument of type '%s' is not iterable", container.Type())
}

// ---------------------------------------------------------------------------
// Reductions
// ---------------------------------------------------------------------------

// sum implements &: the sum or join of a collection, or the imaginary part of
// a complex number.
func sum(v Value) (Value, error) {
	var items []Value
	switch x := v.(type) {
	case Complex:
		return Float(imag(complex128(x))), nil
	case *List:
		items = x.Items
	case *Tuple:
		items = x.Items
	case *Map:
		items = x.vals
	default:
		return v, nil
	}
	if len(items) == 0 {
		return NewInt(0), nil
	}
	acc := items[0]
	for _, item := range items[1:] {
		next, err := add(acc, item)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

// length implements #.
func length(v Value) Value {
	switch x := v.(type) {
	case *List:
		return NewInt(int64(len(x.Items)))
	case *Tuple:
		return NewInt(int64(len(x.Items)))
	case *Map:
		return NewInt(int64(x.Len()))
	case String:
		return NewInt(int64(len([]rune(string(x)))))
	case *Function:
		return NewInt(int64(len(x.Params)))
	case *Alias:
		return NewInt(int64(len(x.Fn.Params)))
	case Complex:
		return Float(real(complex128(x)))
	}
	return NewInt(0)
}

// extreme implements !< and !>.
func extreme(v Value, wantMax bool) (Value, error) {
	var items []Value
	switch x := v.(type) {
	case *List, *Tuple, *Map, String:
		items, _ = Elements(x)
	default:
		return v, nil
	}
	if len(items) == 0 {
		name := "min"
		if wantMax {
			name = "max"
		}
		return nil, errorf(KindOperation, "%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, item := range items[1:] {
		c, unordered, err := Compare(item, best)
		if err != nil {
			return nil, err
		}
		if unordered {
			continue
		}
		if (wantMax && c > 0) || (!wantMax && c < 0) {
			best = item
		}
	}
	return best, nil
}

// flatten recursively splices nested lists and tuples into one list.
func flatten(v Value) Value {
	var out []Value
	var walk func(items []Value)
	walk = func(items []Value) {
		for _, item := range items {
			switch x := item.(type) {
			case *List:
				walk(x.Items)
			case *Tuple:
				walk(x.Items)
			default:
				out = append(out, item)
			}
		}
	}
	switch x := v.(type) {
	case *List:
		walk(x.Items)
	case *Tuple:
		walk(x.Items)
	default:
		return v
	}
	return NewList(out...)
}

// sorted implements <>.
func sorted(v Value) (Value, error) {
	switch x := v.(type) {
	case *List:
		items, err := sortValues(x.Items)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *Tuple:
		items, err := sortValues(x.Items)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *Map:
		items, err := sortValues(x.vals)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case String:
		r := []rune(string(x))
		slices.Sort(r)
		return String(r), nil
	}
	return v, nil
}

// stats implements ?: summary statistics of a collection of real numbers.
func stats(v Value) (Value, error) {
	var items []Value
	switch x := v.(type) {
	case *List:
		items = x.Items
	case *Tuple:
		items = x.Items
	default:
		return nil, errorf(KindOperation, "statistics need a list of numbers, not %s", v.Type())
	}
	if len(items) == 0 {
		return nil, errorf(KindOperation, "statistics need at least one data point")
	}
	for _, item := range items {
		if !isNumber(item) || rank(item) == rankComplex {
			return nil, errorf(KindOperation, "statistics need real numbers, not %s", item.Type())
		}
	}
	data, err := sortValues(items)
	if err != nil {
		return nil, err
	}
	total, err := sum(NewList(data...))
	if err != nil {
		return nil, err
	}
	n := len(data)
	mean := toFloat(total) / float64(n)
	var sq float64
	for _, d := range data {
		diff := toFloat(d) - mean
		sq += diff * diff
	}
	lower, upper := data[:n/2], data[(n+1)/2:]
	if n == 1 {
		lower, upper = data, data
	}
	return MapOf(
		String("average"), Float(mean),
		String("minimum"), data[0],
		String("median"), median(data),
		String("maximum"), data[n-1],
		String("size"), NewInt(int64(n)),
		String("sum"), total,
		String("stddev"), Float(math.Sqrt(sq/float64(n))),
		String("q1"), median(lower),
		String("q3"), median(upper),
	)
}

// median of sorted data; the mean of the middle pair for even lengths.
func median(data []Value) Value {
	n := len(data)
	if n%2 == 1 {
		return data[n/2]
	}
	a, b := data[n/2-1], data[n/2]
	x, aInt := toBig(a)
	y, bInt := toBig(b)
	if aInt && bInt {
		s := new(big.Int).Add(x, y)
		if s.Bit(0) == 0 {
			return Float(toFloat(Int{s.Rsh(s, 1)}))
		}
	}
	return Float((toFloat(a) + toFloat(b)) / 2)
}

// ---------------------------------------------------------------------------
// Ranges
// ---------------------------------------------------------------------------

// makeRange builds [start to stop by step]; closed ranges include stop.
func makeRange(start, stop, step Value, closed bool, limit int) (Value, error) {
	a, ok1 := toBig(start)
	b, ok2 := toBig(stop)
	if !ok1 || !ok2 {
		return nil, errorf(KindOperation, "range bounds must be integers")
	}
	s := bigOne
	if step != nil {
		var ok bool
		if s, ok = toBig(step); !ok {
			return nil, errorf(KindOperation, "range step must be an integer")
		}
		if s.Sign() == 0 {
			return nil, errorf(KindOperation, "range step cannot be zero")
		}
	}
	end := new(big.Int).Set(b)
	if closed {
		if s.Sign() > 0 {
			end.Add(end, bigOne)
		} else {
			end.Sub(end, bigOne)
		}
	}
	// count = ceil((end - a) / s) when positive.
	span := new(big.Int).Sub(end, a)
	if span.Sign() != 0 && span.Sign() != s.Sign() {
		return NewList(), nil
	}
	count := new(big.Int).Quo(new(big.Int).Add(span, new(big.Int).Sub(s, big.NewInt(int64(s.Sign())))), s)
	if count.Cmp(big.NewInt(int64(limit))) > 0 {
		return nil, errorf(KindOperation, "Range of %s elements exceeds the limit of %d.", count, limit)
	}
	items := make([]Value, 0, count.Int64())
	cur := new(big.Int).Set(a)
	for range count.Int64() {
		items = append(items, Int{new(big.Int).Set(cur)})
		cur.Add(cur, s)
	}
	return NewList(items...), nil
}
