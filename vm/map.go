package vm

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Map is an insertion-ordered dictionary. Keys are hashed through keyOf so
// that numerically equal keys (1, 1.0, True) collide.
type Map struct {
	keys  []Value
	vals  []Value
	index map[string]int
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{index: map[string]int{}}
}

// MapOf builds a map from alternating keys and values.
func MapOf(pairs ...Value) (*Map, error) {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := m.set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value { return append([]Value(nil), m.keys...) }

// Values returns the values in insertion order.
func (m *Map) Values() []Value { return append([]Value(nil), m.vals...) }

// Get looks up k. The error is set when k is not hashable.
func (m *Map) Get(k Value) (Value, bool, error) {
	h, err := keyOf(k)
	if err != nil {
		return nil, false, err
	}
	i, ok := m.index[h]
	if !ok {
		return nil, false, nil
	}
	return m.vals[i], true, nil
}

// With returns a copy of m with k bound to v.
func (m *Map) With(k, v Value) (*Map, error) {
	c := m.copy()
	if err := c.set(k, v); err != nil {
		return nil, err
	}
	return c, nil
}

// Without returns a copy of m with k removed, and the removed value.
func (m *Map) Without(k Value) (*Map, Value, bool, error) {
	h, err := keyOf(k)
	if err != nil {
		return nil, nil, false, err
	}
	i, ok := m.index[h]
	if !ok {
		return m, nil, false, nil
	}
	c := NewMap()
	for j := range m.keys {
		if j != i {
			c.add(m.keys[j], m.vals[j])
		}
	}
	return c, m.vals[i], true, nil
}

// Merge returns a copy of m overlaid with the entries of o.
func (m *Map) Merge(o *Map) *Map {
	c := m.copy()
	for i, k := range o.keys {
		_ = c.set(k, o.vals[i])
	}
	return c
}

// set mutates m and must only be used while m is being constructed.
func (m *Map) set(k, v Value) error {
	h, err := keyOf(k)
	if err != nil {
		return err
	}
	if i, ok := m.index[h]; ok {
		m.vals[i] = v
		return nil
	}
	m.index[h] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return nil
}

func (m *Map) add(k, v Value) {
	h, _ := keyOf(k)
	m.index[h] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *Map) copy() *Map {
	c := &Map{
		keys:  append([]Value(nil), m.keys...),
		vals:  append([]Value(nil), m.vals...),
		index: make(map[string]int, len(m.index)),
	}
	for h, i := range m.index {
		c.index[h] = i
	}
	return c
}

// keyOf returns the hash key for v, or an OperationError for unhashable values.
func keyOf(v Value) (string, error) {
	switch x := v.(type) {
	case UndefinedValue:
		return "u", nil
	case Bool:
		if x {
			return "n:1", nil
		}
		return "n:0", nil
	case Int:
		return "n:" + x.V.String(), nil
	case Float:
		return floatKey(float64(x)), nil
	case Complex:
		c := complex128(x)
		if imag(c) == 0 {
			return floatKey(real(c)), nil
		}
		return "c:" + strconv.FormatFloat(real(c), 'g', -1, 64) + "," +
			strconv.FormatFloat(imag(c), 'g', -1, 64), nil
	case String:
		return "s:" + string(x), nil
	case *Tuple:
		var sb strings.Builder
		sb.WriteString("t:")
		for _, item := range x.Items {
			k, err := keyOf(item)
			if err != nil {
				return "", err
			}
			sb.WriteString(strconv.Itoa(len(k)))
			sb.WriteByte(':')
			sb.WriteString(k)
		}
		return sb.String(), nil
	case *Function, *Alias:
		return "", errorf(KindOperation, "Functions cannot be used as keys or indices.")
	}
	return "", errorf(KindOperation, "unhashable type: '%s'", v.Type())
}

func floatKey(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if math.Abs(f) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(f), 10)
		}
		b, _ := big.NewFloat(f).Int(nil)
		return "n:" + b.String()
	}
	return "f:" + strconv.FormatFloat(f, 'g', -1, 64)
}
