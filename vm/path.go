package vm

import "slices"

// ---------------------------------------------------------------------------
// Generic path accessor
//
// Subscript and attribute assignment read the whole owning value, rebuild
// the path with the new leaf, and write the result back. Nothing is changed
// in place.
// ---------------------------------------------------------------------------

// GetPath follows keys from root.
func GetPath(root Value, keys []Value) (Value, error) {
	v := root
	for _, k := range keys {
		next, err := Index(v, k)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}

// SetPath returns a copy of root with the value at keys replaced by v.
func SetPath(root Value, keys []Value, v Value) (Value, error) {
	if len(keys) == 0 {
		return v, nil
	}
	if len(keys) == 1 {
		return withKey(root, keys[0], v)
	}
	child, err := Index(root, keys[0])
	if err != nil {
		return nil, err
	}
	updated, err := SetPath(child, keys[1:], v)
	if err != nil {
		return nil, err
	}
	return withKey(root, keys[0], updated)
}

// DeletePath returns a copy of root without the entry at keys, and the removed value.
func DeletePath(root Value, keys []Value) (Value, Value, error) {
	if len(keys) == 0 {
		return nil, nil, errorf(KindOperation, "cannot delete an empty path.")
	}
	if len(keys) == 1 {
		return withoutKey(root, keys[0])
	}
	child, err := Index(root, keys[0])
	if err != nil {
		return nil, nil, err
	}
	updated, removed, err := DeletePath(child, keys[1:])
	if err != nil {
		return nil, nil, err
	}
	out, err := withKey(root, keys[0], updated)
	if err != nil {
		return nil, nil, err
	}
	return out, removed, nil
}

// Index implements v[k] for lists, tuples, strings and maps.
func Index(v, k Value) (Value, error) {
	switch x := v.(type) {
	case *List:
		i, err := position(k, len(x.Items), x.Type())
		if err != nil {
			return nil, err
		}
		return x.Items[i], nil
	case *Tuple:
		i, err := position(k, len(x.Items), x.Type())
		if err != nil {
			return nil, err
		}
		return x.Items[i], nil
	case String:
		r := []rune(string(x))
		i, err := position(k, len(r), x.Type())
		if err != nil {
			return nil, err
		}
		return String(r[i]), nil
	case *Map:
		val, ok, err := x.Get(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errorf(KindOperation, "Key %s not found.", Repr(k))
		}
		return val, nil
	}
	return nil, errorf(KindOperation, "'%s' object is not subscriptable", v.Type())
}

// position normalizes an index, wrapping negatives.
func position(k Value, n int, kind string) (int, error) {
	switch k.(type) {
	case *Function, *Alias:
		return 0, errorf(KindOperation, "Functions cannot be used as keys or indices.")
	}
	b, ok := toBig(k)
	if !ok {
		return 0, errorf(KindOperation, "%s indices must be integers, not %s", kind, k.Type())
	}
	if !b.IsInt64() {
		return 0, errorf(KindOperation, "%s index out of range", kind)
	}
	i := b.Int64()
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, errorf(KindOperation, "%s index out of range", kind)
	}
	return int(i), nil
}

func withKey(root, k, v Value) (Value, error) {
	switch x := root.(type) {
	case *List:
		i, err := position(k, len(x.Items), x.Type())
		if err != nil {
			return nil, err
		}
		items := slices.Clone(x.Items)
		items[i] = v
		return NewList(items...), nil
	case *Map:
		return x.With(k, v)
	}
	return nil, errorf(KindOperation, "'%s' object does not support item assignment", root.Type())
}

func withoutKey(root, k Value) (Value, Value, error) {
	switch x := root.(type) {
	case *List:
		i, err := position(k, len(x.Items), x.Type())
		if err != nil {
			return nil, nil, err
		}
		return NewList(slices.Delete(slices.Clone(x.Items), i, i+1)...), x.Items[i], nil
	case *Map:
		out, removed, ok, err := x.Without(k)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, errorf(KindOperation, "Key %s not found.", Repr(k))
		}
		return out, removed, nil
	}
	return nil, nil, errorf(KindOperation, "'%s' object does not support item deletion", root.Type())
}

// ---------------------------------------------------------------------------
// Slicing
// ---------------------------------------------------------------------------

// SliceValue implements v[start:stop:step] with Python semantics. nil bounds
// are omitted.
func SliceValue(v, start, stop, step Value) (Value, error) {
	var n int
	switch x := v.(type) {
	case *List:
		n = len(x.Items)
	case *Tuple:
		n = len(x.Items)
	case String:
		n = len([]rune(string(x)))
	default:
		return nil, errorf(KindOperation, "'%s' object is not subscriptable", v.Type())
	}
	idx, err := sliceIndices(n, start, stop, step)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *List:
		return NewList(pick(x.Items, idx)...), nil
	case *Tuple:
		return NewTuple(pick(x.Items, idx)...), nil
	default:
		r := []rune(string(x.(String)))
		out := make([]rune, len(idx))
		for i, j := range idx {
			out[i] = r[j]
		}
		return String(out), nil
	}
}

func pick(items []Value, idx []int) []Value {
	out := make([]Value, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

func sliceBound(v Value, def int64, name string) (int64, error) {
	if v == nil {
		return def, nil
	}
	if _, ok := v.(UndefinedValue); ok {
		return def, nil
	}
	b, ok := toBig(v)
	if !ok {
		return 0, errorf(KindOperation, "slice %s must be an integer, not %s", name, v.Type())
	}
	if !b.IsInt64() {
		if b.Sign() < 0 {
			return -1 << 62, nil
		}
		return 1 << 62, nil
	}
	return b.Int64(), nil
}

func sliceIndices(length int, start, stop, step Value) ([]int, error) {
	n := int64(length)
	st, err := sliceBound(step, 1, "step")
	if err != nil {
		return nil, err
	}
	if st == 0 {
		return nil, errorf(KindOperation, "slice step cannot be zero")
	}
	var lo, hi int64
	if st > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = n-1, -1
	}
	a, err := sliceBound(start, lo, "start")
	if err != nil {
		return nil, err
	}
	b, err := sliceBound(stop, hi, "stop")
	if err != nil {
		return nil, err
	}
	clamp := func(i int64, explicit bool) int64 {
		if !explicit {
			return i
		}
		if i < 0 {
			i += n
			if i < 0 {
				if st < 0 {
					return -1
				}
				return 0
			}
		}
		if i >= n {
			if st < 0 {
				return n - 1
			}
			return n
		}
		return i
	}
	a = clamp(a, start != nil && !isUndefined(start))
	b = clamp(b, stop != nil && !isUndefined(stop))
	var out []int
	if st > 0 {
		for i := a; i < b; i += st {
			out = append(out, int(i))
		}
	} else {
		for i := a; i > b; i += st {
			out = append(out, int(i))
		}
	}
	return out, nil
}

func isUndefined(v Value) bool {
	_, ok := v.(UndefinedValue)
	return ok
}
