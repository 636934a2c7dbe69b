package vm

import (
	"math"
	"math/big"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Undefined, false},
		{NewInt(0), false},
		{NewInt(-3), true},
		{Float(0), false},
		{Float(math.NaN()), true},
		{Complex(0), false},
		{Complex(1i), true},
		{Bool(false), false},
		{String(""), false},
		{String("x"), true},
		{NewList(), false},
		{NewList(Undefined), true},
		{NewTuple(), false},
		{NewMap(), false},
		{&Function{}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%s) = %v, want %v", Repr(tt.v), got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	m1, _ := MapOf(String("a"), NewInt(1), String("b"), NewInt(2))
	m2, _ := MapOf(String("b"), NewInt(2), String("a"), Float(1))
	tests := []struct {
		a, b Value
		want bool
	}{
		{NewInt(1), Float(1), true},
		{NewInt(1), Bool(true), true},
		{Float(2), Complex(2), true},
		{IntFromBig(new(big.Int).Lsh(big.NewInt(1), 80)), Float(math.Ldexp(1, 80)), true},
		{Float(math.NaN()), Float(math.NaN()), false},
		{String("a"), String("a"), true},
		{String("1"), NewInt(1), false},
		{NewList(NewInt(1), NewInt(2)), NewList(Float(1), NewInt(2)), true},
		{NewList(NewInt(1)), NewTuple(NewInt(1)), false},
		{m1, m2, true},
		{Undefined, Undefined, true},
		{Undefined, NewInt(0), false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", Repr(tt.a), Repr(tt.b), got, tt.want)
		}
	}
}

func TestIdentical(t *testing.T) {
	l := NewList(NewInt(1))
	if !Identical(l, l) {
		t.Error("a list is not identical to itself")
	}
	if Identical(l, NewList(NewInt(1))) {
		t.Error("distinct lists are identical")
	}
	if !Identical(NewInt(5), NewInt(5)) {
		t.Error("equal ints are not identical")
	}
	if Identical(NewInt(1), Float(1)) {
		t.Error("int and float are identical")
	}
}

func TestMapKeysNormalizeNumbers(t *testing.T) {
	m := NewMap()
	m, err := m.With(NewInt(1), String("int"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []Value{NewInt(1), Float(1), Bool(true)} {
		v, ok, err := m.Get(k)
		if err != nil || !ok || v != String("int") {
			t.Errorf("Get(%s) = %v, %v, %v", Repr(k), v, ok, err)
		}
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	m2, err := m.With(NewTuple(NewInt(1), String("a")), NewInt(2))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m2.Get(NewTuple(Float(1), String("a"))); !ok {
		t.Error("tuple key with equal items not found")
	}
	if m.Len() != 1 {
		t.Error("With modified the receiver")
	}
}

func TestMapRejectsUnhashableKeys(t *testing.T) {
	for _, k := range []Value{NewList(), NewMap(), &Function{}, NewTuple(NewList())} {
		if _, err := NewMap().With(k, NewInt(1)); !IsKind(err, KindOperation) {
			t.Errorf("With(%s) error = %v, want OperationError", Repr(k), err)
		}
	}
}

func TestMapWithout(t *testing.T) {
	m, _ := MapOf(String("a"), NewInt(1), String("b"), NewInt(2), String("c"), NewInt(3))
	out, v, ok, err := m.Without(String("b"))
	if err != nil || !ok || Repr(v) != "2" {
		t.Fatalf("Without = %v, %v, %v", v, ok, err)
	}
	if got := Repr(out); got != `{"a": 1, "c": 3}` {
		t.Errorf("after Without = %s", got)
	}
	if got := Repr(m); got != `{"a": 1, "b": 2, "c": 3}` {
		t.Errorf("receiver changed to %s", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{1, "1.0"},
		{0.1, "0.1"},
		{-0.5, "-0.5"},
		{123456789, "123456789.0"},
		{1e16, "1e+16"},
		{1.5e-5, "1.5e-05"},
		{0.0001, "0.0001"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.f); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestStrAndRepr(t *testing.T) {
	v := NewList(String("a"), NewTuple(NewInt(1)), Complex(2i), Undefined, Bool(true))
	if got := Repr(v); got != `["a", (1,), 2j, Undefined, True]` {
		t.Errorf("Repr = %s", got)
	}
	if got := Str(String("a")); got != "a" {
		t.Errorf("Str = %q", got)
	}
	if got := Repr(Complex(1 - 2i)); got != "(1-2j)" {
		t.Errorf("Repr complex = %s", got)
	}
}
