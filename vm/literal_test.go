package vm

import (
	"math"
	"testing"
)

func TestLiteralRoundTrip(t *testing.T) {
	m, _ := MapOf(String("k"), NewList(NewInt(1), Float(2.5)), NewInt(3), NewTuple(String("x")))
	tests := []struct {
		v    Value
		want string
	}{
		{NewInt(42), "42"},
		{NewInt(-7), "-7"},
		{Float(1.5), "1.5"},
		{Float(math.Inf(1)), "inf"},
		{Float(math.Inf(-1)), "-inf"},
		{Complex(1 + 2i), "(1+2j)"},
		{Complex(-1 - 2i), "(-1-2j)"},
		{String("a\"b\n"), `"a\"b\n"`},
		{Bool(false), "False"},
		{Undefined, "Undefined"},
		{NewTuple(NewInt(1)), "(1,)"},
		{NewTuple(), "()"},
		{m, `{"k": [1, 2.5], 3: ("x",)}`},
	}
	for _, tt := range tests {
		text := EncodeLiteral(tt.v)
		if text != tt.want {
			t.Errorf("EncodeLiteral(%s) = %s, want %s", Repr(tt.v), text, tt.want)
			continue
		}
		back, err := DecodeLiteral(text)
		if err != nil {
			t.Errorf("DecodeLiteral(%s): %v", text, err)
			continue
		}
		if !Equal(back, tt.v) || back.Type() != tt.v.Type() {
			t.Errorf("DecodeLiteral(%s) = %s", text, Repr(back))
		}
	}
}

func TestLiteralNaN(t *testing.T) {
	back, err := DecodeLiteral(EncodeLiteral(Float(math.NaN())))
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := back.(Float); !ok || !math.IsNaN(float64(f)) {
		t.Errorf("decoded %s, want nan", Repr(back))
	}
}

func TestLiteralFunctions(t *testing.T) {
	in, _ := newTestInterpreter(t, DefaultOptions())
	tests := []struct {
		src  string
		want string
	}{
		{"(x) -> x * 2", "(x) -> x * 2"},
		{"begin a = 2; (x) -> x * a end", "begin a = 2; (x) -> x * a end"},
		{"begin b = [1]; a = 'z'; () -> a + b end", `begin a = "z"; b = [1]; () -> a + b end`},
	}
	for _, tt := range tests {
		res, err := in.Execute(tt.src, testUser, testServer)
		if err != nil {
			t.Fatalf("Execute(%q): %v", tt.src, err)
		}
		text := EncodeLiteral(res.Value)
		if text != tt.want {
			t.Errorf("EncodeLiteral = %s, want %s", text, tt.want)
			continue
		}
		back, err := DecodeLiteral(text)
		if err != nil {
			t.Fatalf("DecodeLiteral(%s): %v", text, err)
		}
		if again := EncodeLiteral(back); again != text {
			t.Errorf("re-encoded = %s, want %s", again, text)
		}
	}

	alias := &Alias{Fn: &Function{Params: nil, Body: mustFunction(t, "() -> 1").Body}}
	text := EncodeLiteral(alias)
	if text != "Alias(() -> 1)" {
		t.Fatalf("alias literal = %s", text)
	}
	back, err := DecodeLiteral(text)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := back.(*Alias); !ok {
		t.Errorf("decoded %T, want *Alias", back)
	}
}

func TestDecodeLiteralRejectsCode(t *testing.T) {
	for _, text := range []string{"1; 2", "x", "1d6", "f(1)", "begin f(); () -> 1 end", ""} {
		if _, err := DecodeLiteral(text); err == nil {
			t.Errorf("DecodeLiteral(%q) succeeded", text)
		}
	}
}

func mustFunction(t *testing.T, src string) *Function {
	t.Helper()
	in, _ := newTestInterpreter(t, DefaultOptions())
	res, err := in.Execute(src, testUser, testServer)
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := res.Value.(*Function)
	if !ok {
		t.Fatalf("%q gave %T", src, res.Value)
	}
	return fn
}
