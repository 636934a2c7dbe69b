package compiler

import (
	"testing"
)

func TestDecompileCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"3d6h2", "3 d 6 h 2"},
		{"4r6", "4 r 6"},
		{"(1,)", "(1,)"},
		{"{'a':1}", `{"a": 1}`},
		{"[1 to 10 by 2]", "[1 to 10 by 2]"},
		{"[1 thru 3]", "[1 through 3]"},
		{"f = (a,b)->a+b", "f = (a, b) -> a + b"},
		{"x[::2]", "x[::2]"},
		{"x[1:]", "x[1:]"},
		{"x[1:2:3]", "x[1:2:3]"},
		{"not a and b", "not a and b"},
		{"typeof x", "typeof x"},
		{"-x", "-x"},
		{"|x|", "|x|"},
		{"&[1,2]", "&[1, 2]"},
		{"my x = our y", "my x = our y"},
		{"if a then b else c", "if a then b else c"},
		{"a if else b", "a if else b"},
		{"del a, b[0].c", "del a, b[0].c"},
		{"import x.y as my z", "import x.y as my z"},
		{"break", "break"},
		{"return 2j", "return 2j"},
		{`"line\nbreak"`, `"line\nbreak"`},
		{"x is not Undefined", "x is not Undefined"},
		{"1; 2", "1;\n2"},
	}

	for _, tc := range tests {
		prog, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.input, err)
			continue
		}
		if got := Decompile(prog); got != tc.want {
			t.Errorf("Decompile(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDecompileBlocks(t *testing.T) {
	prog, err := Parse("f = () -> begin x = 1; for i in [1, 2] do begin x = x + i end; x end")
	if err != nil {
		t.Fatal(err)
	}

	want := "f = () -> begin\n  x = 1;\n  for i in [1, 2] do begin\n    x = x + i\n  end;\n  x\nend"
	if got := Decompile(prog); got != want {
		t.Errorf("Decompile =\n%s\nwant\n%s", got, want)
	}

	compact := "f = () -> begin x = 1; for i in [1, 2] do begin x = x + i end; x end"
	if got := DecompileCompact(prog); got != compact {
		t.Errorf("DecompileCompact = %q, want %q", got, compact)
	}
}

func TestDecompileRoundTrip(t *testing.T) {
	sources := []string{
		"(x) -> x ** 2 %% 10",
		"(xs) -> begin total = 0; for x in xs do total = total + x; total end",
		"() -> 1d20 + (2d6h1 - 1) * 3",
		"(n) -> if n <= 1 then 1 else n * fact(n - 1)",
		"(s) -> s seek 'a+' like 'b'",
		"(f, v) -> f -: v",
		"(m) -> {1: m.a, 'k': m[0][1:-1:2]}",
		"(a) -> do a = a - 1 while a > 0",
		"(a) -> while a do skip a",
		"(x) -> <>x + ><x + !<x + !>x + ?x + @x + #x",
		"(x) -> x if x else (-x,)",
		"(t) -> del t[0]",
	}

	for _, src := range sources {
		first, err := Parse(src)
		if err != nil {
			t.Errorf("Parse(%q): %v", src, err)
			continue
		}
		text := Decompile(first)
		second, err := Parse(text)
		if err != nil {
			t.Errorf("reparse of %q (%q): %v", src, text, err)
			continue
		}
		if again := Decompile(second); again != text {
			t.Errorf("round trip of %q: %q then %q", src, text, again)
		}
		if compact := DecompileCompact(second); compact != DecompileCompact(first) {
			t.Errorf("compact round trip of %q differs", src)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"a\tb\nc", `"a\tb\nc"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tc := range tests {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %s, want %s", tc.in, got, tc.want)
		}
		tok := NewLexer(Quote(tc.in)).NextToken()
		if tok.Literal != tc.in {
			t.Errorf("lexing Quote(%q) = %q", tc.in, tok.Literal)
		}
	}
}
