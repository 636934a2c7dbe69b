package compiler

import (
	"testing"
)

type tokSpec struct {
	typ TokenType
	lit string
}

func checkTokens(t *testing.T, input string, expected []tokSpec) {
	t.Helper()
	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("Lexer(%q) token[%d] type = %v, want %v", input, i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("Lexer(%q) token[%d] literal = %q, want %q", input, i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	checkTokens(t, `x = 2 ** 3 // 4 -: f :: g`, []tokSpec{
		{TokenWord, "x"},
		{TokenOperator, "="},
		{TokenInteger, "2"},
		{TokenOperator, "**"},
		{TokenInteger, "3"},
		{TokenOperator, "//"},
		{TokenInteger, "4"},
		{TokenOperator, "-:"},
		{TokenWord, "f"},
		{TokenOperator, "::"},
		{TokenWord, "g"},
		{TokenEOF, ""},
	})
	checkTokens(t, `<>x >< y !< z !> w`, []tokSpec{
		{TokenOperator, "<>"},
		{TokenWord, "x"},
		{TokenOperator, "><"},
		{TokenWord, "y"},
		{TokenOperator, "!<"},
		{TokenWord, "z"},
		{TokenOperator, "!>"},
		{TokenWord, "w"},
	})
}

func TestLexerDiceShorthand(t *testing.T) {
	checkTokens(t, "3d6h2", []tokSpec{
		{TokenInteger, "3"},
		{TokenWord, "d"},
		{TokenInteger, "6"},
		{TokenWord, "h"},
		{TokenInteger, "2"},
		{TokenEOF, ""},
	})
	checkTokens(t, "(1)d(6)", []tokSpec{
		{TokenOperator, "("},
		{TokenInteger, "1"},
		{TokenOperator, ")"},
		{TokenWord, "d"},
		{TokenOperator, "("},
		{TokenInteger, "6"},
		{TokenOperator, ")"},
	})
	checkTokens(t, "4r6l1", []tokSpec{
		{TokenInteger, "4"},
		{TokenWord, "r"},
		{TokenInteger, "6"},
		{TokenWord, "l"},
		{TokenInteger, "1"},
	})
	// Words that do not follow an operand stay whole.
	checkTokens(t, "d6 + dx", []tokSpec{
		{TokenWord, "d6"},
		{TokenOperator, "+"},
		{TokenWord, "dx"},
	})
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		want  string
	}{
		{"42", TokenInteger, "42"},
		{"3.14", TokenFloat, "3.14"},
		{"2e3", TokenFloat, "2e3"},
		{"2.5e-3", TokenFloat, "2.5e-3"},
		{".5", TokenFloat, ".5"},
		{"2j", TokenImaginary, "2"},
		{"1.5J", TokenImaginary, "1.5"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != tc.typ {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'hello'`, "hello"},
		{`"hello"`, "hello"},
		{`'it\'s'`, "it's"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"back\\slash"`, `back\slash`},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%q): type = %v, want STRING", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}

	tok := NewLexer(`"open`).NextToken()
	if tok.Type != TokenError {
		t.Errorf("unterminated string: type = %v, want ERROR", tok.Type)
	}
}

func TestLexerComments(t *testing.T) {
	checkTokens(t, "1 ~ line comment\n+ 2 ~[ block\ncomment ]~ * `3`", []tokSpec{
		{TokenInteger, "1"},
		{TokenOperator, "+"},
		{TokenInteger, "2"},
		{TokenOperator, "*"},
		{TokenInteger, "3"},
		{TokenEOF, ""},
	})

	toks := Tokenize("1 ~[ never closed")
	if last := toks[len(toks)-1]; last.Type != TokenError {
		t.Errorf("unterminated block comment: last type = %v, want ERROR", last.Type)
	}
}

func TestLexerPositions(t *testing.T) {
	toks := Tokenize("a\n  bb c")
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	b := toks[1]
	if b.Pos.Line != 2 || b.Pos.Column != 3 || b.Pos.Offset != 4 {
		t.Errorf("bb position = %+v, want line 2 column 3 offset 4", b.Pos)
	}
	if b.End != 6 {
		t.Errorf("bb end = %d, want 6", b.End)
	}
	if b.Glued {
		t.Errorf("bb should not be glued")
	}
	if !Tokenize("(a")[1].Glued {
		t.Errorf("a in (a should be glued")
	}
}
