package compiler

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Token types for the dicelang lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInteger   // 42
	TokenFloat     // 3.14, 1.5e10, .5
	TokenImaginary // 3j, 1.5J
	TokenString    // 'hello', "hello"

	// Words cover identifiers and keywords alike; the grammar decides.
	TokenWord // foo, begin, d

	// Operators and punctuation. Literal holds the symbol.
	TokenOperator // +, **, -:, (, ;
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenInteger:   "INTEGER",
	TokenFloat:     "FLOAT",
	TokenImaginary: "IMAGINARY",
	TokenString:    "STRING",
	TokenWord:      "WORD",
	TokenOperator:  "OPERATOR",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     int  // byte offset just past the token
	Glued   bool // no whitespace or comment between this token and the previous one
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return fmt.Sprintf("string %q", t.Literal)
	case TokenError:
		return t.Literal
	}
	return fmt.Sprintf("%q", t.Literal)
}

// reservedWords can never be used as identifiers.
var reservedWords = map[string]bool{
	"begin": true, "end": true,
	"for": true, "in": true, "do": true, "while": true,
	"if": true, "then": true, "else": true,
	"del": true, "import": true, "as": true, "aliases": true,
	"print": true, "println": true, "inspect": true,
	"break": true, "skip": true, "return": true,
	"not": true, "and": true, "or": true, "xor": true, "is": true,
	"to": true, "by": true, "through": true, "thru": true,
	"True": true, "False": true, "Undefined": true,
	"my": true, "our": true, "global": true, "core": true,
	"typeof": true, "seek": true, "like": true,
}

// IsReserved reports whether word is a keyword.
func IsReserved(word string) bool {
	return reservedWords[word]
}

// Keywords returns every reserved word.
func Keywords() []string {
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// operators is ordered longest first so that scanning takes the longest match.
var operators = []string{
	"**", "%%", "//", "<<", ">>", "->", "-:", "::", "!<", "!>", "<>", "><",
	"==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "$", "&", "#", "@", "?", "|", "^", "<", ">", "=",
	"(", ")", "[", "]", "{", "}", ",", ";", ":", ".",
}
