package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for dicelang source
// ---------------------------------------------------------------------------

// Lexer tokenizes dicelang source code.
type Lexer struct {
	input     string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        rune // current character
	line      int  // current line (1-based)
	lineStart int  // offset of current line start
	prev      Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		prev:  Token{Type: TokenEOF},
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	skipped, err := l.skipWhitespaceAndComments()
	pos := l.position()

	var tok Token
	switch {
	case err != "":
		tok = Token{Type: TokenError, Literal: err, Pos: pos}
	case l.ch == 0:
		tok = Token{Type: TokenEOF, Pos: pos}
	case isDigit(l.ch):
		tok = l.readNumber(pos)
	case l.ch == '.' && isDigit(l.peekChar()) && !(endsOperand(l.prev) && !skipped):
		tok = l.readNumber(pos)
	case l.ch == '"' || l.ch == '\'':
		tok = l.readString(pos)
	case isLetter(l.ch):
		tok = l.readWord(pos, !skipped)
	default:
		tok = l.readOperator(pos)
	}
	tok.Glued = !skipped
	if tok.End == 0 {
		tok.End = l.pos
	}
	l.prev = tok
	return tok
}

// skipWhitespaceAndComments skips whitespace, backticks and comments. It reports
// whether anything was skipped, and a message for an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() (bool, string) {
	skipped := false
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '`' {
			skipped = true
			l.readChar()
		}

		if l.ch != '~' {
			return skipped, ""
		}
		skipped = true

		// Block comment: ~[ ... ]~
		if l.peekChar() == '[' {
			l.readChar()
			l.readChar()
			for !(l.ch == ']' && l.peekChar() == '~') {
				if l.ch == 0 {
					return skipped, "unterminated block comment"
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
			continue
		}

		// Line comment
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

// readString reads a quoted string literal with backslash escapes.
func (l *Lexer) readString(pos Position) Token {
	quote := l.ch
	l.readChar() // consume opening quote

	var sb strings.Builder
	for l.ch != quote {
		if l.ch == 0 {
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			case '\\', '\'', '"':
				sb.WriteRune(l.ch)
			case 0:
				return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readNumber reads an integer, float or imaginary literal.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	isFloat := false

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // consume .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent, only when digits actually follow
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		signed := next == '+' || next == '-'
		if isDigit(next) || (signed && l.readPos+1 < len(l.input) && isDigit(rune(l.input[l.readPos+1]))) {
			isFloat = true
			l.readChar()
			if signed {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	if (l.ch == 'j' || l.ch == 'J') && !isLetter(l.peekChar()) && !isDigit(l.peekChar()) {
		lit := l.input[start:l.pos]
		l.readChar()
		return Token{Type: TokenImaginary, Literal: lit, Pos: pos}
	}

	if isFloat {
		return Token{Type: TokenFloat, Literal: l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

// readWord reads an identifier or keyword. A word glued to a preceding number or
// closing bracket whose first letter is a dice letter is split after that letter,
// so "3d6h2" reads as 3 d 6 h 2.
func (l *Lexer) readWord(pos Position, glued bool) Token {
	start := l.pos
	end := start
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !isLetter(r) && !isDigit(r) {
			break
		}
		end += size
	}
	word := l.input[start:end]

	if glued && endsOperand(l.prev) && l.prev.Type != TokenWord && len(word) > 1 &&
		strings.ContainsRune("drhl", l.ch) && !reservedWords[word] {
		end = start + 1
	}

	for l.pos < end {
		l.readChar()
	}
	return Token{Type: TokenWord, Literal: l.input[start:end], Pos: pos}
}

// readOperator reads the longest operator at the current position.
func (l *Lexer) readOperator(pos Position) Token {
	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for i := 0; i < len(op); i++ {
				l.readChar()
			}
			return Token{Type: TokenOperator, Literal: op, Pos: pos}
		}
	}
	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character: %c", ch), Pos: pos}
}

// endsOperand reports whether tok can end an operand, which makes a following
// glued letter or dot part of a postfix construct rather than a new literal.
func endsOperand(tok Token) bool {
	switch tok.Type {
	case TokenInteger, TokenFloat, TokenImaginary, TokenString, TokenWord:
		return true
	case TokenOperator:
		return tok.Literal == ")" || tok.Literal == "]" || tok.Literal == "}"
	}
	return false
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens in input, ending with EOF or the first error.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}
