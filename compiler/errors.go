package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// snippetRadius is how many characters of context surround a syntax error.
const snippetRadius = 12

// SyntaxError is a parse failure with a short excerpt of the surrounding source.
type SyntaxError struct {
	Pos      Position
	Message  string
	Expected []string
	Snippet  string
	AtEOF    bool
}

func newSyntaxError(source string, at Token, msg string, expected []string) *SyntaxError {
	start := max(at.Pos.Offset-snippetRadius, 0)
	end := min(at.Pos.Offset+snippetRadius, len(source))
	return &SyntaxError{
		Pos:      at.Pos,
		Message:  msg,
		Expected: expected,
		Snippet:  source[start:end],
		AtEOF:    at.Type == TokenEOF || at.Literal == "unterminated string" || at.Literal == "unterminated block comment",
	}
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	if len(e.Expected) > 0 {
		exp := e.Expected
		if len(exp) > 8 {
			exp = append(exp[:8:8], "...")
		}
		fmt.Fprintf(&sb, " (expected %s)", strings.Join(exp, ", "))
	}
	fmt.Fprintf(&sb, " near %q", e.Snippet)
	return sb.String()
}

// IsIncomplete reports whether err is a syntax error caused by input ending
// early, which a REPL can satisfy by reading another line.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.AtEOF
}
