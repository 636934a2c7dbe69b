package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/dicelang/compiler"
)

// ErrorKind classifies a dicelang runtime error.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindTimeout
	KindDefinition
	KindCall
	KindAlias
	KindPrivilege
	KindOperation
	KindUsage
	KindStorage
	KindInternal
)

var kindNames = [...]string{
	KindSyntax:     "SyntaxError",
	KindTimeout:    "TimeoutError",
	KindDefinition: "DefinitionError",
	KindCall:       "CallError",
	KindAlias:      "AliasError",
	KindPrivilege:  "PrivilegeError",
	KindOperation:  "OperationError",
	KindUsage:      "UsageError",
	KindStorage:    "StorageError",
	KindInternal:   "InternalError",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by evaluation. Iterations is set for loop
// timeouts. Err holds the underlying cause, such as a *compiler.SyntaxError.
type Error struct {
	Kind       ErrorKind
	Msg        string
	Iterations int
	Err        error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), Err: err}
}

// IsKind reports whether err is, or wraps, a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Unwind carries break, skip and return through the evaluator. Loops catch
// break and skip; function calls catch return.
type Unwind struct {
	Kind     compiler.SignalKind
	Value    Value
	HasValue bool
}

func (u *Unwind) Error() string { return u.Kind.String() + " signal" }

func (u *Unwind) outside() *Error {
	where := "loop"
	if u.Kind == compiler.SignalReturn {
		where = "function"
	}
	return errorf(KindUsage, "%s outside of a %s.", u.Kind, where)
}

func typeError(op string, a, b Value) *Error {
	return errorf(KindOperation, "unsupported operand types for %s: '%s' and '%s'", op, a.Type(), b.Type())
}

func unaryTypeError(op string, v Value) *Error {
	return errorf(KindOperation, "bad operand type for unary %s: '%s'", op, v.Type())
}

const msgTooLong = "Dicelang command took too long! Consider reducing the number of dice rolls or loop iterations."
