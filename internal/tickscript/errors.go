package tickscript

import (
	"fmt"
)

// ErrorKind classifies script failures.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota + 1
	UndefinedVariable
	UndefinedFunction
	UndefinedSeries
	InvalidArguments
	InvalidOperands
	DivisionByZero
	UnknownOperator
	IndexOutOfBounds
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case UndefinedVariable:
		return "UndefinedVariable"
	case UndefinedFunction:
		return "UndefinedFunction"
	case UndefinedSeries:
		return "UndefinedSeries"
	case InvalidArguments:
		return "InvalidArguments"
	case InvalidOperands:
		return "InvalidOperands"
	case DivisionByZero:
		return "DivisionByZero"
	case UnknownOperator:
		return "UnknownOperator"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a structured lexer, parser or evaluation failure.
//
// Name carries the offending identifier or operator for the Undefined* and
// UnknownOperator kinds. Line is 0 when unknown.
type Error struct {
	Kind    ErrorKind
	Name    string
	Message string
	Line    int
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrSyntax            = &Error{Kind: SyntaxError}
	ErrUndefinedVariable = &Error{Kind: UndefinedVariable}
	ErrUndefinedFunction = &Error{Kind: UndefinedFunction}
	ErrUndefinedSeries   = &Error{Kind: UndefinedSeries}
	ErrInvalidArguments  = &Error{Kind: InvalidArguments}
	ErrInvalidOperands   = &Error{Kind: InvalidOperands}
	ErrDivisionByZero    = &Error{Kind: DivisionByZero}
	ErrUnknownOperator   = &Error{Kind: UnknownOperator}
	ErrIndexOutOfBounds  = &Error{Kind: IndexOutOfBounds}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case SyntaxError:
		msg = "Syntax error"
	case UndefinedVariable:
		msg = "Undefined variable: " + e.Name
	case UndefinedFunction:
		msg = "Undefined function: " + e.Name
	case UndefinedSeries:
		msg = "Undefined series: " + e.Name
	case InvalidArguments:
		msg = "Invalid function arguments"
	case InvalidOperands:
		msg = "Invalid operands for operation"
	case DivisionByZero:
		msg = "Division by zero"
	case UnknownOperator:
		msg = "Unknown operator: " + e.Name
	case IndexOutOfBounds:
		msg = "Index out of bounds"
	default:
		msg = e.Kind.String()
	}

	if e.Line > 0 && e.Kind == SyntaxError {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Message != "" {
		if e.Kind == SyntaxError {
			msg += ": " + e.Message
		} else {
			msg += " (" + e.Message + ")"
		}
	}
	if e.Line > 0 && e.Kind != SyntaxError {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}

	return msg
}

// Is reports whether target is an *Error of the same kind. A target with a
// Name only matches errors carrying that name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Name == "" || t.Name == e.Name
}

func syntaxError(line int, format string, args ...interface{}) *Error {
	return &Error{Kind: SyntaxError, Message: fmt.Sprintf(format, args...), Line: line}
}

func newError(kind ErrorKind, line int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

func undefined(kind ErrorKind, name string, line int) *Error {
	return &Error{Kind: kind, Name: name, Line: line}
}
