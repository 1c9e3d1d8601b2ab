// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// Kind is the broad stage an error belongs to.
type Kind string

const (
	LexError      Kind = "LexError"
	ParseError    Kind = "ParseError"
	TypeError     Kind = "TypeError"
	InternalError Kind = "InternalError"
	RuntimeFault  Kind = "RuntimeFault"
)

// Code narrows a Kind down to a specific failure.
type Code string

const (
	// Type-stage codes
	TypeMismatch              Code = "TypeMismatch"
	UndefinedName             Code = "UndefinedName"
	DuplicateSignature        Code = "DuplicateSignature"
	AmbiguousOrUnresolvedCall Code = "AmbiguousOrUnresolvedCall"
	ArityMismatch             Code = "ArityMismatch"

	// Runtime fault codes
	DivisionByZero   Code = "DivisionByZero"
	IndexOutOfBounds Code = "IndexOutOfBounds"
	StackOverflow    Code = "StackOverflow"
	UndefinedGlobal  Code = "UndefinedGlobal"
	BadCall          Code = "BadCall"
)

// HenryError carries the kind, code, message and source location of a
// compile error or runtime fault.
type HenryError struct {
	Kind    Kind
	Code    Code
	Message string
	Line    int
	Source  string // the source line where the error occurred, if known
}

func (e *HenryError) Error() string {
	var sb strings.Builder

	if e.Code != "" && string(e.Code) != string(e.Kind) {
		sb.WriteString(fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message))
	} else {
		sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("\n  at line %d", e.Line))
		if e.Source != "" {
			prefix := fmt.Sprintf("  %d | ", e.Line)
			sb.WriteString(fmt.Sprintf("\n\n%s%s\n", prefix, e.Source))
			sb.WriteString(strings.Repeat(" ", len(prefix)))
			sb.WriteString("^")
		}
	}
	return sb.String()
}

// WithSource attaches the offending source line for caret rendering.
func (e *HenryError) WithSource(source string) *HenryError {
	e.Source = source
	return e
}

func NewLexError(message string, line int) *HenryError {
	return &HenryError{Kind: LexError, Message: message, Line: line}
}

func NewParseError(message string, line int) *HenryError {
	return &HenryError{Kind: ParseError, Message: message, Line: line}
}

func NewTypeError(code Code, message string, line int) *HenryError {
	return &HenryError{Kind: TypeError, Code: code, Message: message, Line: line}
}

// NewInternal reports a compiler invariant violation. It must be unreachable
// for any program that passed type checking.
func NewInternal(message string) *HenryError {
	return &HenryError{Kind: InternalError, Message: message}
}

func NewFault(code Code, message string, line int) *HenryError {
	return &HenryError{Kind: RuntimeFault, Code: code, Message: message, Line: line}
}

// IsFault reports whether err is a runtime fault (as opposed to a compile
// error or an unrelated Go error).
func IsFault(err error) bool {
	he, ok := err.(*HenryError)
	return ok && he.Kind == RuntimeFault
}
