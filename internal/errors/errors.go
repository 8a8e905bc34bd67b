// Package errors implements the typed error taxonomy rebcore's
// executors raise (spec.md §6 "Error taxonomy", §7 "Error handling
// design"). It keeps the teacher's SentraError shape — a type id, a
// message, a source location, and an optional call stack — and
// generalizes ErrorType from the scripting-language taxonomy it shipped
// with to spec.md's evaluator/parse taxonomy.
package errors

import (
	"fmt"
	"strings"

	"github.com/kr/text"
	pkgerrors "github.com/pkg/errors"
)

// ErrorType is the error taxonomy exposed at the embedding boundary
// (spec.md §6).
type ErrorType string

const (
	NoArg           ErrorType = "no-arg"
	ExpectArg       ErrorType = "expect-arg"
	PhaseArgType    ErrorType = "phase-arg-type"
	LiteralLeftPath ErrorType = "literal-left-path"
	AmbiguousInfix  ErrorType = "ambiguous-infix"
	BadWordGet      ErrorType = "bad-word-get"
	NoValue         ErrorType = "no-value"
	ParseIncomplete ErrorType = "parse-incomplete"
	ParseRule       ErrorType = "parse-rule"
	ParseEnd        ErrorType = "parse-end"
	ParseCommand    ErrorType = "parse-command"
	ParseVariable   ErrorType = "parse-variable"
	ParseSeries     ErrorType = "parse-series"
	DupVars         ErrorType = "dup-vars"
	NeedNonEnd      ErrorType = "need-non-end"
	NoMemory        ErrorType = "no-memory"
	NotBound        ErrorType = "not-bound"
	BadParameter    ErrorType = "bad-parameter"
	BadIntrinsicArg ErrorType = "bad-intrinsic-arg"
)

// SourceLocation pinpoints where an error occurred.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// StackFrame is one frame of a captured call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
	Column   int
}

// RebError is the typed, templated error every raise()/fail() in
// rebcore produces.
type RebError struct {
	Type      ErrorType
	Message   string
	Location  SourceLocation
	CallStack []StackFrame
	cause     error
}

func New(t ErrorType, message string) *RebError {
	return &RebError{Type: t, Message: message, cause: pkgerrors.New(message)}
}

func Newf(t ErrorType, format string, args ...interface{}) *RebError {
	return New(t, fmt.Sprintf(format, args...))
}

func (e *RebError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Type, e.Message))
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", e.Location.File, e.Location.Line, e.Location.Column))
	}
	if len(e.CallStack) > 0 {
		sb.WriteString("\n")
		sb.WriteString(text.Indent(e.renderStack(), "  "))
	}
	return sb.String()
}

func (e *RebError) renderStack() string {
	var sb strings.Builder
	sb.WriteString("Call Stack:\n")
	for _, f := range e.CallStack {
		if f.Function != "" {
			sb.WriteString(fmt.Sprintf("at %s (%s:%d:%d)\n", f.Function, f.File, f.Line, f.Column))
		} else {
			sb.WriteString(fmt.Sprintf("at %s:%d:%d\n", f.File, f.Line, f.Column))
		}
	}
	return sb.String()
}

// Cause returns the pkg/errors-wrapped cause, so callers that want a
// stack trace via %+v can get one (the github.com/pkg/errors.Cause
// protocol).
func (e *RebError) Cause() error { return e.cause }

func (e *RebError) WithLocation(file string, line, col int) *RebError {
	e.Location = SourceLocation{File: file, Line: line, Column: col}
	return e
}

func (e *RebError) AddStackFrame(function, file string, line, col int) *RebError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, File: file, Line: line, Column: col})
	return e
}

// Is lets errors.Is(err, sentinel) style matching work against the
// ErrorType rather than pointer identity.
func (e *RebError) Is(target error) bool {
	t, ok := target.(*RebError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// TypeOf extracts the ErrorType from err if it is a *RebError, the
// zero value otherwise.
func TypeOf(err error) (ErrorType, bool) {
	if re, ok := err.(*RebError); ok {
		return re.Type, true
	}
	return "", false
}
