package lang

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrSyntax            = NewError("syntax error")
	ErrInvalidTree       = NewError("invalid parse tree")
	ErrUndefinedVariable = NewError("undefined variable")
	ErrUndefinedFunction = NewError("undefined function")
	ErrArity             = NewError("wrong number of arguments")
	ErrInvalidTarget     = NewError("invalid assignment target")
	ErrNoValue           = NewError("expression has no value")
	ErrMaxDepthExceeded  = NewError("maximum call depth exceeded")
	ErrReadInput         = NewError("failed to read input")
	ErrWriteOutput       = NewError("failed to write output")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message is followed by the attributes in brackets, then the wrapped
// error, e.g. "undefined variable [name=b]" or "failed to read input: EOF".
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		head := e.msg

		if len(e.attrs) > 0 {
			kv := make([]string, len(e.attrs))
			for i, a := range e.attrs {
				kv[i] = a.String()
			}

			head += " [" + strings.Join(kv, " ") + "]"
		}

		part = append(part, head)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is a sentinel with the same message. Errors
// derived from a sentinel with [Error.With] or [Error.Wrap] match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.msg == "" {
		return false
	}

	return t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attr returns the value of the attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// SyntaxError reports the furthest position the grammar reached before every
// alternative failed, along with the alternatives attempted there.
type SyntaxError struct {
	Source   string
	Pos      Position
	Expected []string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg, snippet, expected := e.formatWithContext()

	if len(expected) == 0 {
		return msg + snippet
	}

	return msg + snippet + "\texpected: " + strings.Join(expected, ", ")
}

// Unwrap returns [ErrSyntax] so callers can test with errors.Is.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Incomplete reports whether the parse failed because the input ended,
// i.e. more text could still turn it into a valid program.
func (e *SyntaxError) Incomplete() bool {
	return e.Pos.Offset >= len(e.Source)
}

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrSyntax.msg),
		slog.Int("offset", e.Pos.Offset),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
		slog.Any("expected", e.Expected),
	)
}

// formatWithContext formats the syntax error with source code context.
func (e *SyntaxError) formatWithContext() (string, string, []string) {
	lines := strings.Split(e.Source, "\n")

	var buf, src strings.Builder

	buf.WriteString("syntax error at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(":\n")

	if e.Pos.Line > 0 && e.Pos.Line <= len(lines) {
		line := lines[e.Pos.Line-1]

		src.WriteString("  ")
		src.WriteString(strconv.Itoa(e.Pos.Line))
		src.WriteString(" | ")
		src.WriteString(line)
		src.WriteRune('\n')

		// +5 accounts for: 2 leading spaces + " | " (3 chars)
		padding := strings.Repeat(" ", len(strconv.Itoa(e.Pos.Line))+5)
		if e.Pos.Column > 0 {
			padding += strings.Repeat(" ", e.Pos.Column-1)
		}

		src.WriteString(padding + "^\n")
	}

	exp := make([]string, 0, len(e.Expected))
	for _, x := range e.Expected {
		exp = append(exp, strconv.Quote(x))
	}

	slices.Sort(exp)

	return buf.String(), src.String(), exp
}
