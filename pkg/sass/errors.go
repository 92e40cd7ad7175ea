package sass

import (
	"errors"
	"fmt"
)

// Status is the numeric error status stored on a Context. Zero means no
// error. The values follow the libsass error taxonomy and are part of the
// boundary ABI.
type Status int

const (
	// StatusOK means no error has been recorded.
	StatusOK Status = 0

	// StatusEngine is a stylesheet error reported by the compilation engine.
	StatusEngine Status = 1

	// StatusResource means the engine ran out of memory or another resource.
	StatusResource Status = 2

	// StatusInput is an invalid argument, such as an empty input path.
	StatusInput Status = 3

	// StatusSequence is a compiler operation called in the wrong state.
	StatusSequence Status = 4

	// StatusUnknown is any other failure, including a recovered engine panic.
	StatusUnknown Status = 5
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEngine:
		return "engine"
	case StatusResource:
		return "resource"
	case StatusInput:
		return "input"
	case StatusSequence:
		return "sequence"
	case StatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Sentinel errors matched with errors.Is.
var (
	// ErrEmptyInput is wrapped by errors for contexts created without input.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidState is wrapped by errors for out-of-order compiler calls.
	ErrInvalidState = errors.New("invalid compiler state")
)

// Error is an error carrying a context status.
type Error struct {
	// Status is the status recorded on the context.
	Status Status

	// Message is the human-readable message recorded on the context.
	Message string

	// Op is the operation that failed (e.g. "parse", "execute").
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same status, so that
// errors.Is(err, &Error{Status: StatusInput}) matches any input error. A
// target that names an Op must match it as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status && (t.Op == "" || t.Op == e.Op)
}

func newInputError(op, message string) *Error {
	return &Error{Status: StatusInput, Op: op, Message: message, Err: ErrEmptyInput}
}

// StatusOf returns the status carried by err, StatusOK for nil and
// StatusUnknown for errors that carry none.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.status()
	}
	return StatusUnknown
}

// EngineError is the error an Engine returns to report a stylesheet problem
// with a source position. Position fields are optional.
type EngineError struct {
	// Message describes the problem.
	Message string

	// File is the stylesheet the error occurred in.
	File string

	// Line and Column are 1-based; zero means unknown.
	Line   int
	Column int

	// Source is the offending source excerpt.
	Source string

	// Resource marks out-of-memory style failures.
	Resource bool
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return e.Message
}

func (e *EngineError) status() Status {
	if e.Resource {
		return StatusResource
	}
	return StatusEngine
}
