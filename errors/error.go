// Package errors defines the error type the compiler returns for
// programmer/schema mistakes: unknown filter operators, inline
// fragments without a type condition, and fields missing from the
// schema. These are fatal by construction; the compiler never returns
// a partial result alongside an error.
package errors

import "fmt"

// CompileError is returned for schema/query mistakes the compiler
// detects while walking the document. Path records the field names
// (root to leaf) active when the error was raised, so a caller can
// point a user at the offending part of the query.
type CompileError struct {
	Message string
	Cause   error
	Path    []string
}

func (err *CompileError) Error() string {
	if err == nil {
		return "<nil>"
	}
	str := fmt.Sprintf("cypher compile: %s", err.Message)
	if err.Cause != nil {
		str += ": " + err.Cause.Error()
	}
	if len(err.Path) > 0 {
		str += fmt.Sprintf(" (at %v)", err.Path)
	}
	return str
}

// Unwrap lets errors.Is / errors.As see through to Cause.
func (err *CompileError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Cause
}

var _ error = (*CompileError)(nil)

// New builds a CompileError with no wrapped cause.
func New(format string, args ...interface{}) *CompileError {
	return &CompileError{Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a CompileError that carries an underlying cause.
func Wrap(cause error, format string, args ...interface{}) *CompileError {
	return &CompileError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithPath returns a copy of err with Path set, used when propagating
// a fatal error up through the traversal driver's field stack.
func (err *CompileError) WithPath(path []string) *CompileError {
	if err == nil {
		return nil
	}
	cp := *err
	cp.Path = append([]string{}, path...)
	return &cp
}
