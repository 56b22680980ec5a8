package orderio

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrMalformedRecord matches every *ParseError.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnavailable matches every *IOError: the record source could not be
	// read or the destination could not be written.
	ErrUnavailable = errors.New("record storage unavailable")
)

// ParseError describes a record that could not be turned into an order.
type ParseError struct {
	// Line is the 1-based line number in the source, or 0 when unknown.
	Line int
	// Field is the name of the offending field, empty for field count errors.
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := "malformed record"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %s %q", msg, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedRecord.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// IOError indicates that a source or destination could not be accessed.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnavailable.
func (e *IOError) Is(target error) bool {
	return target == ErrUnavailable
}
