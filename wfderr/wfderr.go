// Package wfderr defines the error taxonomy shared by the wfd packages.
package wfderr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error into the closed taxonomy used across the
// supplicant, RTSP and WIE components.
type Kind int

const (
	// Unknown is the zero value; it is never returned by this module's
	// own errors but is what KindOf yields for foreign errors.
	Unknown Kind = iota
	NoMemory
	InvalidArgument
	NotFound
	AlreadyOpen
	NotOpen
	BrokenPipe
	Timeout
	ParseError
	IO
	ChildDied
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case NoMemory:
		return "no-memory"
	case InvalidArgument:
		return "invalid-argument"
	case NotFound:
		return "not-found"
	case AlreadyOpen:
		return "already-open"
	case NotOpen:
		return "not-open"
	case BrokenPipe:
		return "broken-pipe"
	case Timeout:
		return "timeout"
	case ParseError:
		return "parse-error"
	case IO:
		return "io"
	case ChildDied:
		return "child-died"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// wfdError pairs a Kind with a wrapped cause, preserving the stack
// that github.com/pkg/errors attaches at the point of Wrap.
type wfdError struct {
	kind    Kind
	cause   error
	message string
}

func (e *wfdError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
}

func (e *wfdError) Cause() error { return e.cause }

func (e *wfdError) Unwrap() error { return e.cause }

// KindOf reports the taxonomy classification of e.
func (e *wfdError) KindOf() Kind { return e.kind }

// New creates a Kind-classified error with no underlying cause.
func New(kind Kind, message string) error {
	return errors.WithStack(&wfdError{kind: kind, message: message})
}

// Wrap creates a Kind-classified error wrapping cause. If cause is nil,
// Wrap behaves like New.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return New(kind, message)
	}
	return errors.WithStack(&wfdError{kind: kind, cause: cause, message: message})
}

// KindOf walks err's Cause()/Unwrap() chain looking for a classified
// wfdError and returns its Kind, or Unknown if none is found.
func KindOf(err error) Kind {
	for err != nil {
		if c, ok := err.(*wfdError); ok {
			return c.kind
		}
		var next error
		if cause, ok := err.(interface{ Cause() error }); ok {
			next = cause.Cause()
		} else if u, ok := err.(interface{ Unwrap() error }); ok {
			next = u.Unwrap()
		}
		if next == err || next == nil {
			break
		}
		err = next
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
