/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package inference

import (
	"errors"
	"fmt"
)

// Kind classifies why a request failed.
type Kind int

const (
	Unknown Kind = iota
	InvalidImage
	ModelLoadError
	BackendInitError
	InferenceExecutionError
)

func (k Kind) String() string {
	switch k {
	case InvalidImage:
		return "InvalidImage"
	case ModelLoadError:
		return "ModelLoadError"
	case BackendInitError:
		return "BackendInitError"
	case InferenceExecutionError:
		return "InferenceExecutionError"
	}
	return "Unknown"
}

// Error carries the failure kind along with the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Wrap tags err with kind. An error already carrying a kind is returned as is.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
