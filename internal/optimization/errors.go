package optimization

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the trajectory engine. Use errors.Is to test
// for them; they are usually wrapped in an *Error carrying context.
var (
	// ErrUnknownObjective is returned when a surface name is not supported.
	ErrUnknownObjective = errors.New("unknown objective")
	// ErrInvalidHyperparameter is returned when a learning rate, decay
	// coefficient, stabilizer or iteration count is outside its range.
	ErrInvalidHyperparameter = errors.New("invalid hyperparameter")
	// ErrNumericOverflow is returned when an update produces a non-finite
	// position, gradient or value.
	ErrNumericOverflow = errors.New("numeric overflow")
	// ErrDimensionMismatch is returned when a point does not match the
	// objective's dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// UnknownObjective builds an ErrUnknownObjective for the given name.
func UnknownObjective(name string) *Error {
	return WrapErrorf(ErrUnknownObjective, "%q", name).WithComponent("objectives")
}

// InvalidHyperparameter builds an ErrInvalidHyperparameter describing the
// offending field, its value and the allowed range.
func InvalidHyperparameter(name string, value interface{}, allowed string) *Error {
	return WrapErrorf(ErrInvalidHyperparameter, "%s=%v outside allowed range %s", name, value, allowed)
}
