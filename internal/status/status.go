package status

import (
	"errors"
	"fmt"
)

// Code classifies a failure the way callers are expected to react to it.
type Code int

const (
	OK Code = iota
	NotFound
	AlreadyExists
	FailedPrecondition
	ResourceExhausted
	InvalidArgument
	Internal
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NotFound:
		return "NOT_FOUND"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case FailedPrecondition:
		return "FAILED_PRECONDITION"
	case ResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "INTERNAL"
	}
}

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return Errorf(NotFound, format, args...)
}

func AlreadyExistsf(format string, args ...any) *Error {
	return Errorf(AlreadyExists, format, args...)
}

func FailedPreconditionf(format string, args ...any) *Error {
	return Errorf(FailedPrecondition, format, args...)
}

func ResourceExhaustedf(format string, args ...any) *Error {
	return Errorf(ResourceExhausted, format, args...)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return Errorf(InvalidArgument, format, args...)
}

// Internalf wraps a store or infrastructure failure that held no
// business invariant. The cause stays reachable through Unwrap.
func Internalf(err error, format string, args ...any) *Error {
	return &Error{Code: Internal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the code from err. Unclassified failures count as
// Internal, nil as OK.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
