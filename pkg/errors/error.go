// Package errors provides coded errors shared across the judging engine.
package errors

import (
	"fmt"
)

// Error carries an error code plus optional context details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and its default message.
func New(code ErrorCode) *Error {
	return &Error{Code: code, Message: code.Message()}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Code = code
		return e
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Wrapf wraps an error with a code and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithMessage replaces the error message.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

// WithDetail attaches a key-value detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ValidationError reports an invalid request field.
func ValidationError(field, reason string) *Error {
	return Newf(InvalidParams, "%s: %s", field, reason).WithDetail("field", field)
}

// GetCode extracts the error code from any error.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return InternalError
}

// Is reports whether err carries the given error code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
