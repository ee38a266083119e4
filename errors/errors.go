// Utility functions for reporting errors.

package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error so callers can map it to a transport
// response without inspecting message text.
type Code string

const (
	// BadRequestError indicates a malformed or invalid request
	// (bad body shape, invalid limit, invalid flavor reference).
	BadRequestError = Code("BadRequest")

	// NotFoundError indicates a missing resource (unknown server
	// id, unknown network label).
	NotFoundError = Code("NotFound")

	// InvalidMarkerError indicates a pagination marker that does
	// not match any item in the collection.
	InvalidMarkerError = Code("InvalidMarker")

	// UnprocessableError indicates a well-formed but semantically
	// empty request body.
	UnprocessableError = Code("Unprocessable")

	// ConfigurationError indicates invalid service configuration,
	// fatal at startup rather than per-request.
	ConfigurationError = Code("Configuration")

	// UnknownStateError indicates an instance lifecycle state the
	// service does not recognize. Surfaced as an internal error.
	UnknownStateError = Code("UnknownState")

	// DuplicateValueError indicates an attempt to create a
	// resource that already exists.
	DuplicateValueError = Code("DuplicateValue")
)

type codedError struct {
	code Code
	msg  string
}

func (e *codedError) Error() string {
	return e.msg
}

func newf(code Code, format string, args ...interface{}) error {
	return &codedError{code, fmt.Sprintf(format, args...)}
}

func is(err error, code Code) bool {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code == code
	}
	return false
}

// AddContext prefixes any error stored in err with text formatted
// according to the format specifier, preserving the error's code.
// If err does not contain an error, AddContext does nothing.
func AddContext(err error, format string, args ...interface{}) error {
	if err != nil {
		msg := fmt.Sprintf(format, args...) + ": " + err.Error()
		var coded *codedError
		if errors.As(err, &coded) {
			err = &codedError{coded.code, msg}
		} else {
			err = errors.New(msg)
		}
	}
	return err
}

func BadRequestf(format string, args ...interface{}) error {
	return newf(BadRequestError, format, args...)
}

func IsBadRequest(err error) bool {
	return is(err, BadRequestError)
}

func NotFound(format string, args ...interface{}) error {
	return newf(NotFoundError, format+" not found", args...)
}

func NotFoundf(format string, args ...interface{}) error {
	return newf(NotFoundError, format, args...)
}

func IsNotFound(err error) bool {
	return is(err, NotFoundError)
}

func InvalidMarkerf(format string, args ...interface{}) error {
	return newf(InvalidMarkerError, format, args...)
}

func IsInvalidMarker(err error) bool {
	return is(err, InvalidMarkerError)
}

func Unprocessablef(format string, args ...interface{}) error {
	return newf(UnprocessableError, format, args...)
}

func IsUnprocessable(err error) bool {
	return is(err, UnprocessableError)
}

func Configurationf(format string, args ...interface{}) error {
	return newf(ConfigurationError, format, args...)
}

func IsConfiguration(err error) bool {
	return is(err, ConfigurationError)
}

func UnknownStatef(format string, args ...interface{}) error {
	return newf(UnknownStateError, format, args...)
}

func IsUnknownState(err error) bool {
	return is(err, UnknownStateError)
}

func DuplicateValuef(format string, args ...interface{}) error {
	return newf(DuplicateValueError, format, args...)
}

func IsDuplicateValue(err error) bool {
	return is(err, DuplicateValueError)
}
