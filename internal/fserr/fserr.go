package fserr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidPath   Code = "INVALID_PATH"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeNotADirectory Code = "NOT_A_DIRECTORY"
	CodeNotAFile      Code = "NOT_A_FILE"
	CodeConflict      Code = "CONFLICT"
)

// Error is the filesystem error surfaced to callers. Code identifies the
// failure class, Message is human-readable, Err carries an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the failure class from an error chain.
func CodeOf(err error) (Code, bool) {
	var fsErr *Error
	if errors.As(err, &fsErr) {
		return fsErr.Code, true
	}
	return "", false
}

func HasCode(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
