package table

import (
	"errors"
	"fmt"
)

// Code classifies a table failure so transports can map it to their own
// error vocabulary.
type Code string

const (
	InvalidRow         Code = "INVALID_ROW"
	RowOutOfRange      Code = "ROW_OUT_OF_RANGE"
	UnknownColumn      Code = "UNKNOWN_COLUMN"
	AmbiguousColumn    Code = "AMBIGUOUS_COLUMN"
	DuplicateColumn    Code = "DUPLICATE_COLUMN"
	UnknownColumns     Code = "UNKNOWN_COLUMNS"
	InvalidInput       Code = "INVALID_INPUT"
	StorageUnavailable Code = "STORAGE_UNAVAILABLE"
)

// Error is a user-facing table failure. Msg is written for the agent or the
// end user and already names the valid options where there are any.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) error {
	return errorf(code, format, args...)
}

// storageError wraps an I/O failure as STORAGE_UNAVAILABLE.
func storageError(op string, err error) error {
	return &Error{
		Code: StorageUnavailable,
		Msg:  fmt.Sprintf("Storage unavailable: %s: %v", op, err),
		Err:  err,
	}
}

// CodeOf returns the Code carried by err, or "" when err is not a table error.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
