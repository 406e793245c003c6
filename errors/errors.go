// Package errors contains the error taxonomy shared by the filter compiler, the operations and
// the REST API. Request problems are reported with a machine-readable ErrorCode so clients always
// receive a structured error instead of a bare message.
package errors

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	// Skip zero so an unset code is never mistaken for a real one.
	UnsupportedFilter ErrorCode = iota + 1
	UnsupportedFilterOperation
	UnsupportedFilterDataType
	ConcurrencyFailure
	DocumentAlreadyExists
	ShredBadDocumentType
	ShredBadDocumentIDType
	InvalidRequest
	UnsupportedCommand
	CollectionNotExist
	ServerError
)

var errorCodeString = map[ErrorCode]string{
	UnsupportedFilter:          "UNSUPPORTED_FILTER",
	UnsupportedFilterOperation: "UNSUPPORTED_FILTER_OPERATION",
	UnsupportedFilterDataType:  "UNSUPPORTED_FILTER_DATA_TYPE",
	ConcurrencyFailure:         "CONCURRENCY_FAILURE",
	DocumentAlreadyExists:      "DOCUMENT_ALREADY_EXISTS",
	ShredBadDocumentType:       "SHRED_BAD_DOCUMENT_TYPE",
	ShredBadDocumentIDType:     "SHRED_BAD_DOCUMENT_ID_TYPE",
	InvalidRequest:             "INVALID_REQUEST",
	UnsupportedCommand:         "UNSUPPORTED_COMMAND",
	CollectionNotExist:         "COLLECTION_NOT_EXIST",
	ServerError:                "SERVER_ERROR",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeString[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsRequestError reports whether the code describes a problem with the request itself, as
// opposed to a failure of the backend.
func (c ErrorCode) IsRequestError() bool {
	switch c {
	case ServerError, ConcurrencyFailure:
		return false
	}
	return true
}

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(code ErrorCode, wrapped error, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Err:     wrapped,
		Message: fmt.Sprintf(format, args...),
	}
}

// Code returns the ErrorCode of the first *Error found in err's chain, or ServerError.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ServerError
}

// Message returns the client facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
