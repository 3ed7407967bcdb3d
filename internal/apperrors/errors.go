package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP boundary.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindPartialWrite Kind = "PARTIAL_WRITE"
	KindTransientIO  Kind = "TRANSIENT_IO"
	KindInternal     Kind = "INTERNAL_ERROR"
)

type metadata struct {
	status        int
	retryable     bool
	publicMessage string
}

var metadataByKind = map[Kind]metadata{
	KindValidation:   {status: http.StatusBadRequest, publicMessage: "validation failed"},
	KindNotFound:     {status: http.StatusNotFound, publicMessage: "resource not found"},
	KindPartialWrite: {status: http.StatusInternalServerError, publicMessage: "write did not complete"},
	KindTransientIO:  {status: http.StatusServiceUnavailable, retryable: true, publicMessage: "service temporarily unavailable"},
	KindInternal:     {status: http.StatusInternalServerError, publicMessage: "internal server error"},
}

// Error is the typed error returned by the service and persistence layers.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports bad or missing input. The caller must fix and resubmit.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields reports per-field validation failures.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFound reports that the target id does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// PartialWrite reports an aggregate write that stopped midway.
func PartialWrite(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPartialWrite, Message: fmt.Sprintf(format, args...), Err: err}
}

// TransientIO reports that the network or the store was unavailable.
func TransientIO(err error, format string, args ...any) *Error {
	return &Error{Kind: KindTransientIO, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return nil
}

// KindOf returns the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool   { return err != nil && KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return err != nil && KindOf(err) == KindNotFound }
func IsPartialWrite(err error) bool { return err != nil && KindOf(err) == KindPartialWrite }
func IsTransientIO(err error) bool  { return err != nil && KindOf(err) == KindTransientIO }

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	return metadataByKind[KindOf(err)].status
}

// Retryable reports whether retrying the same call may succeed.
func Retryable(err error) bool {
	return metadataByKind[KindOf(err)].retryable
}

// PublicMessage is the short message safe to show to API callers.
func PublicMessage(err error) string {
	return metadataByKind[KindOf(err)].publicMessage
}
