package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and retry decisions.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
	// CodeGateway is a failed or unusable answer from the payment provider.
	CodeGateway Code = "GATEWAY_ERROR"
)

// Metadata is what the HTTP layer needs to render a code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

// Client errors are final for the request; server side ones may be retried.
var metadataByCode = map[Code]Metadata{
	CodeValidation:    clientError(http.StatusBadRequest, "validation failed", true),
	CodeUnauthorized:  clientError(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:     clientError(http.StatusForbidden, "access denied", false),
	CodeNotFound:      clientError(http.StatusNotFound, "resource not found", false),
	CodeConflict:      clientError(http.StatusConflict, "conflict detected", false),
	CodeStateConflict: clientError(http.StatusUnprocessableEntity, "state transition disallowed", true),
	CodeIdempotency:   clientError(http.StatusConflict, "idempotency key reused", true),
	CodeRateLimit:     clientError(http.StatusTooManyRequests, "rate limit exceeded", false),
	CodeInternal:      serverError(http.StatusInternalServerError, "internal server error", false),
	CodeDependency:    serverError(http.StatusServiceUnavailable, "dependency unavailable", true),
	CodeGateway:       serverError(http.StatusBadGateway, "payment provider unavailable", false),
}

func clientError(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, DetailsAllowed: details}
}

func serverError(status int, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: true, PublicMessage: public, DetailsAllowed: details}
}

// MetadataFor returns the mapping for code, falling back to CodeInternal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error carried from services to the HTTP layer.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf formats the message before building the typed error.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets structured context that is rendered only for codes whose
// metadata allows it.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the outermost typed error, or CodeInternal.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsCode reports whether the outermost typed error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// IsRetryable reports whether a caller may repeat the failed operation
// unchanged. Untyped errors are treated as internal and therefore retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(CodeOf(err)).Retryable
}
