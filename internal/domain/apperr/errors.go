package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidState       Kind = "INVALID_STATE"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindUnsupportedProduct Kind = "UNSUPPORTED_PRODUCT"
	KindServicing          Kind = "SERVICING_ERROR"
	KindServicingSync      Kind = "SERVICING_SYNC_ERROR"
	KindDocument           Kind = "DOCUMENT_ERROR"
	KindInternal           Kind = "INTERNAL_ERROR"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindUnauthorized       Kind = "UNAUTHORIZED"
)

// Kind sentinels for errors.Is.
var (
	NotFound           = &Error{Kind: KindNotFound}
	InvalidState       = &Error{Kind: KindInvalidState}
	AlreadyExists      = &Error{Kind: KindAlreadyExists}
	UnsupportedProduct = &Error{Kind: KindUnsupportedProduct}
	Servicing          = &Error{Kind: KindServicing}
	ServicingSync      = &Error{Kind: KindServicingSync}
	Document           = &Error{Kind: KindDocument}
	Internal           = &Error{Kind: KindInternal}
)

// Error is the structured failure returned at operation boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf reports the kind of the outermost *Error in err's chain, INTERNAL_ERROR otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns err as an *Error, wrapping foreign errors as INTERNAL_ERROR.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindInternal, "internal_error", "unexpected failure", err)
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindAlreadyExists:
		return http.StatusConflict
	case KindUnsupportedProduct, KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindServicing, KindServicingSync, KindDocument:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON error body rendered at the HTTP boundary.
type Response struct {
	Status  int    `json:"error_status"`
	Type    Kind   `json:"error_type"`
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

// ResponseOf renders err with the status its kind maps to.
func ResponseOf(err error) Response {
	e := As(err)
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	return Response{Status: HTTPStatus(e.Kind), Type: e.Kind, Code: e.Code, Message: msg}
}
