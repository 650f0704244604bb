package srvcerror

import (
	"errors"
	"net/http"
)

type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int // optional, for HTTP responses
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

// Unwrap exposes the debug cause so that errors.Is sees through
// service errors built around transport failures.
func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const (
	ErrCodeInternalServerError = "internal_server_error"
	ErrCodeNotFound            = "not_found"
	ErrCodeUnauthenticated     = "unauthenticated"
	ErrCodeValidation          = "validation_error"
	ErrCodeNetwork             = "network_error"
)

func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"internal server error",
	).SetHttpStatusCode(http.StatusInternalServerError)
}

func ErrNotFound(msg string) *Error {
	if msg == "" {
		msg = "requested resource not found"
	}
	return New(ErrCodeNotFound, msg).SetHttpStatusCode(http.StatusNotFound)
}

func ErrUnauthenticated() *Error {
	return New(
		ErrCodeUnauthenticated,
		"your session has expired, please sign in again",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

func ErrValidation(msg string) *Error {
	return New(ErrCodeValidation, msg).SetHttpStatusCode(http.StatusBadRequest)
}

// ErrNetwork is what the user sees when the request never produced a
// usable response.
func ErrNetwork() *Error {
	return New(
		ErrCodeNetwork,
		"could not reach the server, please try again",
	).SetHttpStatusCode(http.StatusServiceUnavailable)
}

// FromHttpStatus maps an error response into the client side taxonomy.
// The server provided message is kept verbatim; an empty one falls back
// to the status text.
func FromHttpStatus(status int, code string, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	if code == "" {
		switch {
		case status == http.StatusNotFound:
			code = ErrCodeNotFound
		case status == http.StatusUnauthorized:
			code = ErrCodeUnauthenticated
		case status == http.StatusBadRequest,
			status == http.StatusUnprocessableEntity,
			status == http.StatusConflict:
			code = ErrCodeValidation
		case status >= 500:
			code = ErrCodeInternalServerError
		default:
			code = ErrCodeValidation
		}
	}
	return New(code, msg).SetHttpStatusCode(status)
}

// HasCode reports whether err carries a service error with the given code.
func HasCode(err error, code string) bool {
	srvcErr := &Error{}
	if errors.As(err, &srvcErr) {
		return srvcErr.ErrorCode() == code
	}
	return false
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsUnauthenticated(err error) bool {
	return HasCode(err, ErrCodeUnauthenticated)
}
