package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed set of failure categories the service can report.
// Every session protocol operation surfaces exactly one of these and the
// HTTP boundary maps them to status codes exhaustively.
type Kind int

const (
	KindValidation Kind = iota // malformed or missing input
	KindConflict               // uniqueness violation
	KindNotFound               // no matching identity
	KindAuth                   // bad credential, bad/expired/reused/missing token
	KindServer                 // hashing, signing or storage failure
)

// Token verification sentinels. Callers react differently:
// expired access token means the client should try the refresh flow,
// invalid token means the client must log in again.
var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// ErrRefreshTokenMismatch is returned by the credential store when a
// conditional refresh-token write loses: the stored value no longer equals
// the one the caller presented. The session layer reports it as reuse.
var ErrRefreshTokenMismatch = errors.New("stored refresh token mismatch")

// Error is a tagged, statusable error. Services return it (possibly wrapping
// an underlying cause) instead of ambiguous nil values, so the boundary
// adapter never has to guess a status code.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports two app errors equal when their kinds match
// Lets callers check errors.Is(err, apperrors.Auth("")) without
// depending on exact messages
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// AuthWrap keeps the underlying reason reachable via errors.Is
// while still reporting 401 to the client.
func AuthWrap(err error, message string) *Error {
	return &Error{Kind: KindAuth, Message: message, cause: err}
}

func Server(message string) *Error {
	return &Error{Kind: KindServer, Message: message}
}

func ServerWrap(err error, message string) *Error {
	return &Error{Kind: KindServer, Message: message, cause: err}
}
