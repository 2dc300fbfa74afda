// Package apperr defines the coded errors returned by the service layer.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code surfaced to API clients.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotCharacterOwner Code = "NOT_CHARACTER_OWNER"

	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeStatOutOfRange   Code = "STAT_OUT_OF_RANGE"
	CodeInsufficientLuck Code = "INSUFFICIENT_LUCK"
	CodeInviteInvalid    Code = "INVITE_INVALID"
	CodeAlreadyMember    Code = "ALREADY_MEMBER"
	CodeIsGameMaster     Code = "IS_GAME_MASTER"
	CodeAlreadyLinked    Code = "ALREADY_LINKED"

	CodeEmailTaken             Code = "EMAIL_TAKEN"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"

	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
)

// Kind groups codes into the broad failure classes clients branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalid
	KindConflict
	KindUnauthorized
)

// Kind reports the failure class of c.
func (c Code) Kind() Kind {
	switch c {
	case CodeNotFound:
		return KindNotFound
	case CodeForbidden, CodeNotCharacterOwner:
		return KindForbidden
	case CodeInvalidInput, CodeStatOutOfRange, CodeInsufficientLuck, CodeInviteInvalid,
		CodeAlreadyMember, CodeIsGameMaster, CodeAlreadyLinked:
		return KindInvalid
	case CodeEmailTaken, CodeConcurrentModification:
		return KindConflict
	case CodeInvalidCredentials, CodeUnauthenticated:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// HTTPStatus maps c to the response status used by the REST layer.
func (c Code) HTTPStatus() int {
	switch c.Kind() {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalid:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a stable code and a client-facing message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrForbidden         = New(CodeForbidden, "forbidden")
	ErrInvalidInput      = New(CodeInvalidInput, "invalid input")
	ErrInsufficientLuck  = New(CodeInsufficientLuck, "not enough luck points")
	ErrInviteInvalid     = New(CodeInviteInvalid, "invite code is invalid or expired")
	ErrAlreadyMember     = New(CodeAlreadyMember, "already a member of this campaign")
	ErrIsGameMaster      = New(CodeIsGameMaster, "the game master cannot join their own campaign")
	ErrAlreadyLinked     = New(CodeAlreadyLinked, "character is already linked to this campaign")
	ErrNotCharacterOwner = New(CodeNotCharacterOwner, "you do not own this character")
)

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Invalid is shorthand for an INVALID_INPUT error.
func Invalid(message string) *Error {
	return New(CodeInvalidInput, message)
}

// NotFound is shorthand for a NOT_FOUND error naming the missing entity.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// Forbidden is shorthand for a FORBIDDEN error.
func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}
