// Package apperrors defines the failure kinds surfaced by the service
// layer. Every operation either returns its payload or exactly one of
// these, carrying the HTTP status and a human-readable message; handlers
// never leak anything else to the client.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindInvalidToken
	KindTokenReused
	KindInvalidCredential
	KindNotFound
	KindUpload
	KindInternal
)

// Error is a failure with an HTTP status and client-safe message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Is lets errors.Is match two app errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Validation reports a missing or blank required field.
func Validation(message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return newError(KindConflict, http.StatusConflict, message)
}

// Unauthorized reports an absent credential or token.
func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, message)
}

// InvalidToken reports a token that failed verification.
func InvalidToken(message string) *Error {
	return newError(KindInvalidToken, http.StatusUnauthorized, message)
}

// TokenReused reports a refresh token that no longer matches the stored value.
func TokenReused(message string) *Error {
	return newError(KindTokenReused, http.StatusUnauthorized, message)
}

// InvalidCredential reports a bad password or unmatched identifier.
func InvalidCredential(message string) *Error {
	return newError(KindInvalidCredential, http.StatusUnauthorized, message)
}

// NotFound reports a missing user or channel.
func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message)
}

// Upload reports a failed media upload.
func Upload(message string) *Error {
	return newError(KindUpload, http.StatusBadRequest, message)
}

// Internal reports an unexpected failure. The wrapped cause is logged
// server-side, never serialized.
func Internal(message string, err error) *Error {
	e := newError(KindInternal, http.StatusInternalServerError, message)
	e.err = err
	return e
}

// Status extracts the HTTP status for an error, defaulting to 500.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// ClientMessage extracts the client-safe message for an error.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
