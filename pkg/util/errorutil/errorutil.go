package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Stable error codes surfaced to clients.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeTokenMalformed     = "TOKEN_MALFORMED"
	CodeTokenSignature     = "TOKEN_SIGNATURE_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTimezoneNotFound   = "TIMEZONE_NOT_FOUND"
	CodeInvalidTimeFormat  = "INVALID_TIME_FORMAT"
	CodeUnauthorizedAction = "UNAUTHORIZED_ACTION"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error

	// PlainText renders the message as a text/plain body instead of JSON.
	PlainText bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewTokenMalformed() error {
	return NewDomainError(CodeTokenMalformed, "the JWT token is malformed", http.StatusBadRequest, nil)
}

func NewTokenSignatureInvalid() error {
	return NewDomainError(CodeTokenSignature, "invalid JWT signature", http.StatusUnauthorized, nil)
}

func NewTokenExpired() error {
	return NewDomainError(CodeTokenExpired, "the JWT token has expired", http.StatusUnauthorized, nil)
}

// NewTimezoneNotFound covers both a missing offset and one owned by someone else.
func NewTimezoneNotFound() error {
	return NewDomainError(CodeTimezoneNotFound,
		"Invalid time zone name provided or time zone not owned by the user.",
		http.StatusNotFound, nil)
}

func NewInvalidTimeFormat(literal string) error {
	return NewDomainError(CodeInvalidTimeFormat,
		"The provided time format is invalid: "+literal,
		http.StatusBadRequest, map[string]any{"time": literal})
}

func NewUnauthorizedAction(message string) error {
	return &DomainError{
		Code:       CodeUnauthorizedAction,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
		PlainText:  true,
	}
}

func NewDuplicateIdentity(message string) error {
	return NewDomainError(CodeDuplicateIdentity, message, http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
