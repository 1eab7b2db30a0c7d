package identity

import (
	"errors"
	"fmt"
)

// Provider error codes.
const (
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeWeakPassword        = "auth/weak-password"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeInternal            = "auth/internal-error"
)

// Error is a provider failure carrying a provider error code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Code returns the provider code of err, or "" when err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SignInMessageKey maps a sign-in failure to its display message key.
func SignInMessageKey(err error) string {
	switch Code(err) {
	case CodeUserNotFound, CodeWrongPassword, CodeInvalidCredential:
		return "auth.error.invalid_credentials"
	case CodeInvalidEmail:
		return "auth.error.invalid_email"
	case CodeTooManyRequests:
		return "auth.error.too_many_requests"
	default:
		return "auth.error.generic"
	}
}

// SignUpMessageKey maps a sign-up failure to its display message key.
func SignUpMessageKey(err error) string {
	switch Code(err) {
	case CodeEmailInUse:
		return "auth.error.email_in_use"
	case CodeWeakPassword:
		return "auth.error.weak_password"
	case CodeInvalidEmail:
		return "auth.error.invalid_email"
	case CodeOperationNotAllowed:
		return "auth.error.operation_not_allowed"
	default:
		return "auth.error.generic"
	}
}
