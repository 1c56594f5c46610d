package authn

import (
	"errors"
	"net/http"
)

// AuthError is the only error type the token authorizer returns.
// Status is the HTTP status the caller should answer with.
type AuthError struct {
	Status      int
	Code        string
	Description string

	cause error
}

var (
	ErrHeaderMissing = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "authorization_header_missing",
		Description: "Authorization header is expected.",
	}
	ErrHeaderMalformed = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "invalid_header",
		Description: "Authorization header must start with Bearer",
	}
	ErrTokenMalformed = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "invalid_header",
		Description: "Authorization malformed",
	}
	ErrKeyNotFound = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "invalid_header",
		Description: "Unable to find the appropriate key",
	}
	ErrTokenExpired = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "token_expired",
		Description: "Token is expired",
	}
	ErrClaimsInvalid = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "invalid_claims",
		Description: "Incorrect claims. Please check the audience and issuer.",
	}
	ErrTokenUnparseable = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "invalid_header",
		Description: "Unable to parse authentication token.",
	}
	ErrKeySetUnavailable = &AuthError{
		Status:      http.StatusUnauthorized,
		Code:        "jwks_unavailable",
		Description: "Unable to fetch the signing key set.",
	}
	ErrPermissionsMissing = &AuthError{
		Status:      http.StatusBadRequest,
		Code:        "invalid_claims",
		Description: "Permissions not included in JWT.",
	}
	ErrPermissionDenied = &AuthError{
		Status:      http.StatusForbidden,
		Code:        "unauthorized",
		Description: "Permission not found.",
	}
)

func (e *AuthError) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.Description + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Description
}

func (e *AuthError) Unwrap() error { return e.cause }

// Is matches on status, code and description so a copy carrying a cause
// still compares equal to its sentinel.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Code == t.Code && e.Description == t.Description
}

// WithCause returns a copy of e that wraps err. The sentinel is left untouched.
func (e *AuthError) WithCause(err error) *AuthError {
	cp := *e
	cp.cause = err
	return &cp
}

// AsAuthError extracts the *AuthError from err. Any other error is reported
// as an unparseable token so callers never see an untyped failure.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return ErrTokenUnparseable.WithCause(err)
}
