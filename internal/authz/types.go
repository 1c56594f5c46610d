package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/timgst1/coffeeshop/internal/authn"
)

// PermissionSource resolves the permission an operation requires.
// ok is false when the operation is unknown to the current policy.
type PermissionSource interface {
	Permission(op string) (perm string, ok bool)
}

// Authorizer verifies the bearer token of a request and checks that it
// grants a required permission.
type Authorizer struct {
	authn authn.Authenticator
}

func New(a authn.Authenticator) *Authorizer {
	return &Authorizer{authn: a}
}

// Authorize returns the decoded claims when the request carries a valid
// token holding required. Every failure is an *authn.AuthError.
func (a *Authorizer) Authorize(ctx context.Context, required string, h http.Header) (*authn.Claims, error) {
	if a == nil || a.authn == nil {
		return nil, authn.ErrTokenUnparseable.WithCause(errors.New("authorizer not configured"))
	}

	claims, err := a.authn.Authenticate(ctx, h)
	if err != nil {
		return nil, authn.AsAuthError(err)
	}
	if err := CheckPermission(claims, required); err != nil {
		return nil, err
	}
	return claims, nil
}

// CheckPermission distinguishes a missing permissions claim from a present
// claim that lacks required.
func CheckPermission(c *authn.Claims, required string) error {
	if c == nil || !c.HasPermissions() {
		return authn.ErrPermissionsMissing
	}
	if !c.Can(required) {
		return authn.ErrPermissionDenied
	}
	return nil
}
