package authn

import (
	"context"
	"net/http"
)

// Authenticator turns request headers into verified claims.
type Authenticator interface {
	Authenticate(ctx context.Context, h http.Header) (*Claims, error)
}

// BearerAuthenticator extracts the bearer token and hands it to a Verifier.
type BearerAuthenticator struct {
	Verifier *Verifier
}

func (a BearerAuthenticator) Authenticate(ctx context.Context, h http.Header) (*Claims, error) {
	raw, err := BearerToken(h)
	if err != nil {
		return nil, err
	}
	return a.Verifier.Verify(ctx, raw)
}

type ctxKey int

const claimsKey ctxKey = iota

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
