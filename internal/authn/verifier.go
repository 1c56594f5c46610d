package authn

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithms are the only signing algorithms accepted.
var DefaultAlgorithms = []string{"RS256"}

type VerifierConfig struct {
	// Domain of the signing authority; the expected issuer is https://<domain>/.
	Domain     string
	Audience   string
	Algorithms []string

	// Now overrides the clock used for exp/nbf/iat checks.
	Now func() time.Time
}

// Verifier checks signature and registered claims of RS256 bearer tokens.
type Verifier struct {
	keys       KeySource
	issuer     string
	audience   string
	algorithms []string
	now        func() time.Time
}

func NewVerifier(keys KeySource, cfg VerifierConfig) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("verifier: key source is nil")
	}
	domain := strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "/")
	if domain == "" {
		return nil, errors.New("verifier: domain is empty")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("verifier: audience is empty")
	}

	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Verifier{
		keys:       keys,
		issuer:     "https://" + domain + "/",
		audience:   cfg.Audience,
		algorithms: slices.Clone(algs),
		now:        now,
	}, nil
}

func (v *Verifier) Issuer() string { return v.issuer }

// Verify parses raw, resolves its signing key and validates the registered
// claims. Every failure is an *AuthError.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenMalformed
		}
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(v.algorithms, t.Method.Alg()) {
			return nil, ErrTokenUnparseable
		}
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrTokenUnparseable
		}
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// classify maps jwt parser errors onto the authorization taxonomy. Expiry is
// checked before audience/issuer since the validator joins all failures. A
// missing aud, iss or exp claim counts as incorrect claims.
func classify(err error) *AuthError {
	var ae *AuthError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrClaimsInvalid.WithCause(err)
	default:
		return ErrTokenUnparseable.WithCause(err)
	}
}
