// Package authntest mints RS256 tokens and key sets for tests.
package authntest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/timgst1/coffeeshop/internal/authn"
)

const (
	Domain   = "coffee.test"
	Audience = "drinks"
)

var (
	keysMu sync.Mutex
	keys   = map[int]*rsa.PrivateKey{}
)

// key returns the n-th process-wide test key; generation is slow enough to share.
func key(t testing.TB, n int) *rsa.PrivateKey {
	t.Helper()
	keysMu.Lock()
	defer keysMu.Unlock()

	if k, ok := keys[n]; ok {
		return k
	}
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	keys[n] = k
	return k
}

type Issuer struct {
	KeyID string
	key   *rsa.PrivateKey
}

func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	return &Issuer{KeyID: "test-key-1", key: key(t, 0)}
}

// Rotated returns an issuer with a different key pair published under kid.
func (i *Issuer) Rotated(t testing.TB, kid string) *Issuer {
	t.Helper()
	return &Issuer{KeyID: kid, key: key(t, 1)}
}

func (i *Issuer) PublicKey() *rsa.PublicKey { return &i.key.PublicKey }

func (i *Issuer) KeySet() *authn.StaticKeySet {
	return authn.NewStaticKeySet(map[string]*rsa.PublicKey{i.KeyID: i.PublicKey()})
}

// JWKS encodes the public keys of issuers as a JWKS document.
func JWKS(issuers ...*Issuer) []byte {
	set := jose.JSONWebKeySet{}
	for _, i := range issuers {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       i.PublicKey(),
			KeyID:     i.KeyID,
			Use:       "sig",
			Algorithm: "RS256",
		})
	}
	b, _ := json.Marshal(set)
	return b
}

// Claims returns a valid claim set for Domain/Audience expiring in an hour.
// With no permissions given the permissions claim is still present and empty.
func Claims(permissions ...string) jwt.MapClaims {
	now := time.Now()
	if permissions == nil {
		permissions = []string{}
	}
	return jwt.MapClaims{
		"iss":         "https://" + Domain + "/",
		"aud":         Audience,
		"sub":         "auth0|barista",
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": permissions,
	}
}

// Sign signs claims with RS256 and sets the kid header.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	return i.SignWith(t, claims, func(tok *jwt.Token) { tok.Header["kid"] = i.KeyID })
}

// SignWith signs claims with RS256 after edit adjusted the token header.
func (i *Issuer) SignWith(t testing.TB, claims jwt.MapClaims, edit func(*jwt.Token)) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if edit != nil {
		edit(tok)
	}
	s, err := tok.SignedString(i.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
