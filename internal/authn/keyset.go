package authn

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// KeySource resolves the RSA verification key for a token's kid.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// JWKSURL is where an Auth0-style signing authority publishes its keys.
func JWKSURL(domain string) string {
	return "https://" + strings.TrimSuffix(domain, "/") + "/.well-known/jwks.json"
}

// ParseKeySet decodes a JWKS document and keeps the RSA signing keys.
// Entries of other types or with broken parameters are skipped.
func ParseKeySet(b []byte) (map[string]*rsa.PublicKey, error) {
	var set struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, raw := range set.Keys {
		var k jose.JSONWebKey
		if err := k.UnmarshalJSON(raw); err != nil {
			continue
		}
		if k.KeyID == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		if k.Algorithm != "" && k.Algorithm != "RS256" {
			continue
		}
		pub, ok := k.Key.(*rsa.PublicKey)
		if !ok {
			continue
		}
		out[k.KeyID] = pub
	}

	if len(out) == 0 {
		return nil, errors.New("jwks contains no usable RSA signing keys")
	}
	return out, nil
}

// StaticKeySet serves a fixed set of keys and never refreshes.
type StaticKeySet struct {
	keys map[string]*rsa.PublicKey
}

func NewStaticKeySet(keys map[string]*rsa.PublicKey) *StaticKeySet {
	if keys == nil {
		keys = map[string]*rsa.PublicKey{}
	}
	return &StaticKeySet{keys: keys}
}

// LoadStaticKeySet reads a JWKS document from disk.
func LoadStaticKeySet(path string) (*StaticKeySet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	keys, err := ParseKeySet(b)
	if err != nil {
		return nil, fmt.Errorf("jwks file %q: %w", path, err)
	}
	return NewStaticKeySet(keys), nil
}

func (s *StaticKeySet) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	k, ok := s.keys[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

type keySnapshot struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	// retryAt holds back TTL refreshes after a failed one.
	retryAt time.Time
}

type RemoteKeySetOptions struct {
	Client *http.Client

	// Timeout bounds a single fetch.
	Timeout time.Duration
	// TTL is how long a fetched set is used before it is refetched.
	TTL time.Duration
	// MinRefreshInterval throttles refetches caused by unknown kids and
	// spaces out retries while the authority is unreachable.
	MinRefreshInterval time.Duration

	// Now overrides the clock used for cache expiry.
	Now func() time.Time
}

// RemoteKeySet is a read-through cache of a published JWKS document.
// Readers only ever load a complete snapshot; a refresh swaps the pointer.
type RemoteKeySet struct {
	url     string
	client  *http.Client
	timeout time.Duration
	ttl     time.Duration
	backoff time.Duration
	now     func() time.Time

	current atomic.Pointer[keySnapshot]
	group   singleflight.Group
	forced  *rate.Limiter
}

func NewRemoteKeySet(url string, opt RemoteKeySetOptions) *RemoteKeySet {
	if opt.Timeout <= 0 {
		opt.Timeout = 5 * time.Second
	}
	if opt.TTL <= 0 {
		opt.TTL = 10 * time.Minute
	}
	if opt.MinRefreshInterval <= 0 {
		opt.MinRefreshInterval = 30 * time.Second
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	client := opt.Client
	if client == nil {
		client = &http.Client{Timeout: opt.Timeout}
	}

	return &RemoteKeySet{
		url:     url,
		client:  client,
		timeout: opt.Timeout,
		ttl:     opt.TTL,
		backoff: opt.MinRefreshInterval,
		now:     opt.Now,
		forced:  rate.NewLimiter(rate.Every(opt.MinRefreshInterval), 1),
	}
}

// Warm fetches the key set ahead of the first request.
func (s *RemoteKeySet) Warm(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *RemoteKeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	refreshed := false
	snap := s.current.Load()
	if s.due(snap) {
		fresh, err := s.refresh(ctx)
		switch {
		case err == nil:
			snap, refreshed = fresh, true
		case snap == nil:
			return nil, err
		default:
			// keep serving the previous snapshot and wait before retrying
			held := *snap
			held.retryAt = s.now().Add(s.backoff)
			s.current.CompareAndSwap(snap, &held)
		}
	}

	if k, ok := snap.keys[kid]; ok {
		return k, nil
	}
	if refreshed || !s.forced.Allow() {
		return nil, ErrKeyNotFound
	}

	fresh, err := s.refresh(ctx)
	if err != nil {
		return nil, ErrKeyNotFound.WithCause(err)
	}
	if k, ok := fresh.keys[kid]; ok {
		return k, nil
	}
	return nil, ErrKeyNotFound
}

func (s *RemoteKeySet) due(snap *keySnapshot) bool {
	if snap == nil {
		return true
	}
	now := s.now()
	return now.Sub(snap.fetchedAt) >= s.ttl && !now.Before(snap.retryAt)
}

func (s *RemoteKeySet) refresh(ctx context.Context) (*keySnapshot, error) {
	ch := s.group.DoChan("jwks", func() (any, error) {
		// the fetch is shared, so it must outlive the request that started it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		keys, err := s.fetch(fctx)
		if err != nil {
			return nil, err
		}
		snap := &keySnapshot{keys: keys, fetchedAt: s.now()}
		s.current.Store(snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ErrKeySetUnavailable.WithCause(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, ErrKeySetUnavailable.WithCause(res.Err)
		}
		return res.Val.(*keySnapshot), nil
	}
}

func (s *RemoteKeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read jwks: %w", err)
	}
	return ParseKeySet(b)
}
