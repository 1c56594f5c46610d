package authz

import (
	"sync"

	"github.com/timgst1/coffeeshop/internal/policy"
)

type PolicySource interface {
	Current() (*policy.Document, bool)
}

// RuntimeRoutes recompiles the route table only when the policy document changed.
type RuntimeRoutes struct {
	src PolicySource

	mu       sync.RWMutex
	lastDoc  *policy.Document
	compiled *RouteTable
}

func NewRuntimeRoutes(src PolicySource) *RuntimeRoutes {
	return &RuntimeRoutes{src: src}
}

func (r *RuntimeRoutes) Permission(op string) (string, bool) {
	doc, ok := r.src.Current()
	if !ok || doc == nil {
		return "", false
	}

	r.mu.RLock()
	if doc == r.lastDoc && r.compiled != nil {
		rt := r.compiled
		r.mu.RUnlock()
		return rt.Permission(op)
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// double-check
	if doc != r.lastDoc || r.compiled == nil {
		rt, err := Compile(doc)
		if err != nil {
			// an invalid document grants nothing
			return "", false
		}
		r.lastDoc = doc
		r.compiled = rt
	}

	return r.compiled.Permission(op)
}
