package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/timgst1/coffeeshop/internal/policy"
)

// RouteTable is a validated policy document flattened to operation -> permission.
type RouteTable struct {
	perms map[string]string
}

func Compile(doc *policy.Document) (*RouteTable, error) {
	if doc == nil {
		return nil, errors.New("policy document is nil")
	}
	if err := policy.Validate(doc); err != nil {
		return nil, err
	}

	rt := &RouteTable{perms: make(map[string]string, len(doc.Routes))}
	for _, r := range doc.Routes {
		op := strings.TrimSpace(r.Operation)
		if _, exists := rt.perms[op]; exists {
			return nil, fmt.Errorf("policy: duplicate operation %q", op)
		}
		rt.perms[op] = strings.TrimSpace(r.Permission)
	}
	return rt, nil
}

func (rt *RouteTable) Permission(op string) (string, bool) {
	if rt == nil {
		return "", false
	}
	p, ok := rt.perms[op]
	return p, ok
}
