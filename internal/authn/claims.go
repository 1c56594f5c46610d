package authn

import (
	"encoding/json"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	jwt.RegisteredClaims

	Permissions []string `json:"permissions,omitempty"`

	// Raw holds every claim of the payload as decoded JSON.
	Raw map[string]any `json:"-"`

	hasPermissions bool
}

// HasPermissions reports whether the payload carried a permissions claim at
// all. An empty list still counts as present.
func (c *Claims) HasPermissions() bool { return c.hasPermissions }

func (c *Claims) Can(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

func (c *Claims) UnmarshalJSON(b []byte) error {
	type plain Claims
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = Claims(p)
	_, c.hasPermissions = raw["permissions"]
	c.Raw = raw
	return nil
}
