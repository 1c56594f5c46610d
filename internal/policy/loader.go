package policy

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Document
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func Validate(d *Document) error {
	if strings.TrimSpace(d.APIVersion) == "" {
		return fmt.Errorf("policy: apiVersion missing")
	}
	if d.Kind != Kind {
		return fmt.Errorf("policy: kind must be %q, got %q", Kind, d.Kind)
	}

	seen := map[string]struct{}{}
	for _, r := range d.Routes {
		if !slices.Contains(Operations, r.Operation) {
			return fmt.Errorf("policy: unknown operation %q", r.Operation)
		}
		if _, ok := seen[r.Operation]; ok {
			return fmt.Errorf("policy: duplicate operation %q", r.Operation)
		}
		seen[r.Operation] = struct{}{}

		if r.Permission != "" && !validPermission(r.Permission) {
			return fmt.Errorf("policy: permission %q for %q must look like action:resource", r.Permission, r.Operation)
		}
	}

	for _, op := range Operations {
		if _, ok := seen[op]; !ok {
			return fmt.Errorf("policy: operation %q missing", op)
		}
	}

	return nil
}

func validPermission(p string) bool {
	if strings.ContainsAny(p, " \t\n") {
		return false
	}
	action, resource, ok := strings.Cut(p, ":")
	return ok && action != "" && resource != ""
}
