package authn

import (
	"net/http"
	"strings"
)

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header. The scheme is case-sensitive and exactly two whitespace separated
// parts are accepted.
func BearerToken(h http.Header) (string, error) {
	vals := h.Values("Authorization")
	if len(vals) == 0 {
		return "", ErrHeaderMissing
	}

	parts := strings.Fields(vals[0])
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrHeaderMalformed
	}

	return parts[1], nil
}
