package middleware

import (
	"log/slog"
	"net/http"

	"github.com/timgst1/coffeeshop/internal/authn"
	"github.com/timgst1/coffeeshop/internal/authz"
	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
	"github.com/timgst1/coffeeshop/internal/metrics"
)

// Guard authorizes requests before any handler logic runs.
type Guard struct {
	Authorizer  *authz.Authorizer
	Permissions authz.PermissionSource
	Metrics     *metrics.Metrics
	Log         *slog.Logger
}

// Require looks up the permission of op in the current route policy and
// short-circuits with the authorization error when the request lacks it.
// Operations without a permission are public.
func (g Guard) Require(op string) func(http.Handler) http.Handler {
	log := g.Log
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.Permissions == nil {
				log.Error("route policy not configured", "operation", op)
				respond.Unprocessable(w)
				return
			}
			perm, ok := g.Permissions.Permission(op)
			if !ok {
				log.Error("operation missing from route policy", "operation", op)
				respond.Unprocessable(w)
				return
			}
			if perm == "" {
				g.Metrics.ObserveAuthorization(op, "public")
				next.ServeHTTP(w, r)
				return
			}

			claims, err := g.Authorizer.Authorize(r.Context(), perm, r.Header)
			if err != nil {
				ae := authn.AsAuthError(err)
				log.Debug("authorization failed",
					"operation", op,
					"permission", perm,
					"status", ae.Status,
					"code", ae.Code,
					"err", err,
				)
				g.Metrics.ObserveAuthorization(op, ae.Code)
				respond.AuthError(w, ae)
				return
			}

			g.Metrics.ObserveAuthorization(op, "ok")
			next.ServeHTTP(w, r.WithContext(authn.WithClaims(r.Context(), claims)))
		})
	}
}
