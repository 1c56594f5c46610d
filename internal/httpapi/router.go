package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/timgst1/coffeeshop/internal/authz"
	"github.com/timgst1/coffeeshop/internal/httpapi/handlers"
	"github.com/timgst1/coffeeshop/internal/httpapi/middleware"
	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
	"github.com/timgst1/coffeeshop/internal/metrics"
	"github.com/timgst1/coffeeshop/internal/policy"
	"github.com/timgst1/coffeeshop/internal/service"
)

type Deps struct {
	Drinks      service.DrinkService
	Authorizer  *authz.Authorizer
	Permissions authz.PermissionSource
	Metrics     *metrics.Metrics
	Logger      *slog.Logger

	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RequestMetrics(deps.Metrics))
	r.Use(middleware.Recoverer(log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { respond.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { respond.MethodNotAllowed(w) })

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(r.Context()); err != nil {
				log.Warn("readiness check failed", "err", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	guard := middleware.Guard{
		Authorizer:  deps.Authorizer,
		Permissions: deps.Permissions,
		Metrics:     deps.Metrics,
		Log:         log,
	}
	dh := handlers.DrinkHandler{Drinks: deps.Drinks, Log: log}

	r.With(guard.Require(policy.OpListDrinks)).Get("/drinks", dh.ListDrinks)
	r.With(guard.Require(policy.OpDrinksDetail)).Get("/drinks-detail", dh.ListDrinksDetail)
	r.With(guard.Require(policy.OpCreateDrink)).Post("/drinks", dh.CreateDrink)
	r.With(guard.Require(policy.OpGetDrink)).Get("/drinks/{id:[0-9]+}", dh.GetDrink)
	r.With(guard.Require(policy.OpUpdateDrink)).Patch("/drinks/{id:[0-9]+}", dh.UpdateDrink)
	r.With(guard.Require(policy.OpDeleteDrink)).Delete("/drinks/{id:[0-9]+}", dh.DeleteDrink)

	return r
}
