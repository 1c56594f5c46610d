package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/timgst1/coffeeshop/internal/authn"
	"github.com/timgst1/coffeeshop/internal/authz"
	"github.com/timgst1/coffeeshop/internal/httpapi"
	"github.com/timgst1/coffeeshop/internal/metrics"
	"github.com/timgst1/coffeeshop/internal/policy"
	"github.com/timgst1/coffeeshop/internal/service"
	"github.com/timgst1/coffeeshop/internal/storage/sqlite"
)

// App is the wired HTTP handler plus the resources it owns.
type App struct {
	Handler http.Handler

	db *sql.DB
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Build wires storage, the token authorizer and the router. ctx bounds the
// lifetime of background work such as route policy watching.
func Build(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	db, err := sqlite.Open(cfg.SQLITE_PATH)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := sqlite.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	drinks := service.NewSQLiteDrinkService(db)
	if cfg.SEED_DEMO_DRINK {
		if err := seedDemoDrink(ctx, drinks); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	keys, err := buildKeySource(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	verifier, err := authn.NewVerifier(keys, authn.VerifierConfig{
		Domain:     cfg.AUTH0_DOMAIN,
		Audience:   cfg.API_AUDIENCE,
		Algorithms: authn.DefaultAlgorithms,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var src authz.PolicySource = policy.Static{Doc: policy.Default()}
	if cfg.ROUTE_POLICY_PATH != "" {
		m := policy.NewManager(cfg.ROUTE_POLICY_PATH, policy.Options{Logger: log})
		if err := m.Start(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("route policy: %w", err)
		}
		src = m
	}

	h := httpapi.NewRouter(httpapi.Deps{
		Drinks:      drinks,
		Authorizer:  authz.New(authn.BearerAuthenticator{Verifier: verifier}),
		Permissions: authz.NewRuntimeRoutes(src),
		Metrics:     metrics.New("coffeeshop"),
		Logger:      log,
		Ready:       db.PingContext,
	})

	log.Info("application built",
		"issuer", verifier.Issuer(),
		"audience", cfg.API_AUDIENCE,
		"route_policy", cfg.ROUTE_POLICY_PATH,
	)
	return &App{Handler: h, db: db}, nil
}

func buildKeySource(ctx context.Context, cfg Config, log *slog.Logger) (authn.KeySource, error) {
	if cfg.JWKS_FILE != "" {
		ks, err := authn.LoadStaticKeySet(cfg.JWKS_FILE)
		if err != nil {
			return nil, err
		}
		log.Info("using static key set", "path", cfg.JWKS_FILE)
		return ks, nil
	}

	url := authn.JWKSURL(cfg.AUTH0_DOMAIN)
	ks := authn.NewRemoteKeySet(url, authn.RemoteKeySetOptions{
		Timeout:            cfg.JWKS_TIMEOUT,
		TTL:                cfg.JWKS_CACHE_TTL,
		MinRefreshInterval: cfg.JWKS_MIN_REFRESH_INTERVAL,
	})
	// the first request retries the fetch, so a cold start is not fatal
	if err := ks.Warm(ctx); err != nil {
		log.Warn("initial jwks fetch failed", "url", url, "err", err)
	}
	return ks, nil
}

func seedDemoDrink(ctx context.Context, drinks service.DrinkService) error {
	existing, err := drinks.ListDrinks(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = drinks.CreateDrink(ctx, "water", []service.Ingredient{
		{Name: "water", Color: "blue", Parts: 1},
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func BuildServer(cfg Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP_ADDR,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
