package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP_ADDR        string
	LOG_LEVEL        string
	SHUTDOWN_TIMEOUT time.Duration

	SQLITE_PATH     string
	SEED_DEMO_DRINK bool

	AUTH0_DOMAIN string
	API_AUDIENCE string

	JWKS_FILE                 string
	JWKS_TIMEOUT              time.Duration
	JWKS_CACHE_TTL            time.Duration
	JWKS_MIN_REFRESH_INTERVAL time.Duration

	ROUTE_POLICY_PATH string
}

// LoadConfig reads the process environment. A .env file in the working
// directory is loaded first; variables already set win.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	var err error

	//HTTP_ADDR Parsing
	cfg.HTTP_ADDR = getenvDefault("HTTP_ADDR", "0.0.0.0:8080")

	//LOG_LEVEL Parsing
	cfg.LOG_LEVEL = getenvDefault("LOG_LEVEL", "info")

	//SHUTDOWN_TIMEOUT Parsing (seconds)
	if cfg.SHUTDOWN_TIMEOUT, err = seconds("SHUTDOWN_TIMEOUT", 10); err != nil {
		return Config{}, err
	}

	cfg.SQLITE_PATH = getenvDefault("SQLITE_PATH", "./data/coffeeshop.db")
	if cfg.SEED_DEMO_DRINK, err = strconv.ParseBool(getenvDefault("SEED_DEMO_DRINK", "false")); err != nil {
		return Config{}, fmt.Errorf("SEED_DEMO_DRINK: %w", err)
	}

	//Signing authority
	cfg.AUTH0_DOMAIN = os.Getenv("AUTH0_DOMAIN")
	if cfg.AUTH0_DOMAIN == "" {
		return Config{}, errors.New("AUTH0_DOMAIN is required")
	}
	cfg.API_AUDIENCE = os.Getenv("API_AUDIENCE")
	if cfg.API_AUDIENCE == "" {
		return Config{}, errors.New("API_AUDIENCE is required")
	}

	cfg.JWKS_FILE = os.Getenv("JWKS_FILE")
	if cfg.JWKS_TIMEOUT, err = duration("JWKS_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.JWKS_CACHE_TTL, err = duration("JWKS_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.JWKS_MIN_REFRESH_INTERVAL, err = duration("JWKS_MIN_REFRESH_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}

	cfg.ROUTE_POLICY_PATH = os.Getenv("ROUTE_POLICY_PATH")

	return cfg, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func duration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", k, v)
	}
	return d, nil
}

func seconds(k string, def int) (time.Duration, error) {
	n, err := strconv.Atoi(getenvDefault(k, strconv.Itoa(def)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return time.Duration(n) * time.Second, nil
}
