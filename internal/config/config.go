// Package config loads application configuration from environment
// variables.  Everything is read once at startup; business logic never
// touches the environment afterwards.
package config

import (
	"log"
	"os"
	"strconv"
)

// InsecureDefaultSecret is the JWT signing secret used when JWT_SECRET
// is unset.  It exists so the service starts in development; any real
// deployment must override it.  Rotating the secret invalidates every
// previously issued token, which is the accepted tradeoff of symmetric
// signing.
const InsecureDefaultSecret = "dev-secret-change-me"

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
}

// Load reads configuration from the environment.  Database settings are
// required and missing values exit with a fatal log message; token and
// hashing knobs fall back to development defaults, with a loud warning
// when the signing secret is the insecure one.
func Load() Config {
	cfg := Config{
		Env:            getenvDefault("APP_ENV", "dev"),
		Port:           getenvDefault("APP_PORT", "8080"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      getenvDefault("JWT_SECRET", InsecureDefaultSecret),
		AccessTTLMin:   intDefault("ACCESS_TOKEN_TTL_MIN", 24*60),
		RefreshTTLDays: intDefault("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     intDefault("BCRYPT_COST", 10),
	}
	if cfg.JWTSecret == InsecureDefaultSecret {
		log.Printf("WARNING: JWT_SECRET is unset; using the insecure development default. Do not run production like this.")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application exits with a fatal log
// message.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
