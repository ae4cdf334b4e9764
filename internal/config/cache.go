package config

import (
	"os"
	"strconv"
	"time"
)

// CacheConfig tunes the Redis result cache on the stateless calculator
// routes.  Those endpoints are pure functions of the operation and its
// operands, so an entry never goes stale on its own; the TTL only
// bounds how long Redis carries rarely repeated inputs.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CALC_CACHE_* environment variables.
// Defaults assume small deterministic JSON payloads: a long TTL and a
// body cap that any calculator response fits well under.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CALC_CACHE_ENABLED", "true") == "true",
		TTL:          parseDur(getenv("CALC_CACHE_TTL", "12h")),
		Prefix:       getenv("CALC_CACHE_PREFIX", "calc"),
		MaxBodyBytes: atoi(getenv("CALC_CACHE_MAX_BODY_BYTES", "4096")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
