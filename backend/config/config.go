// Package config loads server configuration from the process environment,
// optionally seeded from a local .env file for development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable named in the external interfaces: listen
// address, scoring target, AI timing budgets, room lifecycle timeouts, and
// the RNG seed tests pin down for determinism.
type Config struct {
	ListenAddr       string
	TargetScore      int
	AIThinkDelay     time.Duration
	AIHardTimeout    time.Duration
	HostGraceWindow  time.Duration
	RoomEmptyTTL     time.Duration
	RNGSeed          int64
	JWTSecret        string
	RateLimitPerConn string
	RateLimitPerIP   string
}

// Load reads configuration from a .env file (if present) and then the
// process environment, falling back to the documented defaults. A missing
// .env file is not an error - it is expected in production where the
// environment is set by the deployment platform.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":5001"),
		TargetScore:      getEnvInt("TARGET_SCORE", 200),
		AIThinkDelay:     time.Duration(getEnvInt("AI_THINK_MS", 500)) * time.Millisecond,
		AIHardTimeout:    time.Duration(getEnvInt("AI_HARD_TIMEOUT_MS", 3000)) * time.Millisecond,
		HostGraceWindow:  time.Duration(getEnvInt("HOST_GRACE_MS", 30000)) * time.Millisecond,
		RoomEmptyTTL:     time.Duration(getEnvInt("ROOM_EMPTY_TTL_MS", 120000)) * time.Millisecond,
		RNGSeed:          getEnvSeed("RNG_SEED"),
		JWTSecret:        getEnv("JWT_SECRET", "flip7-dev-secret-change-in-production"),
		RateLimitPerConn: getEnv("RATE_LIMIT_PER_CONN", "20-S"),
		RateLimitPerIP:   getEnv("RATE_LIMIT_PER_IP", "200-M"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvSeed returns the configured RNG seed, or a time-derived seed when
// unset - tests always set RNG_SEED explicitly to stay deterministic.
func getEnvSeed(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return time.Now().UnixNano()
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Now().UnixNano()
	}
	return n
}
