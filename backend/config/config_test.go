package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "LISTEN_ADDR", "TARGET_SCORE", "AI_THINK_MS", "AI_HARD_TIMEOUT_MS",
		"HOST_GRACE_MS", "ROOM_EMPTY_TTL_MS", "RNG_SEED", "JWT_SECRET",
		"RATE_LIMIT_PER_CONN", "RATE_LIMIT_PER_IP")
	os.Setenv("RNG_SEED", "1") // keep the test deterministic
	t.Cleanup(func() { os.Unsetenv("RNG_SEED") })

	cfg := Load()

	assert.Equal(t, ":5001", cfg.ListenAddr)
	assert.Equal(t, 200, cfg.TargetScore)
	assert.Equal(t, 500*time.Millisecond, cfg.AIThinkDelay)
	assert.Equal(t, 3*time.Second, cfg.AIHardTimeout)
	assert.Equal(t, 30*time.Second, cfg.HostGraceWindow)
	assert.Equal(t, 120*time.Second, cfg.RoomEmptyTTL)
	assert.Equal(t, int64(1), cfg.RNGSeed)
	assert.Equal(t, "20-S", cfg.RateLimitPerConn)
	assert.Equal(t, "200-M", cfg.RateLimitPerIP)
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	clearEnv(t, "TARGET_SCORE", "RNG_SEED", "JWT_SECRET")
	os.Setenv("TARGET_SCORE", "350")
	os.Setenv("RNG_SEED", "42")
	os.Setenv("JWT_SECRET", "super-secret")

	cfg := Load()

	assert.Equal(t, 350, cfg.TargetScore)
	assert.Equal(t, int64(42), cfg.RNGSeed)
	assert.Equal(t, "super-secret", cfg.JWTSecret)
}

func TestLoadFallsBackOnUnparsableInt(t *testing.T) {
	clearEnv(t, "TARGET_SCORE", "RNG_SEED")
	os.Setenv("TARGET_SCORE", "not-a-number")
	os.Setenv("RNG_SEED", "7")

	cfg := Load()

	assert.Equal(t, 200, cfg.TargetScore)
}
