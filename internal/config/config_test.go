package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Optimization.WorkerCount)
	assert.Equal(t, 120, cfg.Optimization.DefaultIterations)
	assert.Equal(t, -5.0, cfg.Surface.Min)
	assert.Equal(t, 0.25, cfg.Surface.Step)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OPT_WORKER_COUNT", "3")
	t.Setenv("OPT_MAX_ITERATIONS", "500")
	t.Setenv("SURFACE_STEP", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Optimization.WorkerCount)
	assert.Equal(t, 500, cfg.Optimization.MaxIterations)
	assert.Equal(t, 0.5, cfg.Surface.Step)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero workers", "OPT_WORKER_COUNT", "0"},
		{"default above max", "OPT_DEFAULT_ITERATIONS", "20000"},
		{"negative step", "SURFACE_STEP", "-1"},
		{"malformed port", "HTTP_PORT", "eighty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("DESCENT_TEST_VALUE", "42")

	assert.Equal(t, "42", GetEnv("DESCENT_TEST_VALUE", "x"))
	assert.Equal(t, "x", GetEnv("DESCENT_TEST_MISSING", "x"))
	assert.Equal(t, 42, GetEnvAsInt("DESCENT_TEST_VALUE", 7))
	assert.Equal(t, 7, GetEnvAsInt("DESCENT_TEST_MISSING", 7))
}
