package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// WorkerCount bounds the runs executed at once by a comparison.
		WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"10"`
		// MaxIterations is the largest iteration count a request may ask for.
		MaxIterations int `env:"OPT_MAX_ITERATIONS" envDefault:"10000"`
		// DefaultIterations applies when a request omits the count.
		DefaultIterations int `env:"OPT_DEFAULT_ITERATIONS" envDefault:"120"`
	}
	Surface struct {
		Min  float64 `env:"SURFACE_MIN" envDefault:"-5"`
		Max  float64 `env:"SURFACE_MAX" envDefault:"5"`
		Step float64 `env:"SURFACE_STEP" envDefault:"0.25"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env cannot constrain on its own.
func (c *Config) Validate() error {
	if c.Optimization.WorkerCount < 1 {
		return fmt.Errorf("OPT_WORKER_COUNT must be positive, got %d", c.Optimization.WorkerCount)
	}
	if c.Optimization.MaxIterations < 0 {
		return fmt.Errorf("OPT_MAX_ITERATIONS must not be negative, got %d", c.Optimization.MaxIterations)
	}
	if c.Optimization.DefaultIterations < 0 ||
		(c.Optimization.MaxIterations > 0 && c.Optimization.DefaultIterations > c.Optimization.MaxIterations) {
		return fmt.Errorf("OPT_DEFAULT_ITERATIONS must be within [0, %d], got %d",
			c.Optimization.MaxIterations, c.Optimization.DefaultIterations)
	}
	if c.Surface.Step <= 0 || c.Surface.Max <= c.Surface.Min {
		return fmt.Errorf("invalid surface sampling [%v, %v) step %v", c.Surface.Min, c.Surface.Max, c.Surface.Step)
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt returns the value of the environment variable as int or the default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
