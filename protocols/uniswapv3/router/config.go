package router

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultMaxNumResults = 3
	DefaultMaxHops       = 3
	DefaultConcurrency   = 8
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the dependencies and search limits of a Router.
// Zero limits fall back to the package defaults.
type Config struct {
	Logger   Logger
	Registry prometheus.Registerer

	MaxNumResults int
	MaxHops       int
	// Concurrency bounds the number of routes QuoteRoutes simulates at once.
	Concurrency int
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.MaxNumResults < 0 {
		return fmt.Errorf("config: MaxNumResults cannot be negative, got %d", c.MaxNumResults)
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("config: MaxHops cannot be negative, got %d", c.MaxHops)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config: Concurrency cannot be negative, got %d", c.Concurrency)
	}
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
