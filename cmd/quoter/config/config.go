// Package config loads quoter settings from flags, QUOTER_* environment variables
// and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "QUOTER"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Snapshot    string
	LogLevel    string
	MaxHops     int
	MaxResults  int
	Concurrency int
	// Slippage is the tolerance in percent, so 0.5 means 0.5%.
	Slippage decimal.Decimal
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("snapshot", "snapshot.yaml")
	v.SetDefault("log-level", "info")
	v.SetDefault("max-hops", 3)
	v.SetDefault("max-results", 3)
	v.SetDefault("concurrency", 8)
	v.SetDefault("slippage", "0.5")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("quoter")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	slippage, err := decimal.NewFromString(v.GetString("slippage"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid slippage %q: %w", v.GetString("slippage"), err)
	}

	cfg := Config{
		Snapshot:    v.GetString("snapshot"),
		LogLevel:    v.GetString("log-level"),
		MaxHops:     v.GetInt("max-hops"),
		MaxResults:  v.GetInt("max-results"),
		Concurrency: v.GetInt("concurrency"),
		Slippage:    slippage,
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Snapshot == "" {
		return errors.New("config: snapshot path cannot be empty")
	}
	if c.MaxHops <= 0 {
		return fmt.Errorf("config: max-hops must be positive, got %d", c.MaxHops)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("config: max-results must be positive, got %d", c.MaxResults)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Slippage.IsNegative() || c.Slippage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("config: slippage must be within [0, 100], got %s", c.Slippage)
	}
	return nil
}
