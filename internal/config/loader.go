package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INTERNBOARD_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if INTERNBOARD_CONFIG is set
//  3. env (prefix INTERNBOARD_), including values from a .env file
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// INTERNBOARD_QUEUE_SIZE -> queue_size. A double underscore descends
	// into a nested key: INTERNBOARD_TIER_THRESHOLDS__EXCELLENT ->
	// tier_thresholds.excellent.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps an environment variable name to its koanf key.
func envKey(name string) string {
	name = strings.TrimPrefix(strings.ToLower(name), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(name, nestedEnvSeparator, ".")
}

// nestedEnvSeparator splits nested keys in environment variable names.
const nestedEnvSeparator = "__"

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("%w: backend_url must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.TierMissingPolicy) {
	case "", "unrated", "lowest":
	default:
		return fmt.Errorf("%w: tier_missing_policy must be unrated or lowest, got %q", ErrInvalidConfig, c.TierMissingPolicy)
	}
	if !c.TierThresholds.Valid() {
		return fmt.Errorf("%w: tier_thresholds must satisfy 0 < average < good < excellent <= 100, got %+v",
			ErrInvalidConfig, c.TierThresholds)
	}
	if (c.BackendEmail == "") != (c.BackendPassword == "") {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrPartialCredentials)
	}
	return nil
}

// loadDotEnv reads INTERNBOARD_ENV_FILE, or ./.env when present. Variables
// already set in the process win over the file.
func loadDotEnv() error {
	if path := os.Getenv(EnvPrefix + "ENV_FILE"); path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
