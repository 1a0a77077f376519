package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads and validates a config.toml file at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadSeed reads and validates a seed.toml file at path.
func LoadSeed(path string) (Seed, error) {
	var seed Seed

	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("read seed %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parse seed %s: %w", path, err)
	}

	if err := seed.Validate(); err != nil {
		return seed, fmt.Errorf("invalid seed %s: %w", path, err)
	}

	return seed, nil
}

// LoadLocale reads a locale.toml file at path. Locale is presentational
// only and is never validated beyond being parseable TOML.
func LoadLocale(path string) (Locale, error) {
	var locale Locale

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &locale); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", path, err)
	}

	return locale, nil
}
