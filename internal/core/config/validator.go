package config

import (
	"fmt"
	"strings"

	"astnames/internal/core/errors"

	"github.com/gobwas/glob"
)

func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateExclude,
		validateScan,
		validateCache,
		validateWatch,
		validateOutput,
	} {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("exclude.dirs: invalid pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("exclude.files: invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", cfg.Scan.Workers)
	}
	for _, ext := range cfg.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("scan.extensions: %q must start with '.'", ext)
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Path) == "" {
		return fmt.Errorf("cache.path must not be empty when the cache is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.Rate <= 0 || cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.rate and watch.burst must be positive")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Output.Format)) {
	case FormatText, FormatJSON, FormatTSV:
		return nil
	default:
		return fmt.Errorf("output.format must be one of: text, json, tsv; got %q", cfg.Output.Format)
	}
}
