package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ASTNAMES_[SECTION]_[KEY] (e.g., ASTNAMES_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvInt(&cfg.Scan.Workers, "ASTNAMES_SCAN_WORKERS")
	setEnvBool(&cfg.Scan.IncludeTests, "ASTNAMES_SCAN_INCLUDE_TESTS")

	setEnvBool(&cfg.Cache.Enabled, "ASTNAMES_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Path, "ASTNAMES_CACHE_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "ASTNAMES_WATCH_DEBOUNCE")

	setEnvString(&cfg.Output.Format, "ASTNAMES_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.Color, "ASTNAMES_OUTPUT_COLOR")

	setEnvString(&cfg.Observability.MetricsAddr, "ASTNAMES_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ASTNAMES_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
