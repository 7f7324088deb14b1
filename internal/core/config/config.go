package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         []string      `toml:"paths"`
	Exclude       Exclude       `toml:"exclude"`
	Scan          Scan          `toml:"scan"`
	Cache         Cache         `toml:"cache"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`  // glob on directory base name
	Files []string `toml:"files"` // glob on file base name
}

type Scan struct {
	Workers      int      `toml:"workers"`
	IncludeTests bool     `toml:"include_tests"`
	Extensions   []string `toml:"extensions"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// Rate caps re-processed files per second; Burst is the bucket size.
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Output struct {
	Format string `toml:"format"`
	File   string `toml:"file"`
	Color  bool   `toml:"color"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTSV  = "tsv"
)

func DefaultConfig() *Config {
	cfg := &Config{
		Exclude: Exclude{
			Dirs: []string{".git", ".hg", ".venv", "venv", "__pycache__", ".mypy_cache", ".tox", "node_modules"},
		},
		Cache: Cache{
			Enabled: true,
		},
		Output: Output{
			Color: true,
		},
	}
	applyDefaults(cfg)
	return cfg
}
