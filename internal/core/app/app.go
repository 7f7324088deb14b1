// Package app drives name collection over files on disk: scanning roots,
// processing files in parallel through the result cache, and re-processing
// changes in watch mode.
package app

import (
	"fmt"
	"log/slog"

	"astnames/internal/core/config"
	"astnames/internal/core/errors"
	"astnames/internal/data/cache"
	"astnames/internal/engine/binder"
	"astnames/internal/engine/parser"
	"astnames/internal/shared/observability"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// FileResult is the outcome for one file. Err carries parse failures and
// read errors; a failed file never aborts a run.
type FileResult struct {
	Path    string
	Names   []string
	Hash    string
	Cached  bool
	Removed bool
	Err     error
}

type App struct {
	Config *config.Config
	Parser *parser.Parser
	binder *binder.Binder
	cache  *cache.Store
	runID  string
	logger *slog.Logger

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

type Option func(*App)

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRunID overrides the generated run identifier stored alongside cache rows.
func WithRunID(id string) Option {
	return func(a *App) {
		a.runID = id
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	spec := parser.DefaultPythonSpec()
	spec.Extensions = append([]string(nil), cfg.Scan.Extensions...)
	loader, err := parser.NewGrammarLoader(spec)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "load grammar")
	}
	p, err := parser.NewParser(loader, parser.LanguagePython)
	if err != nil {
		return nil, err
	}

	excludeDirs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		Parser:       p,
		runID:        uuid.NewString(),
		logger:       slog.Default(),
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("grammar loaded", "language", spec.Name, "extensions", loader.SupportedExtensions())

	a.binder = binder.New(p,
		binder.WithLogger(a.logger),
		binder.WithObserver(func(ev binder.Event) {
			observability.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()
		}),
	)

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path, binder.Version)
		if err != nil {
			// A broken cache only costs speed.
			a.logger.Warn("result cache disabled", "path", cfg.Cache.Path, "error", err)
		} else {
			a.cache = store
			a.logger.Debug("result cache opened", "path", store.Path(), "collector_version", binder.Version)
		}
	}

	return a, nil
}

func (a *App) RunID() string {
	return a.runID
}

// CacheEnabled reports whether results are read from and written to the store.
func (a *App) CacheEnabled() bool {
	return a.cache != nil
}

func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	a.cache = nil
	return err
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, pattern))
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}
