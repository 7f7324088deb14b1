package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"astnames/internal/core/app"
	"astnames/internal/core/config"
	"astnames/internal/shared/observability"
	"astnames/internal/ui/report"
)

const VERSION = "1.0.0"

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2

	defaultConfigPath = "./astnames.toml"
	stdinArg          = "-"
)

type options struct {
	configPath   string
	format       string
	outFile      string
	workers      int
	includeTests bool
	noCache      bool
	watch        bool
	metricsAddr  string
	verbose      bool
	version      bool
	paths        []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("astnames", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: astnames [flags] [path ...]  (use - to read source from stdin)")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./astnames.toml when present)")
	fs.StringVar(&opts.format, "format", "", "Output format: text, json or tsv")
	fs.StringVar(&opts.outFile, "o", "", "Write the report to this file instead of stdout")
	fs.IntVar(&opts.workers, "workers", 0, "Files processed in parallel (default: number of CPUs)")
	fs.BoolVar(&opts.includeTests, "include-tests", false, "Include test_*.py and *_test.py files")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Disable the result cache")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and report changed files")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.workers < 0 {
		return options{}, fmt.Errorf("-workers must be positive, got %d", opts.workers)
	}
	opts.paths = fs.Args()
	if opts.watch && containsStdin(opts.paths) {
		return options{}, fmt.Errorf("-watch cannot read from stdin")
	}
	return opts, nil
}

func containsStdin(paths []string) bool {
	for _, p := range paths {
		if p == stdinArg {
			return true
		}
	}
	return false
}

// loadConfig resolves the config file and layers flag overrides on top.
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.Load(opts.configPath)
	default:
		if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
			cfg, err = config.Load(defaultConfigPath)
		} else {
			cfg = config.DefaultConfig()
			config.ApplyEnvOverrides(cfg)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(opts.format)
	}
	if opts.outFile != "" {
		cfg.Output.File = opts.outFile
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}
	if opts.includeTests {
		cfg.Scan.IncludeTests = true
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if len(opts.paths) > 0 {
		cfg.Paths = opts.paths
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "astnames v%s\n", VERSION)
		return exitOK
	}

	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitUsage
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return exitFailed
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			return exitFailed
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	a, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailed
	}
	defer a.Close()

	results, err := collectAll(ctx, a, cfg.Paths, stdin)
	if err != nil {
		slog.Error("scan failed", "error", err)
		return exitFailed
	}

	reportOpts := report.Options{
		Color: cfg.Output.Color && cfg.Output.File == "",
		RunID: a.RunID(),
	}
	if err := emit(stdout, cfg, results, reportOpts); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitFailed
	}

	code := exitOK
	if app.Failed(results) > 0 {
		code = exitFailed
	}
	if !opts.watch {
		return code
	}

	if err := watch(ctx, a, cfg, results, stdout, reportOpts); err != nil {
		slog.Error("watch failed", "error", err)
		return exitFailed
	}
	return exitOK
}

// collectAll reads stdin once for "-" and runs every other argument through
// the scan driver. Stdin results come first.
func collectAll(ctx context.Context, a *app.App, paths []string, stdin io.Reader) ([]app.FileResult, error) {
	var (
		results  []app.FileResult
		files    []string
		readOnce bool
	)
	for _, p := range paths {
		if p != stdinArg {
			files = append(files, p)
			continue
		}
		if readOnce {
			continue
		}
		readOnce = true
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		results = append(results, a.ProcessSource(ctx, "<stdin>", src))
	}
	if len(files) == 0 {
		return results, nil
	}

	fileResults, err := a.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	return append(results, fileResults...), nil
}

func emit(stdout io.Writer, cfg *config.Config, results []app.FileResult, opts report.Options) error {
	if cfg.Output.File != "" {
		return report.WriteFile(cfg.Output.File, cfg.Output.Format, results, opts)
	}
	return report.Write(stdout, cfg.Output.Format, results, opts)
}

// watch reports each changed batch. With an output file the file is rewritten
// with the merged state; on stdout only the batch is printed.
func watch(ctx context.Context, a *app.App, cfg *config.Config, initial []app.FileResult, stdout io.Writer, opts report.Options) error {
	state := make(map[string]app.FileResult, len(initial))
	for _, r := range initial {
		state[r.Path] = r
	}

	return a.Watch(ctx, cfg.Paths, func(batch []app.FileResult) {
		for _, r := range batch {
			if r.Removed {
				delete(state, r.Path)
				continue
			}
			state[r.Path] = r
		}

		var err error
		if cfg.Output.File != "" {
			merged := make([]app.FileResult, 0, len(state))
			for _, r := range state {
				merged = append(merged, r)
			}
			sort.Slice(merged, func(i, j int) bool { return merged[i].Path < merged[j].Path })
			err = report.WriteFile(cfg.Output.File, cfg.Output.Format, merged, opts)
		} else {
			err = report.Write(stdout, cfg.Output.Format, batch, opts)
		}
		if err != nil {
			slog.Error("failed to write report", "error", err)
		}
	})
}
