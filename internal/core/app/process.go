package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"time"

	"astnames/internal/core/errors"
	"astnames/internal/data/cache"
	"astnames/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ProcessFile reads path and returns its bound names, answering from the
// cache when the content hash is unchanged.
func (a *App) ProcessFile(ctx context.Context, path string) FileResult {
	ctx, span := observability.Tracer.Start(ctx, "app.ProcessFile")
	defer span.End()
	span.SetAttributes(attribute.String("file.path", path))

	content, err := os.ReadFile(path)
	if err != nil {
		observability.FilesTotal.WithLabelValues(observability.StatusError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return FileResult{Path: path, Err: errors.AddContext(errors.Wrap(err, code, "read file"), errors.CtxPath, path)}
	}

	hash := contentHash(content)
	key := absPath(path)

	if a.cache != nil {
		entry, ok, err := a.cache.Lookup(key, hash)
		if err != nil {
			a.logger.Warn("cache lookup failed", "path", path, "error", err)
		} else if ok {
			observability.CacheHitsTotal.Inc()
			observability.FilesTotal.WithLabelValues(observability.StatusCached).Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return FileResult{Path: path, Names: entry.Names, Hash: hash, Cached: true}
		}
	}

	res := a.collect(ctx, path, content)
	res.Hash = hash
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "parse failed")
		return res
	}

	if a.cache != nil {
		if err := a.cache.Put(cache.Entry{Path: key, Hash: hash, Names: res.Names, RunID: a.runID}); err != nil {
			a.logger.Warn("cache store failed", "path", path, "error", err)
		}
	}
	span.SetAttributes(attribute.Int("names.count", len(res.Names)))
	return res
}

// ProcessSource collects names from in-memory source such as stdin. The
// cache is bypassed.
func (a *App) ProcessSource(ctx context.Context, name string, content []byte) FileResult {
	ctx, span := observability.Tracer.Start(ctx, "app.ProcessSource")
	defer span.End()

	res := a.collect(ctx, name, content)
	res.Hash = contentHash(content)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "parse failed")
	}
	return res
}

func (a *App) collect(_ context.Context, path string, content []byte) FileResult {
	start := time.Now()
	names, err := a.binder.Names(content)
	observability.CollectDuration.WithLabelValues(a.Parser.Spec().Name).Observe(time.Since(start).Seconds())

	if err != nil {
		status := observability.StatusError
		if errors.IsCode(err, errors.CodeParseError) {
			status = observability.StatusParseError
		}
		observability.FilesTotal.WithLabelValues(status).Inc()
		a.logger.Warn("failed to process file", "path", path, "error", err)
		return FileResult{Path: path, Err: errors.AddContext(err, errors.CtxPath, path)}
	}

	observability.FilesTotal.WithLabelValues(observability.StatusOK).Inc()
	return FileResult{Path: path, Names: names.Sorted()}
}

// Run scans paths and processes every file with at most Scan.Workers in
// flight. Results are sorted by path. The returned error is reserved for
// scan failures and cancellation.
func (a *App) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	start := time.Now()
	defer func() {
		observability.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, span := observability.Tracer.Start(ctx, "app.Run")
	defer span.End()

	files, err := a.ScanDirectories(paths)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeInternal, "scan directories")
	}
	span.SetAttributes(attribute.Int("files.count", len(files)))

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.Config.Scan.Workers))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	if a.cache != nil {
		keep := make([]string, len(files))
		for i, f := range files {
			keep[i] = absPath(f)
		}
		if removed, err := a.cache.Prune(dirRoots(paths), keep); err != nil {
			a.logger.Warn("failed to prune cache", "error", err)
		} else if removed > 0 {
			a.logger.Debug("pruned cache rows", "count", removed)
		}
	}

	a.logger.Debug("run complete", "run_id", a.runID, "files", len(results), "elapsed", time.Since(start))
	return results, nil
}

// Failed counts results carrying an error.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
