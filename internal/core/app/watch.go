package app

import (
	"context"

	"astnames/internal/core/watcher"
	"astnames/internal/shared/util"
)

// Watch re-processes files under paths as they change until ctx is done.
// Each debounced batch is handed to onResults; removed files are reported
// with Removed set and dropped from the cache.
func (a *App) Watch(ctx context.Context, paths []string, onResults func([]FileResult)) error {
	spec := a.Parser.Spec()
	limiter := util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst)

	batches := make(chan []watcher.Change, 16)
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Spec:         spec,
		IncludeTests: a.Config.Scan.IncludeTests,
	}, func(changes []watcher.Change) {
		select {
		case batches <- changes:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		return err
	}
	a.logger.Info("watching for changes", "paths", paths, "run_id", a.runID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case changes := <-batches:
			results, err := a.HandleChanges(ctx, changes, limiter)
			if len(results) > 0 && onResults != nil {
				onResults(results)
			}
			if err != nil {
				// Only cancellation interrupts a batch.
				return nil
			}
		}
	}
}

// HandleChanges processes one batch of watcher changes, waiting on limiter
// between files.
func (a *App) HandleChanges(ctx context.Context, changes []watcher.Change, limiter *util.Limiter) ([]FileResult, error) {
	results := make([]FileResult, 0, len(changes))
	for _, change := range changes {
		if change.Removed {
			if a.cache != nil {
				if err := a.cache.Forget(absPath(change.Path)); err != nil {
					a.logger.Warn("failed to forget cached file", "path", change.Path, "error", err)
				}
			}
			results = append(results, FileResult{Path: change.Path, Removed: true})
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx, 1); err != nil {
				return results, err
			}
		}
		results = append(results, a.ProcessFile(ctx, change.Path))
	}
	return results, nil
}
