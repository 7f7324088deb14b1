package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"astnames/internal/shared/util"
)

// ScanDirectories expands roots into the Python files to process. A root that
// is a file is kept as-is, even when its name would otherwise be filtered.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != root && a.excludedDir(path) {
					return filepath.SkipDir
				}
				return nil
			}

			if a.includeFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (a *App) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (a *App) includeFile(path string) bool {
	spec := a.Parser.Spec()
	if !spec.Matches(path) {
		return false
	}
	if !a.Config.Scan.IncludeTests && spec.IsTestFile(path) {
		return false
	}

	base := filepath.Base(path)
	for _, g := range a.excludeFiles {
		if g.Match(base) {
			return false
		}
	}
	return true
}

// dirRoots returns the distinct absolute forms of the roots that are
// directories.
func dirRoots(paths []string) []string {
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		roots = append(roots, absPath(p))
	}
	return util.UniqueSortedStrings(roots)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}
