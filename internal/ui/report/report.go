// Package report writes scan results in the configured output format.
package report

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"astnames/internal/core/app"
	"astnames/internal/core/config"
	"astnames/internal/core/errors"
	"astnames/internal/ui/report/formats"
)

type Options struct {
	Color bool
	RunID string
}

type generator interface {
	Generate() (string, error)
}

// Write renders results to w in format (text, json or tsv).
func Write(w io.Writer, format string, results []app.FileResult, opts Options) error {
	rows := Rows(results)

	var gen generator
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatText, "":
		gen = formats.NewTextGenerator(rows, w, opts.Color)
	case config.FormatJSON:
		gen = formats.NewJSONGenerator(rows, opts.RunID)
	case config.FormatTSV:
		gen = formats.NewTSVGenerator(rows)
	default:
		return errors.New(errors.CodeNotSupported, fmt.Sprintf("unknown output format %q", format))
	}

	out, err := gen.Generate()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "render report")
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteFile renders to path through a temp file and rename, so readers never
// see a partial report.
func WriteFile(path, format string, results []app.FileResult, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".astnames-report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()

	writeErr := Write(tmp, format, results, opts)
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp report file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace report file %q: %w", path, err)
	}
	return nil
}

func Rows(results []app.FileResult) []formats.Row {
	rows := make([]formats.Row, 0, len(results))
	for _, r := range results {
		row := formats.Row{
			Path:    r.Path,
			Names:   r.Names,
			Hash:    r.Hash,
			Cached:  r.Cached,
			Removed: r.Removed,
		}
		if r.Err != nil {
			row.Error = describe(r.Err)
		}
		rows = append(rows, row)
	}
	return rows
}

// describe prefers the syntax error location over the full DomainError text.
func describe(err error) string {
	var de *errors.DomainError
	if stderrors.As(err, &de) && de.Err != nil {
		return de.Message + ": " + de.Err.Error()
	}
	return err.Error()
}
