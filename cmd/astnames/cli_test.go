package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"astnames/internal/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-format", "json", "-workers", "3", "-no-cache", "-include-tests", "a", "b"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "json", opts.format)
	assert.Equal(t, 3, opts.workers)
	assert.True(t, opts.noCache)
	assert.True(t, opts.includeTests)
	assert.Equal(t, []string{"a", "b"}, opts.paths)

	_, err = parseFlags([]string{"-workers", "-1"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-watch", "-"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astnames.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 1\n[output]\nformat = \"json\"\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, config.FormatJSON, cfg.Output.Format)

	cfg, err = loadConfig(options{configPath: path, format: "TSV", workers: 2, noCache: true, paths: []string{"src"}})
	require.NoError(t, err)
	assert.Equal(t, config.FormatTSV, cfg.Output.Format)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"src"}, cfg.Paths)

	_, err = loadConfig(options{configPath: path, format: "yaml"})
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-version"}, nil, &stdout, io.Discard)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "astnames v"+VERSION+"\n", stdout.String())
}

func TestRunTSV(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mod.py"), []byte("import os\nvalue = 1\n"), 0o644))

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-no-cache", "-format", "tsv", root}, nil, &stdout, io.Discard)
	assert.Equal(t, exitOK, code)

	path := filepath.Join(root, "mod.py")
	assert.Equal(t, "Type\tFile\tName\tDetail\nname\t"+path+"\tos\t\nname\t"+path+"\tvalue\t\n", stdout.String())
}

func TestRunParseFailureExitCode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.py"), []byte("a = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte("a = = 1\n"), 0o644))

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-no-cache", "-format", "json", root}, nil, &stdout, io.Discard)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout.String(), `"failed": 1`)
}

func TestRunStdin(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-no-cache", "-format", "tsv", "-"},
		strings.NewReader("class Widget:\n    size = 1\n"), &stdout, io.Discard)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "name\t<stdin>\tWidget\t")
	assert.NotContains(t, stdout.String(), "size")
}

func TestRunWritesOutputFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "mod.py"), []byte("x = 1\n"), 0o644))
	out := filepath.Join(t.TempDir(), "report", "names.json")

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-no-cache", "-format", "json", "-o", out, root}, nil, &stdout, io.Discard)
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"x"`)
}

func TestRunBadConfig(t *testing.T) {
	code := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.toml")}, nil, io.Discard, io.Discard)
	assert.Equal(t, exitUsage, code)
}
