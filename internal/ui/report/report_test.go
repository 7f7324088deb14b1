package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"astnames/internal/core/app"
	"astnames/internal/core/config"
	"astnames/internal/core/errors"
	"astnames/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []app.FileResult {
	synErr := &parser.SyntaxError{Line: 1, Column: 9, Kind: parser.SyntaxUnexpected, Snippet: ":"}
	return []app.FileResult{
		{Path: "pkg/a.py", Names: []string{"os", "x"}, Hash: "abc"},
		{Path: "pkg/b.py", Names: []string{"main"}, Hash: "def", Cached: true},
		{Path: "pkg/broken.py", Err: &errors.DomainError{Code: errors.CodeParseError, Message: "invalid python syntax", Err: synErr}},
		{Path: "pkg/old.py", Removed: true},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, config.FormatText, sampleResults(), Options{}))

	out := buf.String()
	assert.Contains(t, out, "pkg/a.py\n")
	assert.Contains(t, out, "  os\n")
	assert.Contains(t, out, "pkg/b.py (cached)")
	assert.Contains(t, out, `error: invalid python syntax: line 1:9: unexpected ":"`)
	assert.Contains(t, out, "pkg/old.py (removed)")
	assert.Contains(t, out, "4 files, 3 names, 1 failed, 1 cached, 1 removed")
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, config.FormatJSON, sampleResults(), Options{RunID: "run-1"}))

	var doc struct {
		RunID string `json:"run_id"`
		Files []struct {
			Path   string   `json:"path"`
			Names  []string `json:"names"`
			Cached bool     `json:"cached"`
			Error  string   `json:"error"`
		} `json:"files"`
		Summary struct {
			Files  int `json:"files"`
			Failed int `json:"failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	require.Len(t, doc.Files, 4)
	assert.Equal(t, []string{"os", "x"}, doc.Files[0].Names)
	assert.True(t, doc.Files[1].Cached)
	assert.NotEmpty(t, doc.Files[2].Error)
	assert.NotNil(t, doc.Files[2].Names)
	assert.Equal(t, 4, doc.Summary.Files)
	assert.Equal(t, 1, doc.Summary.Failed)
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, config.FormatTSV, sampleResults(), Options{}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Type\tFile\tName\tDetail",
		"name\tpkg/a.py\tos\t",
		"name\tpkg/a.py\tx\t",
		"name\tpkg/b.py\tmain\tcached",
		"error\tpkg/broken.py\t\tinvalid python syntax: line 1:9: unexpected \":\"",
		"removed\tpkg/old.py\t\t",
	}, lines)
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "yaml", nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "names.tsv")
	require.NoError(t, WriteFile(path, config.FormatTSV, sampleResults(), Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Type\tFile\tName\tDetail\n"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestWriteFileFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	err := WriteFile(filepath.Join(dir, "names.out"), "bogus", sampleResults(), Options{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
