package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"astnames/internal/engine/parser"
)

func newTestWatcher(t *testing.T, opts Options) (*Watcher, chan []Change) {
	t.Helper()
	changed := make(chan []Change, 16)
	w, err := NewWatcher(opts, func(changes []Change) {
		changed <- changes
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, changed
}

func waitFor(t *testing.T, changed chan []Change, want Change) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case changes := <-changed:
			for _, c := range changes {
				if c == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(Options{ExcludeFiles: []string{"[unclosed"}}, func([]Change) {})
	if err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, Options{
		Debounce:     100 * time.Millisecond,
		ExcludeDirs:  []string{"exclude_dir"},
		ExcludeFiles: []string{"*_pb2.py"},
	})
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "module.py")
	if err := os.WriteFile(testFile, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: testFile})

	excludeFile := filepath.Join(tmpDir, "generated_pb2.py")
	if err := os.WriteFile(excludeFile, []byte("y = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case changes := <-changed:
		for _, c := range changes {
			if c.Path == excludeFile {
				t.Error("excluded file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	// New directories are watched recursively after create.
	subdir := filepath.Join(tmpDir, "newpkg")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("import os\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: subFile})
}

func TestWatcher_RemovalIsReported(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "gone.py")
	if err := os.WriteFile(target, []byte("a = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, changed := newTestWatcher(t, Options{Debounce: 50 * time.Millisecond})
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: target, Removed: true})
}

func TestWatcher_ContentHashing(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, Options{Debounce: 50 * time.Millisecond})
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "hash_target.py")
	content := []byte("def main():\n    pass\n")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: testFile})

	// Same bytes again: no event.
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case changes := <-changed:
		t.Errorf("received unexpected event for identical content: %v", changes)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(testFile, []byte("def main():\n    print(1)\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: testFile})
}

func TestWatcher_ExistingFilesAreSeeded(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "existing.py")
	content := []byte("import os\n")
	if err := os.WriteFile(existing, content, 0644); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(t.TempDir(), "single.py")
	if err := os.WriteFile(single, content, 0644); err != nil {
		t.Fatal(err)
	}

	w, changed := newTestWatcher(t, Options{Debounce: 50 * time.Millisecond})
	if err := w.Watch([]string{tmpDir, single}); err != nil {
		t.Fatal(err)
	}

	// Unchanged saves right after startup: no event.
	if err := os.WriteFile(existing, content, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(single, content, 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case changes := <-changed:
		t.Errorf("received unexpected event for unchanged seeded files: %v", changes)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(existing, []byte("import sys\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, Change{Path: existing})
}

func TestWatcher_FileFilters(t *testing.T) {
	w, _ := newTestWatcher(t, Options{Spec: parser.DefaultPythonSpec()})

	if !w.shouldExcludeFile("main.go") {
		t.Fatal("expected non-python files to be excluded")
	}
	if w.shouldExcludeFile("pkg/mod.py") {
		t.Fatal("expected .py to be watched")
	}
	if w.shouldExcludeFile("stubs/mod.pyi") {
		t.Fatal("expected .pyi to be watched")
	}
	if !w.shouldExcludeFile("tests/test_mod.py") {
		t.Fatal("expected test files to be excluded by default")
	}

	withTests, _ := newTestWatcher(t, Options{IncludeTests: true})
	if withTests.shouldExcludeFile("tests/test_mod.py") {
		t.Fatal("expected test files when IncludeTests is set")
	}
}
