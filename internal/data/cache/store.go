// Package cache persists collected names keyed by file path and content hash
// so unchanged files are not re-parsed across runs.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Entry struct {
	Path      string
	Hash      string
	Names     []string
	RunID     string
	UpdatedAt time.Time
}

type Store struct {
	path    string
	version string
	db      *sql.DB
	mu      sync.Mutex
}

// Open opens (or creates) the cache at path. Rows written under a different
// collectorVersion are treated as misses.
func Open(path, collectorVersion string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts between watch mode and one-shot runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, version: collectorVersion, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Lookup returns the cached names for path when its content hash matches.
func (s *Store) Lookup(path, hash string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		entry     Entry
		namesJSON string
		tsRaw     string
	)
	err := s.withRetry("lookup binding", func() error {
		return s.db.QueryRow(`
SELECT path, content_hash, names_json, run_id, updated_at_utc
FROM bindings
WHERE path = ? AND content_hash = ? AND collector_version = ?
`, path, hash, s.version).Scan(&entry.Path, &entry.Hash, &namesJSON, &entry.RunID, &tsRaw)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	if err := json.Unmarshal([]byte(namesJSON), &entry.Names); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached names for %q: %w", path, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return Entry{}, false, fmt.Errorf("parse cache timestamp %q: %w", tsRaw, err)
	}
	entry.UpdatedAt = ts.UTC()
	return entry, true, nil
}

// Put stores or replaces the row for entry.Path.
func (s *Store) Put(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Names == nil {
		entry.Names = []string{}
	}
	namesJSON, err := json.Marshal(entry.Names)
	if err != nil {
		return fmt.Errorf("encode names for %q: %w", entry.Path, err)
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	return s.withRetry("put binding", func() error {
		_, err := s.db.Exec(`
INSERT INTO bindings (path, content_hash, collector_version, names_json, run_id, updated_at_utc)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  content_hash=excluded.content_hash,
  collector_version=excluded.collector_version,
  names_json=excluded.names_json,
  run_id=excluded.run_id,
  updated_at_utc=excluded.updated_at_utc
`, entry.Path, entry.Hash, s.version, string(namesJSON), entry.RunID, entry.UpdatedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
}

// Forget drops the row for path, if any.
func (s *Store) Forget(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("forget binding", func() error {
		_, err := s.db.Exec(`DELETE FROM bindings WHERE path = ?`, path)
		return err
	})
}

// Prune deletes rows whose path lies under one of roots but is not in keep.
// It returns the number of rows removed.
func (s *Store) Prune(roots, keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[p] = true
	}

	var paths []string
	err := s.withRetry("list bindings", func() error {
		paths = paths[:0]
		rows, err := s.db.Query(`SELECT path FROM bindings`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				return err
			}
			paths = append(paths, p)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, err
	}

	stale := make([]string, 0)
	for _, p := range paths {
		if !keepSet[p] && underAny(p, roots) {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = s.withRetry("prune bindings", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, p := range stale {
			if _, err := tx.Exec(`DELETE FROM bindings WHERE path = ?`, p); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.withRetry("count bindings", func() error {
		return s.db.QueryRow(`SELECT COUNT(*) FROM bindings`).Scan(&n)
	})
	return n, err
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
