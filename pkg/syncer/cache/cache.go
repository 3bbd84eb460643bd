// Package cache persists the per-pass catalog snapshot that drives change
// detection. The snapshot is a single JSON document replaced wholesale after
// each successful pass; there are no merge semantics.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// ErrCacheLoad indicates an error occurred while reading or decoding the
// snapshot file. Treated as an empty cache by callers, never fatal.
var ErrCacheLoad = errors.New("failed to load snapshot cache")

// ErrCachePersist indicates an error occurred while writing the snapshot file.
var ErrCachePersist = errors.New("failed to persist snapshot cache")

// Snapshot is the full persisted mapping from item identity to its last-synced
// record. Keys are stringified catalog ids for serialization stability.
type Snapshot map[string]catalog.Item

// Store loads and saves snapshots.
type Store interface {
	// Load returns the prior snapshot. A missing or corrupt file yields an
	// empty snapshot and a nil error; corruption is logged, not fatal.
	Load() (Snapshot, error)
	// Save replaces any prior content with the given snapshot, creating parent
	// directories as needed. The write is atomic (temp file + rename).
	Save(Snapshot) error
}

// FileStore implements Store against a single JSON file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a Store persisting to the given file path.
func NewFileStore(path string, loggerHandler slog.Handler) *FileStore {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "cache"))
	return &FileStore{path: path, logger: logger}
}

// Path returns the file path this store persists to.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("No snapshot cache found, starting fresh", slog.String("path", s.path))
			return Snapshot{}, nil
		}
		// Unreadable cache is degraded to a full resync rather than failing
		// the pass; the next successful save rewrites it.
		s.logger.Warn("Cannot read snapshot cache, starting fresh",
			slog.String("path", s.path), slog.String("error", err.Error()))
		return Snapshot{}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Corrupted snapshot cache, starting fresh",
			slog.String("path", s.path), slog.String("error", err.Error()))
		return Snapshot{}, nil
	}
	if snap == nil {
		snap = Snapshot{}
	}
	s.logger.Debug("Snapshot cache loaded", slog.String("path", s.path), slog.Int("entries", len(snap)))
	return snap, nil
}

// Save implements Store.
func (s *FileStore) Save(snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create cache directory '%s': %w", ErrCachePersist, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: cannot create temporary cache file in '%s': %w", ErrCachePersist, dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpPath); statErr == nil {
			_ = os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: cannot encode snapshot to '%s': %w", ErrCachePersist, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: cannot close temporary cache file '%s': %w", ErrCachePersist, tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: cannot rename '%s' to '%s': %w", ErrCachePersist, tmpPath, s.path, err)
	}

	s.logger.Debug("Snapshot cache persisted", slog.String("path", s.path), slog.Int("entries", len(snap)))
	return nil
}
