// Package snapshot writes the record store to JSONL files on demand or on a
// cron schedule, and restores a store from such a file.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/logging"
	"github.com/matsen/artman/internal/storage"
)

// ErrStoreNotEmpty is returned by Restore when the target store has records.
var ErrStoreNotEmpty = errors.New("store is not empty")

// Snapshotter dumps every record of a store to a JSONL file.
type Snapshotter struct {
	store  storage.Store
	path   string
	logger *slog.Logger
}

// New creates a Snapshotter writing to path.
func New(store storage.Store, path string, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Snapshotter{
		store:  store,
		path:   path,
		logger: logger.With("component", "snapshot"),
	}
}

// Path returns the snapshot file location.
func (s *Snapshotter) Path() string {
	return s.path
}

// Run writes all records to the snapshot file and returns how many were
// written. The file is replaced atomically; readers never see a partial write.
func (s *Snapshotter) Run(ctx context.Context) (int, error) {
	articles, err := s.store.FindAll(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listing articles: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := storage.WriteAll(tmpPath, articles); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("replacing snapshot: %w", err)
	}

	s.logger.Info("snapshot written", "path", s.path, "count", len(articles))
	return len(articles), nil
}

// Restore inserts every record from a JSONL snapshot into an empty store,
// keeping ids and creation times. It returns the number of records inserted.
func Restore(ctx context.Context, store storage.Store, path string) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	if n > 0 {
		return 0, fmt.Errorf("%w: %d records", ErrStoreNotEmpty, n)
	}

	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	articles, err := storage.ReadAll(path)
	if err != nil {
		return 0, err
	}

	for i, a := range articles {
		if err := (article.Fields{Title: a.Title}).Validate(); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, err := store.Insert(ctx, a); err != nil {
			return i, fmt.Errorf("inserting record %d (%s): %w", i+1, a.ID, err)
		}
	}
	return len(articles), nil
}
