// Package file persists the ledger snapshot to a single JSON file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/iho/bankledger/internal/adapter/repository/snapshot"
	"github.com/iho/bankledger/internal/domain"
)

// Store implements usecase.Store on top of one file.
type Store struct {
	path  string
	clock func() time.Time
}

// NewStore creates a store for the snapshot at path.
func NewStore(path string) *Store {
	return &Store{path: path, clock: time.Now}
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Load reads and decodes the snapshot file.
func (s *Store) Load(ctx context.Context) ([]domain.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	return snapshot.Decode(data)
}

// Save replaces the snapshot file. The new content is written to a temporary
// file in the same directory, synced, then renamed over the target, so a
// reader sees either the old or the new snapshot.
func (s *Store) Save(ctx context.Context, records []domain.AccountRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := snapshot.Encode(records, s.clock())
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	committed = true

	syncDir(dir)

	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports syncing a directory, so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
