package mediastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/repositories"
	"github.com/desertthunder/trackport/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	pendingDir = ".pending"

	// sweepConcurrency bounds the goroutines removing stale pending records
	sweepConcurrency = 4
)

// Store is the SQLite backed content index rooted at a library directory.
type Store struct {
	records *repositories.RecordRepository
	root    string
	logger  *log.Logger
}

// NewStore creates a content index that keeps files under root.
func NewStore(db *sql.DB, root string, logger *log.Logger) *Store {
	return &Store{
		records: repositories.NewRecordRepository(db),
		root:    root,
		logger:  logger,
	}
}

// Root returns the library root directory.
func (s *Store) Root() string { return s.root }

// Path returns the absolute filesystem path of a location relative to the root.
func (s *Store) Path(location string) string {
	return filepath.Join(s.root, filepath.FromSlash(location))
}

// Insert creates a pending record for displayName in relativePath and allocates its hidden file.
func (s *Store) Insert(ctx context.Context, displayName, relativePath, mimeType string) (*models.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, pendingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pending directory: %w", err)
	}

	record := models.NewMediaRecord(0, displayName, relativePath, mimeType)
	record.SetID(shared.GenerateID())
	record.SetDataPath(filepath.Join(dir, record.ID()))

	f, err := os.OpenFile(record.DataPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pending file: %w", err)
	}
	f.Close()

	if err := s.records.Create(record); err != nil {
		os.Remove(record.DataPath())
		return nil, err
	}

	s.logger.Debug("inserted pending record", "id", record.ID(), "location", record.Location())
	return record, nil
}

// Get returns a live record by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records.Get(id)
}

// Find returns the live record named displayName in relativePath, pending or published.
//
// Returns [shared.ErrRecordNotFound] when there is none.
func (s *Store) Find(ctx context.Context, relativePath, displayName string) (*models.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records.FindByLocation(relativePath, displayName)
}

// Delete removes a record from the index and deletes its file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record, err := s.records.Get(id)
	if err != nil {
		return err
	}

	if err := s.records.Delete(id); err != nil {
		return err
	}

	if err := os.Remove(record.DataPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", record.Location(), err)
	}

	s.logger.Debug("deleted record", "id", id, "location", record.Location(), "pending", record.IsPending())
	return nil
}

// OpenWriter opens the hidden file of a pending record for writing, truncating earlier content.
func (s *Store) OpenWriter(ctx context.Context, id string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.records.Get(id)
	if err != nil {
		return nil, err
	}
	if !record.IsPending() {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotPending, id)
	}

	f, err := os.OpenFile(record.DataPath(), os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open pending file: %w", err)
	}
	return f, nil
}

// Publish clears the pending flag of a record and moves its file into the visible library.
// Any other published record at the same location is soft-deleted in the same transaction.
func (s *Store) Publish(ctx context.Context, id string) (*models.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.records.Get(id)
	if err != nil {
		return nil, err
	}
	if !record.IsPending() {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotPending, id)
	}

	pendingPath := record.DataPath()
	finalPath := s.Path(record.Location())

	info, err := os.Stat(pendingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat pending file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}
	if err := os.Rename(pendingPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", record.Location(), err)
	}

	record.SetPending(false)
	record.SetSize(info.Size())
	record.SetDataPath(finalPath)
	// Records superseded here shared finalPath, which the rename already replaced.
	superseded, err := s.records.Publish(record)
	if err != nil {
		if rerr := os.Rename(finalPath, pendingPath); rerr != nil {
			s.logger.Error("failed to restore pending file", "id", id, "error", rerr)
		}
		return nil, err
	}

	s.logger.Debug("published record", "id", id, "location", record.Location(), "size", info.Size(), "superseded", superseded)
	return record, nil
}

// List returns the published records in relativePath, or in the whole library when relativePath is empty.
func (s *Store) List(ctx context.Context, relativePath string) ([]*models.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records.List(map[string]any{"relative_path": relativePath, "pending": false})
}

// Sweep deletes pending records untouched for longer than olderThan, along with their hidden files.
//
// Pending records are left behind only when a process dies mid-write. Returns the number removed.
func (s *Store) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.records.List(map[string]any{
		"pending":        true,
		"updated_before": time.Now().Add(-olderThan),
	})
	if err != nil {
		return 0, err
	}

	var removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, record := range stale {
		g.Go(func() error {
			if err := s.Delete(gctx, record.ID()); err != nil {
				if errors.Is(err, shared.ErrRecordNotFound) {
					return nil
				}
				return fmt.Errorf("failed to sweep %s: %w", record.ID(), err)
			}
			removed.Add(1)
			return nil
		})
	}

	err = g.Wait()
	s.logger.Info("swept pending records", "found", len(stale), "removed", removed.Load())
	return int(removed.Load()), err
}
