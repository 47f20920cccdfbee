package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/repositories"
	"github.com/desertthunder/trackport/internal/shared"
)

const segmentExt = ".seg"

// Meta is the display metadata recorded for a cache key.
type Meta struct {
	Title    string
	Artist   string
	MIMEType string
}

// Store is the SQLite + filesystem backed media cache.
type Store struct {
	spans   *repositories.SpanRepository
	entries *repositories.EntryRepository
	dir     string
	logger  *log.Logger

	// mu serializes the overlap check and insert in Put
	mu sync.Mutex
}

// NewStore creates a cache store keeping segment files in dir.
func NewStore(db *sql.DB, dir string, logger *log.Logger) *Store {
	return &Store{
		spans:   repositories.NewSpanRepository(db),
		entries: repositories.NewEntryRepository(db),
		dir:     dir,
		logger:  logger,
	}
}

// Dir returns the segment directory.
func (s *Store) Dir() string { return s.dir }

// Put stores the bytes of r as a span of key starting at position.
//
// The bytes are written to a temporary file first so a failed read never leaves a span behind.
// A span that would overlap an existing one fails with [shared.ErrSpanOverlap].
func (s *Store) Put(ctx context.Context, key string, position int64, r io.Reader) (*models.CacheSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: cache key is required", shared.ErrMissingArgument)
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: position must not be negative", shared.ErrInvalidArgument)
	}
	if r == nil {
		return nil, shared.ErrNilStream
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create segment file: %w", err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write segment: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: nothing to cache for %s", shared.ErrInvalidInput, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.spans.ListByKey(key)
	if err != nil {
		return nil, err
	}

	segmentPath := filepath.Join(s.dir, shared.GenerateID()+segmentExt)
	span := models.NewCacheSpan(0, key, position, n, segmentPath)
	for _, other := range existing {
		if span.Overlaps(other) {
			return nil, fmt.Errorf("%w: %s [%d, %d) overlaps [%d, %d)",
				shared.ErrSpanOverlap, key, span.Position(), span.End(), other.Position(), other.End())
		}
	}

	if err := os.Rename(tmpPath, segmentPath); err != nil {
		return nil, fmt.Errorf("failed to store segment: %w", err)
	}

	if err := s.spans.Create(span); err != nil {
		os.Remove(segmentPath)
		return nil, err
	}
	keep = true

	s.logger.Debug("cached span", "key", key, "position", position, "length", n)
	return span, nil
}

// Spans returns the spans of key sorted by position.
func (s *Store) Spans(ctx context.Context, key string) ([]*models.CacheSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.spans.ListByKey(key)
}

// CachedLength returns the number of bytes readable for key: the contiguous run from position 0.
func (s *Store) CachedLength(ctx context.Context, key string) (int64, error) {
	spans, err := s.Spans(ctx, key)
	if err != nil {
		return 0, err
	}
	return models.ContiguousLength(spans), nil
}

// Open returns a sequential reader over the contiguous bytes of key.
//
// Returns [shared.ErrNoCachedData] when nothing is readable from position 0.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	spans, err := s.Spans(ctx, key)
	if err != nil {
		return nil, err
	}

	var (
		run []*models.CacheSpan
		end int64
	)
	for _, span := range spans {
		if span.Position() != end {
			break
		}
		run = append(run, span)
		end = span.End()
	}

	if len(run) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCachedData, key)
	}
	return newSpanReader(ctx, run), nil
}

// Remove drops every span of key, their segment files, and the key's metadata.
//
// Returns [shared.ErrEntryNotFound] when the key had neither spans nor metadata.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spans, err := s.spans.ListByKey(key)
	if err != nil {
		return err
	}

	removed, err := s.spans.DeleteByKey(key)
	if err != nil {
		return err
	}

	for _, span := range spans {
		if err := os.Remove(span.SegmentPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove segment", "path", span.SegmentPath(), "error", err)
		}
	}

	entry, err := s.entries.GetByKey(key)
	switch {
	case err == nil:
		if err := s.entries.Delete(entry.ID()); err != nil {
			return err
		}
		removed++
	case !errors.Is(err, shared.ErrEntryNotFound):
		return err
	}

	if removed == 0 {
		return fmt.Errorf("%w: %s", shared.ErrEntryNotFound, key)
	}

	s.logger.Debug("removed cache key", "key", key, "spans", len(spans))
	return nil
}

// Describe records display metadata for key, replacing any previous metadata.
func (s *Store) Describe(ctx context.Context, key string, meta Meta) (*models.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := models.NewCacheEntry(0, key, meta.Title, meta.Artist, meta.MIMEType)
	if err := s.entries.Upsert(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Entry returns the metadata and cached length of key.
//
// A key with spans but no recorded metadata yields an entry with empty metadata.
func (s *Store) Entry(ctx context.Context, key string) (*models.CacheEntry, error) {
	length, err := s.CachedLength(ctx, key)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByKey(key)
	if err != nil {
		if !errors.Is(err, shared.ErrEntryNotFound) || length == 0 {
			return nil, err
		}
		entry = models.NewCacheEntry(0, key, "", "", "")
	}

	entry.Length = length
	return entry, nil
}

// Entries lists every key with metadata or spans, sorted by key.
func (s *Store) Entries(ctx context.Context) ([]*models.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	described, err := s.entries.List(map[string]any{})
	if err != nil {
		return nil, err
	}

	spans, err := s.spans.List(map[string]any{})
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]*models.CacheSpan)
	for _, span := range spans {
		byKey[span.Key()] = append(byKey[span.Key()], span)
	}

	entries := make([]*models.CacheEntry, 0, len(described)+len(byKey))
	seen := make(map[string]bool, len(described))
	for _, entry := range described {
		entry.Length = models.ContiguousLength(byKey[entry.Key()])
		entries = append(entries, entry)
		seen[entry.Key()] = true
	}
	for key, keySpans := range byKey {
		if seen[key] {
			continue
		}
		entry := models.NewCacheEntry(0, key, "", "", "")
		entry.Length = models.ContiguousLength(keySpans)
		entries = append(entries, entry)
	}

	slices.SortFunc(entries, func(a, b *models.CacheEntry) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return entries, nil
}
