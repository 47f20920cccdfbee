package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

const entryColumns = `id, sequence, cache_key, title, artist, mime_type, created_at, updated_at, deleted_at`

// EntryRepository persists [models.CacheEntry] metadata, one live row per cache key.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository with the given database connection
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts a new entry with generated ID and sequence
func (r *EntryRepository) Create(entry *models.CacheEntry) error {
	sequence, err := NextSequence(r.db, "cache_entries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetID(shared.GenerateID())
	entry.SetSequence(sequence)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO cache_entries (id, sequence, cache_key, title, artist, mime_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		entry.ID(),
		sequence,
		entry.Key(),
		entry.Title(),
		entry.Artist(),
		entry.MIMEType(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *EntryRepository) Get(id string) (*models.CacheEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM cache_entries WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByKey retrieves the live entry for a cache key
func (r *EntryRepository) GetByKey(key string) (*models.CacheEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM cache_entries WHERE cache_key = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, key))
}

// Update modifies the metadata of an existing entry
func (r *EntryRepository) Update(entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE cache_entries
		SET title = ?, artist = ?, mime_type = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, entry.Title(), entry.Artist(), entry.MIMEType(), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, entry.ID()))
}

// Upsert stores metadata for entry's key, updating the live row when one exists
func (r *EntryRepository) Upsert(entry *models.CacheEntry) error {
	existing, err := r.GetByKey(entry.Key())
	if errors.Is(err, shared.ErrEntryNotFound) {
		return r.Create(entry)
	}
	if err != nil {
		return err
	}

	existing.SetMeta(entry.Title(), entry.Artist(), entry.MIMEType())
	if err := r.Update(existing); err != nil {
		return err
	}

	entry.SetID(existing.ID())
	entry.SetSequence(existing.Sequence())
	entry.SetCreatedAt(existing.CreatedAt())
	entry.SetUpdatedAt(existing.UpdatedAt())
	return nil
}

// Delete soft-deletes an entry by ID
func (r *EntryRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE cache_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id))
}

// List retrieves all live entries ordered by sequence.
//
// Supported criteria: "artist" (string).
func (r *EntryRepository) List(criteria map[string]any) ([]*models.CacheEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM cache_entries WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func scanEntry(s scanner) (*models.CacheEntry, error) {
	var (
		id        string
		sequence  int
		key       string
		title     string
		artist    string
		mimeType  string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := s.Scan(&id, &sequence, &key, &title, &artist, &mimeType, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	entry := models.NewCacheEntry(sequence, key, title, artist, mimeType)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}

// scanOne scans a single [sql.Row] into a [models.CacheEntry]
func (r *EntryRepository) scanOne(row *sql.Row) (*models.CacheEntry, error) {
	entry, err := scanEntry(row)
	if isNoRows(err) {
		return nil, shared.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	return entry, nil
}
