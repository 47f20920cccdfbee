package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

const spanColumns = `id, sequence, cache_key, position, length, segment_path, created_at, updated_at, deleted_at`

// SpanRepository persists [models.CacheSpan] rows.
//
// Spans of a key never share a start position; overlap checks beyond that belong to the cache store.
type SpanRepository struct {
	db *sql.DB
}

// NewSpanRepository creates a new SpanRepository with the given database connection
func NewSpanRepository(db *sql.DB) *SpanRepository {
	return &SpanRepository{db: db}
}

// Create inserts a new span with generated ID and sequence
func (r *SpanRepository) Create(span *models.CacheSpan) error {
	sequence, err := NextSequence(r.db, "cache_spans")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	span.SetID(shared.GenerateID())
	span.SetSequence(sequence)

	if err := span.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO cache_spans (id, sequence, cache_key, position, length, segment_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		span.ID(),
		sequence,
		span.Key(),
		span.Position(),
		span.Length(),
		span.SegmentPath(),
		span.CreatedAt(),
		span.UpdatedAt(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s at %d", shared.ErrSpanOverlap, span.Key(), span.Position())
		}
		return fmt.Errorf("failed to insert span: %w", err)
	}

	return nil
}

// Get retrieves a span by ID, excluding soft-deleted spans
func (r *SpanRepository) Get(id string) (*models.CacheSpan, error) {
	query := `SELECT ` + spanColumns + ` FROM cache_spans WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// ListByKey returns the live spans of key ordered by position
func (r *SpanRepository) ListByKey(key string) ([]*models.CacheSpan, error) {
	return r.List(map[string]any{"key": key})
}

// List retrieves all spans matching the given criteria, ordered by key then position.
//
// Supported criteria: "key" (string).
func (r *SpanRepository) List(criteria map[string]any) ([]*models.CacheSpan, error) {
	query := `SELECT ` + spanColumns + ` FROM cache_spans WHERE deleted_at IS NULL`
	args := []any{}

	if key, ok := criteria["key"].(string); ok && key != "" {
		query += " AND cache_key = ?"
		args = append(args, key)
	}

	query += " ORDER BY cache_key ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spans: %w", err)
	}
	defer rows.Close()

	var spans []*models.CacheSpan
	for rows.Next() {
		span, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return spans, nil
}

// Keys returns the distinct keys that have at least one live span
func (r *SpanRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT cache_key FROM cache_spans WHERE deleted_at IS NULL ORDER BY cache_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query span keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan span key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Delete soft-deletes a span by ID
func (r *SpanRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE cache_spans SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete span: %w", err)
	}
	return requireAffected(result, fmt.Errorf("span not found or already deleted: %s", id))
}

// DeleteByKey soft-deletes every live span of key and returns how many were removed
func (r *SpanRepository) DeleteByKey(key string) (int64, error) {
	result, err := r.db.Exec(`UPDATE cache_spans SET deleted_at = ? WHERE cache_key = ? AND deleted_at IS NULL`, time.Now(), key)
	if err != nil {
		return 0, fmt.Errorf("failed to delete spans: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpan(s scanner) (*models.CacheSpan, error) {
	var (
		id          string
		sequence    int
		key         string
		position    int64
		length      int64
		segmentPath string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	if err := s.Scan(&id, &sequence, &key, &position, &length, &segmentPath, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	span := models.NewCacheSpan(sequence, key, position, length, segmentPath)
	span.SetID(id)
	span.SetCreatedAt(createdAt)
	span.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		span.SetDeletedAt(&deletedAt.Time)
	}

	return span, nil
}

// scanOne scans a single [sql.Row] into a [models.CacheSpan]
func (r *SpanRepository) scanOne(row *sql.Row) (*models.CacheSpan, error) {
	span, err := scanSpan(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("span not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan span: %w", err)
	}
	return span, nil
}

// scanRow scans a row from [sql.Rows] into a [models.CacheSpan]
func (r *SpanRepository) scanRow(rows *sql.Rows) (*models.CacheSpan, error) {
	span, err := scanSpan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan span: %w", err)
	}
	return span, nil
}
