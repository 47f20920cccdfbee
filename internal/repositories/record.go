package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

const recordColumns = `id, sequence, display_name, relative_path, mime_type, size, is_pending, data_path, created_at, updated_at, deleted_at`

// RecordRepository persists [models.MediaRecord] rows for the content index.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository with the given database connection
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a new record. The caller assigns the ID so the data path can be derived from it first.
func (r *RecordRepository) Create(record *models.MediaRecord) error {
	sequence, err := NextSequence(r.db, "media_records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if record.ID() == "" {
		record.SetID(shared.GenerateID())
	}
	record.SetSequence(sequence)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO media_records (id, sequence, display_name, relative_path, mime_type, size, is_pending, data_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.ID(),
		sequence,
		record.DisplayName(),
		record.RelativePath(),
		record.MIMEType(),
		record.Size(),
		record.IsPending(),
		record.DataPath(),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID, excluding soft-deleted records
func (r *RecordRepository) Get(id string) (*models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media_records WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// FindByLocation returns the newest live record named displayName under relativePath, pending or not
func (r *RecordRepository) FindByLocation(relativePath, displayName string) (*models.MediaRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM media_records
		WHERE relative_path = ? AND display_name = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, models.NormalizeRelativePath(relativePath), displayName))
}

// Publish writes the mutable fields (MIME type, size, pending flag, data path) of a live record and, in the
// same transaction, soft-deletes every other live published record at its location. It returns how many
// records were superseded.
func (r *RecordRepository) Publish(record *models.MediaRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	superseded, err := tx.Exec(`
		UPDATE media_records
		SET deleted_at = ?
		WHERE relative_path = ? AND display_name = ? AND id != ? AND is_pending = 0 AND deleted_at IS NULL
	`, now, record.RelativePath(), record.DisplayName(), record.ID())
	if err != nil {
		return 0, fmt.Errorf("failed to supersede records: %w", err)
	}
	count, err := superseded.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE media_records
		SET mime_type = ?, size = ?, is_pending = ?, data_path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, record.MIMEType(), record.Size(), record.IsPending(), record.DataPath(), now, record.ID())
	if err != nil {
		return 0, fmt.Errorf("failed to update record: %w", err)
	}
	if err := requireAffected(result, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, record.ID())); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit publish transaction: %w", err)
	}

	record.SetUpdatedAt(now)
	return int(count), nil
}

// Delete soft-deletes a record by ID
func (r *RecordRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE media_records SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireAffected(result, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, id))
}

// List retrieves live records ordered by sequence.
//
// Supported criteria: "relative_path" (string), "pending" (bool), "updated_before" (time.Time).
func (r *RecordRepository) List(criteria map[string]any) ([]*models.MediaRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM media_records WHERE deleted_at IS NULL`
	args := []any{}

	if rel, ok := criteria["relative_path"].(string); ok && rel != "" {
		query += " AND relative_path = ?"
		args = append(args, models.NormalizeRelativePath(rel))
	}

	if pending, ok := criteria["pending"].(bool); ok {
		query += " AND is_pending = ?"
		args = append(args, pending)
	}

	if before, ok := criteria["updated_before"].(time.Time); ok {
		query += " AND updated_at < ?"
		args = append(args, before)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*models.MediaRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func scanRecord(s scanner) (*models.MediaRecord, error) {
	var (
		id           string
		sequence     int
		displayName  string
		relativePath string
		mimeType     string
		size         int64
		pending      bool
		dataPath     string
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &displayName, &relativePath, &mimeType, &size, &pending, &dataPath, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	record := models.NewMediaRecord(sequence, displayName, relativePath, mimeType)
	record.SetID(id)
	record.SetSize(size)
	record.SetPending(pending)
	record.SetDataPath(dataPath)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}

	return record, nil
}

// scanOne scans a single [sql.Row] into a [models.MediaRecord]
func (r *RecordRepository) scanOne(row *sql.Row) (*models.MediaRecord, error) {
	record, err := scanRecord(row)
	if isNoRows(err) {
		return nil, shared.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	return record, nil
}
