// package models defines the data model for the cache exporter
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Base carries the bookkeeping fields shared by every persisted entity.
type Base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) Base {
	now := time.Now()
	return Base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *Base) ID() string                { return b.id }
func (b *Base) SetID(id string)           { b.id = id }
func (b *Base) Sequence() int             { return b.sequence }
func (b *Base) SetSequence(seq int)       { b.sequence = seq }
func (b *Base) CreatedAt() time.Time      { return b.createdAt }
func (b *Base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *Base) UpdatedAt() time.Time      { return b.updatedAt }
func (b *Base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *Base) DeletedAt() *time.Time     { return b.deletedAt }
func (b *Base) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// IsDeleted reports whether the entity has been soft-deleted.
func (b *Base) IsDeleted() bool { return b.deletedAt != nil }
