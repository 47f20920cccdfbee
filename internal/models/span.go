package models

import (
	"fmt"
)

var _ Model = (*CacheSpan)(nil)

// CacheSpan is a contiguous previously-downloaded byte range for a cache key.
//
// The bytes live in a segment file; the span only records where they belong in the full stream.
type CacheSpan struct {
	Base
	key         string
	position    int64
	length      int64
	segmentPath string
}

// NewCacheSpan creates a span of length bytes starting at position for key.
func NewCacheSpan(sequence int, key string, position, length int64, segmentPath string) *CacheSpan {
	return &CacheSpan{
		Base:        newBase(sequence),
		key:         key,
		position:    position,
		length:      length,
		segmentPath: segmentPath,
	}
}

func (s *CacheSpan) Key() string         { return s.key }
func (s *CacheSpan) Position() int64     { return s.position }
func (s *CacheSpan) Length() int64       { return s.length }
func (s *CacheSpan) SegmentPath() string { return s.segmentPath }

// End returns the position one past the last byte of the span.
func (s *CacheSpan) End() int64 { return s.position + s.length }

// Overlaps reports whether s and other share at least one byte position.
func (s *CacheSpan) Overlaps(other *CacheSpan) bool {
	return s.position < other.End() && other.position < s.End()
}

func (s *CacheSpan) Validate() error {
	if s.key == "" {
		return fmt.Errorf("span key is required")
	}
	if s.position < 0 {
		return fmt.Errorf("span position must not be negative: %d", s.position)
	}
	if s.length <= 0 {
		return fmt.Errorf("span length must be positive: %d", s.length)
	}
	if s.segmentPath == "" {
		return fmt.Errorf("span segment path is required")
	}
	return nil
}

// ContiguousLength returns the number of bytes covered without gaps from position 0.
//
// spans must be sorted by position.
func ContiguousLength(spans []*CacheSpan) int64 {
	var end int64
	for _, s := range spans {
		if s.position > end {
			break
		}
		if s.End() > end {
			end = s.End()
		}
	}
	return end
}
