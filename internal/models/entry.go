package models

import "fmt"

var _ Model = (*CacheEntry)(nil)

// CacheEntry holds display metadata for a cached key.
type CacheEntry struct {
	Base
	key      string
	title    string
	artist   string
	mimeType string

	// Length is the contiguous cached byte count, filled in by the cache store on reads.
	Length int64
}

// NewCacheEntry creates metadata for key.
func NewCacheEntry(sequence int, key, title, artist, mimeType string) *CacheEntry {
	return &CacheEntry{
		Base:     newBase(sequence),
		key:      key,
		title:    title,
		artist:   artist,
		mimeType: mimeType,
	}
}

func (e *CacheEntry) Key() string      { return e.key }
func (e *CacheEntry) Title() string    { return e.title }
func (e *CacheEntry) Artist() string   { return e.artist }
func (e *CacheEntry) MIMEType() string { return e.mimeType }

// SetMeta replaces the display metadata.
func (e *CacheEntry) SetMeta(title, artist, mimeType string) {
	e.title = title
	e.artist = artist
	e.mimeType = mimeType
}

// Request builds the export request for this entry.
func (e *CacheEntry) Request() Request {
	return Request{Identifier: e.key, Title: e.title, Artist: e.artist, MIMEType: e.mimeType}
}

func (e *CacheEntry) Validate() error {
	if e.key == "" {
		return fmt.Errorf("entry key is required")
	}
	return nil
}
