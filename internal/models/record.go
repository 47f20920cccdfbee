package models

import (
	"fmt"
	"path"
	"strings"
)

var _ Model = (*MediaRecord)(nil)

// MediaRecord is a file tracked by the content index.
//
// A record is pending while its writer is still running; pending records are hidden from listings.
type MediaRecord struct {
	Base
	displayName  string
	relativePath string
	mimeType     string
	size         int64
	pending      bool
	dataPath     string
}

// NewMediaRecord creates a pending record for displayName inside relativePath (e.g. "Music/trackport/").
func NewMediaRecord(sequence int, displayName, relativePath, mimeType string) *MediaRecord {
	return &MediaRecord{
		Base:         newBase(sequence),
		displayName:  displayName,
		relativePath: NormalizeRelativePath(relativePath),
		mimeType:     mimeType,
		pending:      true,
	}
}

func (r *MediaRecord) DisplayName() string  { return r.displayName }
func (r *MediaRecord) RelativePath() string { return r.relativePath }
func (r *MediaRecord) MIMEType() string     { return r.mimeType }
func (r *MediaRecord) Size() int64          { return r.size }
func (r *MediaRecord) IsPending() bool      { return r.pending }
func (r *MediaRecord) DataPath() string     { return r.dataPath }

func (r *MediaRecord) SetSize(n int64)      { r.size = n }
func (r *MediaRecord) SetPending(p bool)    { r.pending = p }
func (r *MediaRecord) SetDataPath(p string) { r.dataPath = p }
func (r *MediaRecord) SetMIMEType(m string) { r.mimeType = m }

// Location returns the record's path relative to the library root, e.g. "Music/trackport/A - B.m4a".
func (r *MediaRecord) Location() string {
	return path.Join(r.relativePath, r.displayName)
}

func (r *MediaRecord) Validate() error {
	if r.displayName == "" {
		return fmt.Errorf("display name is required")
	}
	if strings.ContainsAny(r.displayName, `/\`) {
		return fmt.Errorf("display name must not contain path separators: %q", r.displayName)
	}
	if r.relativePath == "" {
		return fmt.Errorf("relative path is required")
	}
	if strings.HasPrefix(r.relativePath, "/") || strings.Contains(r.relativePath, "..") {
		return fmt.Errorf("relative path must stay inside the library: %q", r.relativePath)
	}
	if r.dataPath == "" {
		return fmt.Errorf("data path is required")
	}
	return nil
}

// NormalizeRelativePath cleans p to slash form with a single trailing slash ("Music/app/").
func NormalizeRelativePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
