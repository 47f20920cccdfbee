package exporter

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

const (
	TargetAuto   = "auto"
	TargetScoped = "scoped"
	TargetDirect = "direct"
)

// WriteTarget opens destinations for exported files.
type WriteTarget interface {
	// Name identifies the target in outcomes and logs.
	Name() string

	// Open prepares a destination for displayName, replacing any earlier export with the same name.
	Open(ctx context.Context, displayName, mimeType string) (Sink, error)
}

// Sink is an open destination. Exactly one of Commit or Abort ends it.
type Sink interface {
	io.Writer

	// Commit makes the written bytes visible and returns where they ended up.
	Commit(ctx context.Context) (string, error)

	// Abort closes the destination and removes whatever was written.
	Abort(ctx context.Context) error
}

// ContentIndex is the subset of the media store used by the scoped target.
type ContentIndex interface {
	Find(ctx context.Context, relativePath, displayName string) (*models.MediaRecord, error)
	Insert(ctx context.Context, displayName, relativePath, mimeType string) (*models.MediaRecord, error)
	OpenWriter(ctx context.Context, id string) (io.WriteCloser, error)
	Publish(ctx context.Context, id string) (*models.MediaRecord, error)
	Delete(ctx context.Context, id string) error
}

// TargetOptions holds what both targets need to place files under Music/<AppName>.
type TargetOptions struct {
	AppName  string
	MusicDir string       // Filesystem music directory for the direct target
	Index    ContentIndex // Content index for the scoped target
}

// ResolveTarget picks a write target by name.
//
// "auto" (or empty) selects scoped when the platform mediates media writes through a content index and direct
// otherwise.
func ResolveTarget(name string, opts TargetOptions) (WriteTarget, error) {
	if name == "" || name == TargetAuto {
		name = TargetDirect
		if shared.HasScopedStorage() {
			name = TargetScoped
		}
	}

	if opts.AppName == "" {
		return nil, fmt.Errorf("%w: app name is required", shared.ErrInvalidTarget)
	}

	switch name {
	case TargetScoped:
		if opts.Index == nil {
			return nil, fmt.Errorf("%w: scoped target needs a content index", shared.ErrInvalidTarget)
		}
		return NewScopedTarget(opts.Index, opts.AppName), nil
	case TargetDirect:
		if opts.MusicDir == "" {
			return nil, fmt.Errorf("%w: direct target needs a music directory", shared.ErrInvalidTarget)
		}
		return NewDirectTarget(opts.MusicDir, opts.AppName), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTarget, name)
	}
}

// ScopedRelativePath is the content index folder exports are published to.
func ScopedRelativePath(appName string) string {
	return models.NormalizeRelativePath(path.Join("Music", appName))
}
