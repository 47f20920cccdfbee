package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

// ScopedTarget writes through a content index as pending records published on commit.
type ScopedTarget struct {
	index        ContentIndex
	relativePath string
	locks        nameLocks
}

// NewScopedTarget creates a target publishing to Music/<appName>/ in index.
func NewScopedTarget(index ContentIndex, appName string) *ScopedTarget {
	return &ScopedTarget{index: index, relativePath: ScopedRelativePath(appName)}
}

func (t *ScopedTarget) Name() string { return TargetScoped }

// RelativePath returns the folder records are published to.
func (t *ScopedTarget) RelativePath() string { return t.relativePath }

// Open deletes any record already named displayName, inserts a pending record, and opens its stream.
// Opens of the same displayName wait until the previous sink commits or aborts.
func (t *ScopedTarget) Open(ctx context.Context, displayName, mimeType string) (sink Sink, err error) {
	release := t.locks.lock(displayName)
	defer func() {
		if err != nil {
			release()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := t.index.Find(ctx, t.relativePath, displayName)
	switch {
	case err == nil:
		if err := t.index.Delete(ctx, existing.ID()); err != nil {
			return nil, fmt.Errorf("failed to replace %s: %w", existing.Location(), err)
		}
	case !errors.Is(err, shared.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up %s: %w", displayName, err)
	}

	record, err := t.index.Insert(ctx, displayName, t.relativePath, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	w, err := t.index.OpenWriter(ctx, record.ID())
	if err == nil && w == nil {
		err = shared.ErrNilStream
	}
	if err != nil {
		if derr := t.index.Delete(ctx, record.ID()); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, fmt.Errorf("failed to open record stream: %w", err)
	}

	return &scopedSink{index: t.index, record: record, w: w, release: release}, nil
}

type scopedSink struct {
	index   ContentIndex
	record  *models.MediaRecord
	w       io.WriteCloser
	closed  bool
	release func()
}

func (s *scopedSink) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *scopedSink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

func (s *scopedSink) Commit(ctx context.Context) (string, error) {
	defer s.release()

	if err := s.close(); err != nil {
		return "", fmt.Errorf("failed to close record stream: %w", err)
	}

	published, err := s.index.Publish(ctx, s.record.ID())
	if err != nil {
		return "", fmt.Errorf("failed to publish record: %w", err)
	}
	return published.DataPath(), nil
}

func (s *scopedSink) Abort(ctx context.Context) error {
	defer s.release()

	cerr := s.close()
	// The record is deleted even when ctx is already canceled.
	derr := s.index.Delete(context.WithoutCancel(ctx), s.record.ID())
	if errors.Is(derr, shared.ErrRecordNotFound) {
		derr = nil
	}
	return errors.Join(cerr, derr)
}
