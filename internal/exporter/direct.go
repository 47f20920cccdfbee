package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirectTarget writes files straight into <musicDir>/<appName>.
type DirectTarget struct {
	dir   string
	locks nameLocks
}

// NewDirectTarget creates a target writing into <musicDir>/<appName>.
func NewDirectTarget(musicDir, appName string) *DirectTarget {
	return &DirectTarget{dir: filepath.Join(musicDir, appName)}
}

func (t *DirectTarget) Name() string { return TargetDirect }

// Dir returns the directory files are written to.
func (t *DirectTarget) Dir() string { return t.dir }

// Open ensures the directory exists and creates or truncates displayName in it.
// Opens of the same displayName wait until the previous sink commits or aborts.
func (t *DirectTarget) Open(ctx context.Context, displayName, _ string) (sink Sink, err error) {
	release := t.locks.lock(displayName)
	defer func() {
		if err != nil {
			release()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", t.dir, err)
	}

	p := filepath.Join(t.dir, displayName)
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", p, err)
	}
	return &fileSink{f: f, path: p, release: release}, nil
}

type fileSink struct {
	f       *os.File
	path    string
	closed  bool
	release func()
}

func (s *fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *fileSink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

func (s *fileSink) Commit(context.Context) (string, error) {
	defer s.release()

	if err := s.close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	return s.path, nil
}

func (s *fileSink) Abort(context.Context) error {
	defer s.release()

	cerr := s.close()
	rerr := os.Remove(s.path)
	if errors.Is(rerr, os.ErrNotExist) {
		rerr = nil
	}
	return errors.Join(cerr, rerr)
}
