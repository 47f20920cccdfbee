// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
)

// ErrInjected is returned by the failing doubles in this package
var ErrInjected = errors.New("injected failure")

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// Close closes the target when it is an [io.Closer]
func (l *LimitedWriter) Close() error {
	if c, ok := l.target.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// BrokenReader yields data and then fails with [ErrInjected] instead of io.EOF
type BrokenReader struct {
	data   *bytes.Reader
	closed bool
}

func NewBrokenReader(data []byte) *BrokenReader {
	return &BrokenReader{data: bytes.NewReader(data)}
}

func (b *BrokenReader) Read(p []byte) (int, error) {
	if b.data.Len() == 0 {
		return 0, ErrInjected
	}
	return b.data.Read(p)
}

func (b *BrokenReader) Close() error {
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *BrokenReader) Closed() bool { return b.closed }

// PanicReader panics on the first Read
type PanicReader struct{}

func (PanicReader) Read([]byte) (int, error) { panic("read exploded") }
func (PanicReader) Close() error             { return nil }

// TrackingCloser wraps a reader and records whether it was closed
type TrackingCloser struct {
	io.Reader
	closed bool
}

func NewTrackingCloser(r io.Reader) *TrackingCloser {
	return &TrackingCloser{Reader: r}
}

func (c *TrackingCloser) Close() error {
	c.closed = true
	return nil
}

func (c *TrackingCloser) Closed() bool { return c.closed }

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Path should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

// AssertDirEntries fails unless dir holds exactly want entries
func AssertDirEntries(t *testing.T, dir string, want int) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read directory %s: %v", dir, err)
	}
	if len(entries) != want {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Directory %s has %d entries %v, want %d", dir, len(entries), names, want)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
