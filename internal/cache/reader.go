package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/trackport/internal/models"
)

// spanReader reads a contiguous run of spans in order, holding at most one segment file open.
type spanReader struct {
	ctx   context.Context
	spans []*models.CacheSpan
	next  int
	file  *os.File
	cur   io.Reader
}

func newSpanReader(ctx context.Context, spans []*models.CacheSpan) *spanReader {
	return &spanReader{ctx: ctx, spans: spans}
}

func (r *spanReader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			if r.next >= len(r.spans) {
				return 0, io.EOF
			}
			if err := r.ctx.Err(); err != nil {
				return 0, err
			}
			if err := r.openNext(); err != nil {
				return 0, err
			}
		}

		n, err := r.cur.Read(p)
		if errors.Is(err, io.EOF) {
			if closeErr := r.closeCurrent(); closeErr != nil {
				return n, closeErr
			}
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (r *spanReader) openNext() error {
	span := r.spans[r.next]
	r.next++

	f, err := os.Open(span.SegmentPath())
	if err != nil {
		return fmt.Errorf("failed to open segment for %s at %d: %w", span.Key(), span.Position(), err)
	}
	r.file = f
	r.cur = io.LimitReader(f, span.Length())
	return nil
}

func (r *spanReader) closeCurrent() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.cur = nil
	return err
}

// Close releases the open segment file, if any. Safe to call more than once.
func (r *spanReader) Close() error {
	r.next = len(r.spans)
	return r.closeCurrent()
}
