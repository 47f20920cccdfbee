package exporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

// Source is the read side of the media cache.
type Source interface {
	CachedLength(ctx context.Context, key string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Exporter copies cached tracks to a write target.
type Exporter struct {
	cache    Source
	target   WriteTarget
	reporter Reporter
	logger   *log.Logger
}

// New creates an exporter. A nil reporter logs outcomes through logger.
func New(cache Source, target WriteTarget, reporter Reporter, logger *log.Logger) *Exporter {
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}
	return &Exporter{cache: cache, target: target, reporter: reporter, logger: logger}
}

// Target returns the write target chosen for this exporter.
func (e *Exporter) Target() WriteTarget { return e.target }

// Export copies the cached bytes of req into a file named after its artist and title.
//
// The outcome is reported and returned. Failures, including panics from the cache or target, become
// [models.StatusFailed] outcomes.
func (e *Exporter) Export(ctx context.Context, req models.Request) (out models.Outcome) {
	start := time.Now()
	out = models.Outcome{Request: req, Target: e.target.Name()}
	logger := shared.WithLogger(e.logger, "id", req.Identifier, "target", out.Target)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("export panicked", "panic", r)
			out.Status = models.StatusFailed
			out.Location = ""
			out.Err = fmt.Errorf("%w: %v", shared.ErrExportPanic, r)
		}
		out.Duration = time.Since(start)
		e.report(logger, out)
	}()

	if err := req.Validate(); err != nil {
		out.Err = fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		return out
	}

	out.DisplayName = FileName(req)
	logger.Debug("resolved name", "name", out.DisplayName)

	length, err := e.cache.CachedLength(ctx, req.Identifier)
	if err != nil {
		out.Err = fmt.Errorf("failed to read cached length: %w", err)
		return out
	}
	if length == 0 {
		out.Status = models.StatusNoData
		return out
	}

	location, n, err := e.write(ctx, logger, req, out.DisplayName, length)
	out.Bytes = n
	if err != nil {
		out.Err = err
		return out
	}

	out.Status = models.StatusExported
	out.Location = location
	return out
}

// write streams length cached bytes into a new sink, committing on success and aborting otherwise.
func (e *Exporter) write(ctx context.Context, logger *log.Logger, req models.Request, name string, length int64) (location string, n int64, err error) {
	src, err := e.cache.Open(ctx, req.Identifier)
	if err == nil && src == nil {
		err = shared.ErrNilStream
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to open cache: %w", err)
	}
	defer src.Close()

	sink, err := e.target.Open(ctx, name, req.MIMEType)
	if err == nil && sink == nil {
		err = shared.ErrNilStream
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to open destination: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if aerr := sink.Abort(ctx); aerr != nil {
			logger.Warn("failed to clean up partial export", "error", aerr)
		}
	}()

	logger.Debug("copying", "bytes", length)
	n, err = io.Copy(sink, io.LimitReader(src, length))
	if err != nil {
		return "", n, fmt.Errorf("failed to copy: %w", err)
	}
	if n != length {
		return "", n, fmt.Errorf("%w: %d of %d bytes", shared.ErrShortCopy, n, length)
	}

	location, err = sink.Commit(ctx)
	if err != nil {
		return "", n, err
	}
	committed = true

	return location, n, nil
}

func (e *Exporter) report(logger *log.Logger, out models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("reporter panicked", "panic", r)
		}
	}()
	e.reporter.Report(out)
}

