package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/trackport/internal/formatter"
	"github.com/desertthunder/trackport/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 4
	MaxWorkers       = 10
	DefaultRateLimit = 5.0
)

// BulkExportOpts contains configuration for batch exports.
type BulkExportOpts struct {
	Format     string  // Manifest format: json, csv, txt
	OutputDir  string  // Manifest directory (default: trackport_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Exports started per second (default: 5)
}

// BulkExportResult summarizes a batch export.
type BulkExportResult struct {
	Total        int              // Requests given
	Exported     int              // Outcomes with a written file
	NoData       int              // Requests with nothing cached
	Failed       int              // Failed exports
	Outcomes     []models.Outcome // Outcomes in request order; requests skipped by cancellation have none
	ManifestPath string           // Path of the written manifest
}

// Skipped returns how many requests never ran.
func (r *BulkExportResult) Skipped() int {
	return r.Total - len(r.Outcomes)
}

type exportJob struct {
	index int
	req   models.Request
}

type exportResult struct {
	index   int
	outcome models.Outcome
}

// BulkExport exports requests concurrently with rate limiting and progress tracking.
//
// Individual failures never stop the batch. Cancelling ctx stops dispatching; exports already running finish
// and the manifest covers whatever completed.
func (e *Engine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	requests []models.Request,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.exporter == nil {
		return nil, fmt.Errorf("exporter not initialized")
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("trackport_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	total := len(requests)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, total)
	results := make(chan exportResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, req := range requests {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			jobs <- exportJob{index: i, req: req}
			e.sendProgress(prog, queueUpdate(i+1, total, req))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*models.Outcome, total)
	completed := 0
	for res := range results {
		completed++
		ordered[res.index] = &res.outcome
		e.sendProgress(prog, outcomeUpdate(completed, total, res.outcome))
	}

	result := &BulkExportResult{Total: total, Outcomes: make([]models.Outcome, 0, completed)}
	for _, o := range ordered {
		if o == nil {
			continue
		}
		switch o.Status {
		case models.StatusExported:
			result.Exported++
		case models.StatusNoData:
			result.NoData++
		default:
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, *o)
	}

	if skipped := result.Skipped(); skipped > 0 {
		e.logger.Warn("batch export interrupted", "skipped", skipped, "error", ctx.Err())
	}

	var target string
	if len(result.Outcomes) > 0 {
		target = result.Outcomes[0].Target
	}

	manifest := formatter.NewManifest(result.Outcomes, total, target, time.Now())
	path, err := formatter.WriteManifest(manifest, opts.Format, filepath.Join(opts.OutputDir, "export_manifest"))
	if err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = path
	e.sendProgress(prog, manifestUpdate(path))

	e.logger.Info("batch export finished",
		"total", total, "exported", result.Exported, "no_data", result.NoData, "failed", result.Failed, "manifest", path)
	return result, nil
}

// exportWorker is a worker goroutine that exports requests from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- exportResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// A started export runs to completion even if ctx is canceled mid-copy.
		results <- exportResult{index: job.index, outcome: e.exporter.Export(context.WithoutCancel(ctx), job.req)}
	}
}
