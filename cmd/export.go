package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/trackport/internal/exporter"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/desertthunder/trackport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// reportQueueSize is how many console notices may wait on the main loop
const reportQueueSize = 32

// Export copies one cached track into the music folder.
//
// Title, artist and type missing from the flags are taken from the key's cache metadata.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	if id == "" {
		return fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	req := r.completeRequest(ctx, models.Request{
		Identifier: id,
		Title:      cmd.String("title"),
		Artist:     cmd.String("artist"),
		MIMEType:   cmd.String("mime"),
	})

	loop := exporter.NewMainLoop(reportQueueSize, r.logger)
	reporter := exporter.MultiReporter{
		exporter.NewLogReporter(r.logger),
		loop.Reporter(exporter.NewConsoleReporter(r.output)),
	}

	exp, err := r.newExporter(cmd.String("target"), reporter)
	if err != nil {
		loop.Close()
		return err
	}

	out := exp.Export(ctx, req)
	loop.Close()

	if out.Status == models.StatusFailed {
		return fmt.Errorf("export of %s failed: %w", req.Identifier, out.Err)
	}
	return nil
}

// completeRequest fills empty request metadata from the cache entry of its identifier.
func (r *Runner) completeRequest(ctx context.Context, req models.Request) models.Request {
	if req.Title != "" && req.Artist != "" && req.MIMEType != "" {
		return req
	}

	entry, err := r.cache.Entry(ctx, req.Identifier)
	if err != nil {
		if !errors.Is(err, shared.ErrEntryNotFound) {
			r.logger.Warn("failed to read cache metadata", "id", req.Identifier, "error", err)
		}
		return req
	}

	if req.Title == "" {
		req.Title = entry.Title()
	}
	if req.Artist == "" {
		req.Artist = entry.Artist()
	}
	if req.MIMEType == "" {
		req.MIMEType = entry.MIMEType()
	}
	return req
}

// ExportBatch exports every track of a TOML manifest, or everything cached, with a worker pool.
func (r *Runner) ExportBatch(ctx context.Context, cmd *cli.Command) error {
	manifestPath := cmd.String("manifest")
	all := cmd.Bool("all")

	switch {
	case manifestPath == "" && !all:
		return fmt.Errorf("%w: either --manifest or --all must be provided", shared.ErrMissingArgument)
	case manifestPath != "" && all:
		return fmt.Errorf("%w: cannot specify both --manifest and --all", shared.ErrInvalidArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	requests, err := r.batchRequests(ctx, manifestPath)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		r.writePlain("Nothing to export\n")
		return nil
	}

	exp, err := r.newExporter(cmd.String("target"), exporter.NewLogReporter(r.logger))
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.Format == "" {
		opts.Format = r.config.Export.Format
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Export.Workers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Export.RateLimit
	}

	r.logger.Info("starting batch export", "tracks", len(requests), "target", exp.Target().Name())
	r.writePlain("Exporting %d track(s) via %s target...\n\n", len(requests), exp.Target().Name())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.ExportTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewEngine(exp, r.logger)
	result, err := engine.BulkExport(ctx, progressCh, requests, opts)
	close(progressCh)
	wg.Wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d\n", result.Exported, result.Total)
	r.writePlain("Nothing cached: %d\n", result.NoData)
	r.writePlain("Failed: %d\n", result.Failed)
	if skipped := result.Skipped(); skipped > 0 {
		r.writePlain("Skipped (interrupted): %d\n", skipped)
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.Failed > 0 {
		r.writePlain("\nFailed exports:\n")
		for _, o := range result.Outcomes {
			if o.Status == models.StatusFailed {
				r.writePlain("  - %s: %v\n", o.Request, o.Err)
			}
		}
	}

	return nil
}

// batchRequests loads the manifest at path, or every described cache entry with playable bytes when path is empty.
func (r *Runner) batchRequests(ctx context.Context, path string) ([]models.Request, error) {
	if path != "" {
		requests, err := tasks.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		for i, req := range requests {
			requests[i] = r.completeRequest(ctx, req)
		}
		return requests, nil
	}

	entries, err := r.cache.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}

	requests := make([]models.Request, 0, len(entries))
	for _, entry := range entries {
		if entry.Length == 0 {
			r.logger.Debug("skipping key without playable bytes", "key", entry.Key())
			continue
		}
		requests = append(requests, entry.Request())
	}
	return requests, nil
}
