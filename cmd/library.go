package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/trackport/internal/exporter"
	"github.com/desertthunder/trackport/internal/formatter"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList prints the published records of a content index folder, the app's music folder by default.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	folder := cmd.String("path")
	if folder == "" {
		folder = exporter.ScopedRelativePath(r.config.Export.AppName)
	}

	records, err := r.library.List(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to list library: %w", err)
	}

	if cmd.Bool("json") {
		data, err := formatter.RecordsToJSON(records)
		if err != nil {
			return err
		}
		return r.writeRaw(data)
	}

	r.writePlainHeader(fmt.Sprintf("Library: %s", folder))
	return r.writePlain("%s", formatter.RecordsToText(records))
}

// LibrarySweep removes pending records abandoned by interrupted exports.
func (r *Runner) LibrarySweep(ctx context.Context, cmd *cli.Command) error {
	olderThan := cmd.Duration("older-than")
	if olderThan < 0 {
		return fmt.Errorf("%w: --older-than must not be negative", shared.ErrInvalidFlag)
	}

	if err := r.open(); err != nil {
		return err
	}

	removed, err := r.library.Sweep(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to sweep library: %w", err)
	}

	r.writePlain("✓ Removed %d abandoned record(s) older than %s\n", removed, olderThan.Round(time.Second))
	return nil
}
