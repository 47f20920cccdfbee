package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/trackport/internal/cache"
	"github.com/desertthunder/trackport/internal/formatter"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// putConcurrency bounds the segment files copied into the cache at once
const putConcurrency = 4

// CachePut stores one or more files as consecutive spans of a key.
//
// The first file starts at --position; each following file starts where the previous one ends.
func (r *Runner) CachePut(ctx context.Context, cmd *cli.Command) error {
	key := cmd.String("key")
	files := cmd.StringSlice("file")
	position := int64(cmd.Int("position"))

	if key == "" {
		return fmt.Errorf("%w: --key is required", shared.ErrMissingArgument)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: at least one --file is required", shared.ErrMissingArgument)
	}
	if position < 0 {
		return fmt.Errorf("%w: --position must not be negative", shared.ErrInvalidFlag)
	}

	positions := make([]int64, len(files))
	next := position
	for i, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", shared.ErrInvalidArgument, path)
		}
		positions[i] = next
		next += info.Size()
	}

	if err := r.open(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(putConcurrency)
	for i, path := range files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			span, err := r.cache.Put(gctx, key, positions[i], f)
			if err != nil {
				return fmt.Errorf("failed to cache %s: %w", path, err)
			}
			r.logger.Info("cached file", "file", path, "position", span.Position(), "length", span.Length())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	title, artist, mimeType := cmd.String("title"), cmd.String("artist"), cmd.String("mime")
	if title != "" || artist != "" || mimeType != "" {
		meta := cache.Meta{Title: title, Artist: artist, MIMEType: mimeType}
		if _, err := r.cache.Describe(ctx, key, meta); err != nil {
			return fmt.Errorf("failed to describe %s: %w", key, err)
		}
	}

	length, err := r.cache.CachedLength(ctx, key)
	if err != nil {
		return err
	}

	r.writePlain("✓ Cached %d file(s) for %s\n", len(files), key)
	r.writePlain("  Playable bytes: %s\n", shared.FormatBytes(length))
	return nil
}

// CacheDescribe records display metadata for a key without caching bytes.
func (r *Runner) CacheDescribe(ctx context.Context, cmd *cli.Command) error {
	key := cmd.String("key")
	if key == "" {
		return fmt.Errorf("%w: --key is required", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	meta := cache.Meta{Title: cmd.String("title"), Artist: cmd.String("artist"), MIMEType: cmd.String("mime")}
	entry, err := r.cache.Describe(ctx, key, meta)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s: %s - %s\n", entry.Key(), entry.Artist(), entry.Title())
	return nil
}

// CacheList prints cached keys with their metadata and playable length.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	entries, err := r.cache.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	if cmd.Bool("json") {
		data, err := formatter.EntriesToJSON(entries)
		if err != nil {
			return err
		}
		return r.writeRaw(data)
	}

	return r.writePlain("%s", formatter.EntriesToText(entries))
}

// CacheRemove drops every span cached for a key.
func (r *Runner) CacheRemove(ctx context.Context, cmd *cli.Command) error {
	key := cmd.String("key")
	if key == "" {
		return fmt.Errorf("%w: --key is required", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}

	if err := r.cache.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}

	r.writePlain("✓ Removed %s from the cache\n", key)
	return nil
}
