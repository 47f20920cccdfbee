package main

import (
	"time"

	"github.com/desertthunder/trackport/internal/exporter"
	"github.com/desertthunder/trackport/internal/formatter"
	"github.com/urfave/cli/v3"
)

// targetFlag selects the write target; empty uses the configured one
func targetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Write target: " + exporter.TargetAuto + ", " + exporter.TargetScoped + " or " + exporter.TargetDirect + " (default from config)",
	}
}

func metadataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "title",
			Usage: "Track title",
		},
		&cli.StringFlag{
			Name:  "artist",
			Usage: "Track artist",
		},
		&cli.StringFlag{
			Name:  "mime",
			Usage: "Audio MIME type (e.g. audio/webm)",
		},
	}
}

// setupCommand handles database initialization and migrations
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recently applied migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// cacheCommand manages the local media cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached track bytes and metadata",
		Commands: []*cli.Command{
			{
				Name:  "put",
				Usage: "Cache one or more files as consecutive spans of a key",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Cache key (track identifier)",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "File to cache; repeat for consecutive spans",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "position",
						Usage: "Byte position of the first file",
					},
				}, metadataFlags()...),
				Action: r.CachePut,
			},
			{
				Name:  "describe",
				Usage: "Record title, artist and type for a key",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Cache key (track identifier)",
						Required: true,
					},
				}, metadataFlags()...),
				Action: r.CacheDescribe,
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List cached keys",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:    "rm",
				Aliases: []string{"remove"},
				Usage:   "Remove a key and its cached bytes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Cache key to remove",
						Required: true,
					},
				},
				Action: r.CacheRemove,
			},
		},
	}
}

// exportCommand exports a single cached track, or a batch with the batch subcommand
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a cached track into the music folder",
		// Local so batch does not inherit them
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Identifier of the cached track", Local: true},
			&cli.StringFlag{Name: "title", Usage: "Track title (default from cache metadata)", Local: true},
			&cli.StringFlag{Name: "artist", Usage: "Track artist (default from cache metadata)", Local: true},
			&cli.StringFlag{Name: "mime", Usage: "Audio MIME type (default from cache metadata)", Local: true},
			&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Write target (default from config)", Local: true},
		},
		Action: r.Export,
		Commands: []*cli.Command{
			{
				Name:  "batch",
				Usage: "Export many cached tracks concurrently and write a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "TOML manifest with [[track]] entries",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every described cache entry",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent exports (max 10, default from config)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Exports started per second (default from config)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"F"},
						Usage:   "Manifest format: " + formatter.FormatJSON + ", " + formatter.FormatCSV + " or " + formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Manifest directory",
					},
					targetFlag(),
				},
				Action: r.ExportBatch,
			},
		},
	}
}

// libraryCommand inspects the content index
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the content index",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List published records",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Relative folder to list (default Music/<app_name>/)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "sweep",
				Usage: "Remove pending records left by interrupted exports",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Only remove records untouched for this long",
						Value: 24 * time.Hour,
					},
				},
				Action: r.LibrarySweep,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive exports.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive picker for cached tracks",
		Flags: []cli.Flag{
			targetFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/trackport-tui.log",
			},
		},
		Action: r.TUI,
	}
}
