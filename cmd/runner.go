package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/cache"
	"github.com/desertthunder/trackport/internal/exporter"
	"github.com/desertthunder/trackport/internal/mediastore"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and the stores built on it are opened on first use so commands that never touch them
// (help, version) work without a writable data directory.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	cache      *cache.Store
	library    *mediastore.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // Already migrated database; opened from Config when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the runner's logger. Must be called before the stores are opened.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig replaces the default config with the file at path when it exists.
func (r *Runner) loadConfig(path string) error {
	r.configPath = path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// open connects to the database and builds the cache store and content index.
func (r *Runner) open() error {
	if r.cache != nil && r.library != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
	}

	r.cache = cache.NewStore(r.db, shared.ExpandPath(r.config.Cache.Dir), r.logger)
	r.library = mediastore.NewStore(r.db, shared.ExpandPath(r.config.Library.Root), r.logger)
	return nil
}

// Close releases the database connection.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.cache, r.library = nil, nil, nil
	return err
}

// newExporter resolves the named write target (the configured one when empty) and builds an exporter on it.
func (r *Runner) newExporter(targetName string, reporter exporter.Reporter) (*exporter.Exporter, error) {
	if err := r.open(); err != nil {
		return nil, err
	}

	if targetName == "" {
		targetName = r.config.Export.Target
	}

	target, err := exporter.ResolveTarget(targetName, exporter.TargetOptions{
		AppName:  r.config.Export.AppName,
		MusicDir: shared.ExpandPath(r.config.Export.MusicDir),
		Index:    r.library,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved write target", "target", target.Name())
	return exporter.New(r.cache, target, reporter, r.logger), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, cacheCommand, exportCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeRaw(output)
}

// writeRaw writes pre-rendered output followed by a newline.
func (r *Runner) writeRaw(output []byte) error {
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
