package tasks

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
	"github.com/desertthunder/trackport/internal/shared"
)

// Exporter exports a single cached track.
type Exporter interface {
	Export(ctx context.Context, req models.Request) models.Outcome
}

// Engine orchestrates batch exports.
type Engine struct {
	exporter Exporter
	logger   *log.Logger
}

// NewEngine creates a new Engine around exporter.
func NewEngine(exporter Exporter, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{exporter: exporter, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// manifestFile is the on-disk shape of a batch manifest.
type manifestFile struct {
	Tracks []models.Request `toml:"track"`
}

// LoadManifest reads export requests from the TOML manifest at path.
//
//	[[track]]
//	id = "dQw4w9WgXcQ"
//	title = "Never Gonna Give You Up"
//	artist = "Rick Astley"
//	mime = "audio/webm"
func LoadManifest(path string) ([]models.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes TOML manifest data. Every track needs an id.
func ParseManifest(data []byte) ([]models.Request, error) {
	var mf manifestFile
	md, err := toml.Decode(string(data), &mf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest: %v", shared.ErrInvalidInput, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown manifest keys %v", shared.ErrInvalidInput, undecoded)
	}

	for i, req := range mf.Tracks {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("%w: track %d: %v", shared.ErrInvalidInput, i+1, err)
		}
	}

	return mf.Tracks, nil
}
