package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackport/internal/shared"
	"github.com/desertthunder/trackport/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive picker for exporting cached tracks.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	exp, err := r.newExporter(cmd.String("target"), nil)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.cache, exp, exp.Target().Name())
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
