package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive study dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	c, err := r.open(cmd)
	if err != nil {
		return err
	}

	stop := c.ws.Watch(ctx)
	defer stop()

	focus, rest := r.config.Stats.Pomodoro()
	model := ui.NewModel(ctx, c.ws, ui.Options{
		Aggregator:      c.agg,
		PomodoroMinutes: focus,
		BreakMinutes:    rest,
		Logger:          fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
