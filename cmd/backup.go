package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/studydesk/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Backup exports every domain for the current identity into one directory with a manifest.
func (r *Runner) Backup(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	snapshot := tasks.Snapshot{
		Identity:  c.ws.Identity(),
		Groups:    c.ws.Notes.Groups(),
		Bookmarks: c.ws.Bookmarks.Bookmarks(),
		Reminders: c.ws.Reminders.Reminders(),
		Stats:     c.ws.Stats.Summary(),
	}

	prog := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	engine := tasks.NewEngine(r.logger, r.now)
	result, err := engine.Backup(ctx, prog, snapshot, tasks.BackupOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Backed up %d of %d domains to %s\n", result.Succeeded, len(result.Files), result.OutputDirectory)
	if result.Failed > 0 {
		return fmt.Errorf("%d domain(s) failed to back up; see %s", result.Failed, result.ManifestPath)
	}
	return nil
}
