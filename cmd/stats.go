package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/studydesk/internal/formatter"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
)

// StatsShow prints totals, streaks and the per-day breakdown.
func (r *Runner) StatsShow(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	summary := c.ws.Stats.Summary()
	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	text, err := formatter.StatsToText(summary)
	if err != nil {
		return err
	}
	r.writePlainHeader("Study statistics")
	_, err = r.output.Write(text)
	return err
}

// StatsRecord records a completed pomodoro session dated now.
//
// Focus and break lengths fall back to stats.pomodoro_minutes and stats.break_minutes.
func (r *Runner) StatsRecord(ctx context.Context, cmd *cli.Command) error {
	pomodoros := int(cmd.Int("pomodoros"))
	if pomodoros < 1 {
		return fmt.Errorf("%w: --pomodoros must be at least 1", shared.ErrInvalidArgument)
	}

	focus, rest := r.config.Stats.Pomodoro()
	if v := int(cmd.Int("focus")); v > 0 {
		focus = v
	}
	if v := int(cmd.Int("break")); v >= 0 {
		rest = v
	}

	tasks, err := parseTasks(cmd.StringSlice("task"))
	if err != nil {
		return err
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	session, err := c.ws.Stats.RecordSession(ctx, models.PomodoroSession(pomodoros, focus, rest, tasks))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Recorded %s of focus, %d task(s). Day streak: %d\n",
		formatter.FormatMinutes(session.FocusTime), len(session.CompletedTasks), session.Streak)
}

// StatsExport writes the statistics to a file.
func (r *Runner) StatsExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	data, err := formatter.ExportStats(c.ws.Stats.Summary(), f)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"), "stats", f)
}

// parseTasks reads "title" or "title:minutes" entries. The estimate is split at the last colon so titles may
// contain colons.
func parseTasks(raw []string) ([]models.TaskInput, error) {
	tasks := make([]models.TaskInput, 0, len(raw))
	for _, entry := range raw {
		title, estimate := entry, 0
		if i := strings.LastIndex(entry, ":"); i >= 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(entry[i+1:])); err == nil {
				title, estimate = entry[:i], n
			}
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return nil, fmt.Errorf("%w: task %q has no title", shared.ErrInvalidArgument, entry)
		}
		if estimate < 0 {
			return nil, fmt.Errorf("%w: task %q has a negative estimate", shared.ErrInvalidArgument, entry)
		}
		tasks = append(tasks, models.TaskInput{Title: title, EstimatedTime: estimate})
	}
	return tasks, nil
}
