package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
)

const reminderDate = "Mon, 02 Jan 2006"

// RemindersList prints reminders in date order, optionally only those on --date.
func (r *Runner) RemindersList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	reminders := c.ws.Reminders.Reminders()
	if raw := cmd.String("date"); raw != "" {
		day, err := c.agg.ParseDay(raw)
		if err != nil {
			return err
		}
		reminders = c.ws.Reminders.On(day)
	}

	if cmd.Bool("json") {
		if reminders == nil {
			reminders = []models.Reminder{}
		}
		return r.writeJSON(reminders, cmd.Bool("pretty"))
	}

	if len(reminders) == 0 {
		return r.writePlain("No reminders.\n")
	}
	for _, rem := range reminders {
		r.writePlain("%s  %s  %s\n", rem.ID, rem.Date.Format(reminderDate), rem.Note)
	}
	return nil
}

// RemindersAdd attaches a note to a day.
func (r *Runner) RemindersAdd(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	day, err := c.agg.ParseDay(cmd.String("date"))
	if err != nil {
		return err
	}

	reminder, err := c.ws.Reminders.Add(ctx, models.CreateReminderRequest{Date: day, Note: cmd.String("note")})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Reminder set for %s (%s)\n", reminder.Date.Format(reminderDate), reminder.ID)
}

// RemindersRemove deletes a reminder.
func (r *Runner) RemindersRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: reminder id is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	if err := c.ws.Reminders.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted reminder %s\n", id)
}
