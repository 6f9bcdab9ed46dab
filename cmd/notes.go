package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/studydesk/internal/formatter"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
)

// NotesList prints every note group with its notes.
func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	groups := c.ws.Notes.Groups()
	if cmd.Bool("json") {
		if groups == nil {
			groups = []models.NoteGroup{}
		}
		return r.writeJSON(groups, cmd.Bool("pretty"))
	}

	if len(groups) == 0 {
		return r.writePlain("No note groups. Create one with `studydesk notes add-group NAME`.\n")
	}
	for _, g := range groups {
		r.writePlain("%s  %s (%d)\n", g.ID, g.Name, len(g.Notes))
		for _, n := range g.Notes {
			r.writePlain("    %s  %s\n", n.ID, n.Title)
		}
	}
	return nil
}

// NotesAddGroup creates a note group.
func (r *Runner) NotesAddGroup(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: group name is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	group, err := c.ws.Notes.CreateGroup(ctx, models.CreateGroupRequest{Name: name})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created group %s (%s)\n", group.Name, group.ID)
}

// NotesAdd adds a note to a group. --file takes precedence over --content.
func (r *Runner) NotesAdd(ctx context.Context, cmd *cli.Command) error {
	content, err := noteContent(cmd, "")
	if err != nil {
		return err
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	note, err := c.ws.Notes.CreateNote(ctx, models.CreateNoteRequest{
		GroupID: cmd.String("group"),
		Title:   cmd.String("title"),
		Content: content,
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added note %s (%s)\n", note.Title, note.ID)
}

// NotesEdit replaces a note's title and content, keeping whichever is not given.
func (r *Runner) NotesEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: note id is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	existing, ok := findNote(c.ws.Notes.Groups(), id)
	if !ok {
		return fmt.Errorf("%w: note %s", shared.ErrNotFoundOrForbidden, id)
	}

	title := existing.Title
	if cmd.IsSet("title") {
		title = cmd.String("title")
	}
	content, err := noteContent(cmd, existing.Content)
	if err != nil {
		return err
	}

	note, err := c.ws.Notes.UpdateNote(ctx, models.UpdateNoteRequest{ID: id, Title: title, Content: content})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated note %s\n", note.Title)
}

// NotesRemove deletes a note.
func (r *Runner) NotesRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: note id is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	if err := c.ws.Notes.DeleteNote(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted note %s\n", id)
}

// NotesRemoveGroup deletes a group and its notes.
func (r *Runner) NotesRemoveGroup(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: group id is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	if err := c.ws.Notes.DeleteGroup(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted group %s\n", id)
}

// NotesExport writes every group and note to a file.
func (r *Runner) NotesExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	data, err := formatter.ExportNotes(c.ws.Notes.Groups(), f)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"), "notes", f)
}

// export writes data and reports where it went.
func (r *Runner) export(data []byte, output, name string, f formatter.Format) error {
	path, err := formatter.WriteExport(data, output, name, f)
	if err != nil {
		return err
	}
	r.logger.Debug("export written", "path", path, "bytes", len(data))
	return r.writePlain("✓ Exported %s to %s\n", name, path)
}

func noteContent(cmd *cli.Command, fallback string) (string, error) {
	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
	if cmd.IsSet("content") {
		return cmd.String("content"), nil
	}
	return fallback, nil
}

func findNote(groups []models.NoteGroup, id string) (models.Note, bool) {
	for _, g := range groups {
		for _, n := range g.Notes {
			if n.ID == id {
				return n, true
			}
		}
	}
	return models.Note{}, false
}
