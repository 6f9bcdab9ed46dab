package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/studydesk/internal/formatter"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
)

// BookmarksList prints saved links, newest first.
func (r *Runner) BookmarksList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	bookmarks := c.ws.Bookmarks.Bookmarks()
	if cmd.Bool("json") {
		if bookmarks == nil {
			bookmarks = []models.Bookmark{}
		}
		return r.writeJSON(bookmarks, cmd.Bool("pretty"))
	}

	if len(bookmarks) == 0 {
		return r.writePlain("No bookmarks saved.\n")
	}
	for _, b := range bookmarks {
		r.writePlain("%s  %s\n    %s\n", b.ID, b.Title, b.URL)
	}
	return nil
}

// BookmarksAdd saves a link. The title defaults to the URL.
func (r *Runner) BookmarksAdd(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("url")
	if link == "" {
		return fmt.Errorf("%w: bookmark url is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	bookmark, err := c.ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{Title: cmd.String("title"), URL: link})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", bookmark.Title, bookmark.ID)
}

// BookmarksRemove deletes a bookmark.
func (r *Runner) BookmarksRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: bookmark id is required", shared.ErrMissingArgument)
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}
	if err := c.ws.Bookmarks.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted bookmark %s\n", id)
}

// BookmarksExport writes every bookmark to a file.
func (r *Runner) BookmarksExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	data, err := formatter.ExportBookmarks(c.ws.Bookmarks.Bookmarks(), f)
	if err != nil {
		return err
	}
	return r.export(data, cmd.String("output"), "bookmarks", f)
}
