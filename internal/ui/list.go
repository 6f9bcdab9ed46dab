package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/studydesk/internal/models"
)

var (
	_ list.Item = groupItem{}
	_ list.Item = noteItem{}
	_ list.Item = bookmarkItem{}
	_ list.Item = reminderItem{}
)

// groupItem wraps [models.NoteGroup] to implement [list.Item].
type groupItem struct {
	group models.NoteGroup
}

func (i groupItem) FilterValue() string { return i.group.Name }
func (i groupItem) Title() string       { return i.group.Name }
func (i groupItem) Description() string {
	if len(i.group.Notes) == 1 {
		return "1 note"
	}
	return fmt.Sprintf("%d notes", len(i.group.Notes))
}

// noteItem wraps [models.Note] to implement [list.Item].
type noteItem struct {
	note models.Note
}

func (i noteItem) FilterValue() string { return i.note.Title }
func (i noteItem) Title() string       { return i.note.Title }
func (i noteItem) Description() string { return firstLine(i.note.Content) }

// bookmarkItem wraps [models.Bookmark] to implement [list.Item].
type bookmarkItem struct {
	bookmark models.Bookmark
}

func (i bookmarkItem) FilterValue() string { return i.bookmark.Title + " " + i.bookmark.URL }
func (i bookmarkItem) Title() string       { return i.bookmark.Title }
func (i bookmarkItem) Description() string {
	if i.bookmark.CreatedAt.IsZero() {
		return i.bookmark.URL
	}
	return fmt.Sprintf("%s • %s", i.bookmark.URL, i.bookmark.CreatedAt.Local().Format(time.DateOnly))
}

// reminderItem wraps [models.Reminder] to implement [list.Item].
type reminderItem struct {
	reminder models.Reminder
}

func (i reminderItem) FilterValue() string { return i.reminder.Note }
func (i reminderItem) Title() string       { return i.reminder.Note }
func (i reminderItem) Description() string { return i.reminder.Date.Format("Mon, 02 Jan 2006") }

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
