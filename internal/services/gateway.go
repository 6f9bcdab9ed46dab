package services

import (
	"context"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
)

// NotesGateway persists note groups and notes for a user.
type NotesGateway interface {
	// ListGroups returns the user's groups with their notes embedded.
	ListGroups(ctx context.Context, userID string) ([]models.NoteGroup, error)

	CreateGroup(ctx context.Context, userID, name string) (*models.NoteGroup, error)

	// CreateNote adds a note to one of the user's groups.
	CreateNote(ctx context.Context, userID, groupID, title, content string) (*models.Note, error)

	UpdateNote(ctx context.Context, userID, id, title, content string) (*models.Note, error)

	// DeleteGroup removes a group together with its notes.
	DeleteGroup(ctx context.Context, userID, id string) error

	DeleteNote(ctx context.Context, userID, id string) error
}

// BookmarksGateway persists bookmarks for a user.
type BookmarksGateway interface {
	// List returns the user's bookmarks, newest first.
	List(ctx context.Context, userID string) ([]models.Bookmark, error)
	Create(ctx context.Context, userID, title, url string) (*models.Bookmark, error)
	Delete(ctx context.Context, userID, id string) error
}

// RemindersGateway persists reminders for a user.
type RemindersGateway interface {
	// List returns the user's reminders ordered by date.
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	Create(ctx context.Context, userID string, date time.Time, note string) (*models.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
}

// SessionsGateway records study sessions and summarizes them.
type SessionsGateway interface {
	// Create stores a session dated today with its rolling streak.
	Create(ctx context.Context, userID string, req models.RecordSessionRequest) (*models.StudySession, error)

	// ListWithStreak returns the user's sessions with aggregate statistics.
	ListWithStreak(ctx context.Context, userID string) (models.StudyStats, error)
}

// Gateways bundles one gateway per data domain.
type Gateways struct {
	Notes     NotesGateway
	Bookmarks BookmarksGateway
	Reminders RemindersGateway
	Sessions  SessionsGateway
}
