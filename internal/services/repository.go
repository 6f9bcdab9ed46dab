package services

import (
	"context"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/repositories"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
)

var (
	_ NotesGateway     = repoNotes{}
	_ BookmarksGateway = repoBookmarks{}
	_ RemindersGateway = repoReminders{}
	_ SessionsGateway  = repoSessions{}
)

// RepositoryGateway serves the gateway interfaces from SQLite.
//
// Callers are expected to have ensured the user row exists; the HTTP server does so on every authenticated request.
type RepositoryGateway struct {
	repos *repositories.Repositories
	agg   *stats.Aggregator
	now   func() time.Time
}

// NewRepositoryGateway creates a gateway over repos. Study days are computed with agg.
func NewRepositoryGateway(repos *repositories.Repositories, agg *stats.Aggregator) *RepositoryGateway {
	return &RepositoryGateway{repos: repos, agg: agg, now: time.Now}
}

// WithClock replaces the clock used to date new sessions.
func (g *RepositoryGateway) WithClock(now func() time.Time) *RepositoryGateway {
	g.now = now
	return g
}

// Gateways returns g as one gateway per domain.
func (g *RepositoryGateway) Gateways() Gateways {
	return Gateways{Notes: g.Notes(), Bookmarks: g.Bookmarks(), Reminders: g.Reminders(), Sessions: g.Sessions()}
}

func (g *RepositoryGateway) Notes() NotesGateway         { return repoNotes{g} }
func (g *RepositoryGateway) Bookmarks() BookmarksGateway { return repoBookmarks{g} }
func (g *RepositoryGateway) Reminders() RemindersGateway { return repoReminders{g} }
func (g *RepositoryGateway) Sessions() SessionsGateway   { return repoSessions{g} }

func requireUser(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrUnauthenticated
	}
	return ctx.Err()
}

type repoNotes struct{ g *RepositoryGateway }

func (n repoNotes) ListGroups(ctx context.Context, userID string) ([]models.NoteGroup, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return n.g.repos.Notes.ListGroups(userID)
}

func (n repoNotes) CreateGroup(ctx context.Context, userID, name string) (*models.NoteGroup, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := (models.CreateGroupRequest{Name: name}).Validate(); err != nil {
		return nil, err
	}
	return n.g.repos.Notes.CreateGroup(userID, name)
}

func (n repoNotes) CreateNote(ctx context.Context, userID, groupID, title, content string) (*models.Note, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := (models.CreateNoteRequest{GroupID: groupID, Title: title, Content: content}).Validate(); err != nil {
		return nil, err
	}
	return n.g.repos.Notes.CreateNote(userID, groupID, title, content)
}

func (n repoNotes) UpdateNote(ctx context.Context, userID, id, title, content string) (*models.Note, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := (models.UpdateNoteRequest{ID: id, Title: title, Content: content}).Validate(); err != nil {
		return nil, err
	}
	return n.g.repos.Notes.UpdateNote(userID, id, title, content)
}

func (n repoNotes) DeleteGroup(ctx context.Context, userID, id string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	return n.g.repos.Notes.DeleteGroup(userID, id)
}

func (n repoNotes) DeleteNote(ctx context.Context, userID, id string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	return n.g.repos.Notes.DeleteNote(userID, id)
}

type repoBookmarks struct{ g *RepositoryGateway }

func (b repoBookmarks) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return b.g.repos.Bookmarks.List(userID)
}

func (b repoBookmarks) Create(ctx context.Context, userID, title, url string) (*models.Bookmark, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	req := models.CreateBookmarkRequest{Title: title, URL: url}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalized()
	return b.g.repos.Bookmarks.Create(userID, req.Title, req.URL)
}

func (b repoBookmarks) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	return b.g.repos.Bookmarks.Delete(userID, id)
}

type repoReminders struct{ g *RepositoryGateway }

func (r repoReminders) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return r.g.repos.Reminders.List(userID)
}

func (r repoReminders) Create(ctx context.Context, userID string, date time.Time, note string) (*models.Reminder, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := (models.CreateReminderRequest{Date: date, Note: note}).Validate(); err != nil {
		return nil, err
	}
	return r.g.repos.Reminders.Create(userID, models.CalendarDay(date), note)
}

func (r repoReminders) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(ctx, userID); err != nil {
		return err
	}
	return r.g.repos.Reminders.Delete(userID, id)
}

type repoSessions struct{ g *RepositoryGateway }

func (s repoSessions) Create(ctx context.Context, userID string, req models.RecordSessionRequest) (*models.StudySession, error) {
	if err := requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	latest, err := s.g.repos.Sessions.Latest(userID)
	if err != nil {
		return nil, err
	}

	today := s.g.agg.Day(s.g.now())
	session := NewSession(userID, today, s.g.agg.RollingStreak(latest, today), req)
	if err := s.g.repos.Sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s repoSessions) ListWithStreak(ctx context.Context, userID string) (models.StudyStats, error) {
	if err := requireUser(ctx, userID); err != nil {
		return models.StudyStats{}, err
	}

	sessions, err := s.g.repos.Sessions.List(userID)
	if err != nil {
		return models.StudyStats{}, err
	}
	return s.g.agg.Summarize(sessions), nil
}

// NewSession builds the session row recorded for req on day with the given streak. Task ids are left for the
// store to assign.
func NewSession(userID string, day time.Time, streak int, req models.RecordSessionRequest) *models.StudySession {
	tasks := make([]models.CompletedTask, 0, len(req.CompletedTasks))
	for _, t := range req.CompletedTasks {
		tasks = append(tasks, models.CompletedTask{Title: t.Title, EstimatedTime: t.EstimatedTime, Completed: true})
	}

	return &models.StudySession{
		UserID:         userID,
		Date:           day,
		FocusTime:      req.FocusTime,
		BreakTime:      req.BreakTime,
		TotalTime:      req.TotalTime,
		Streak:         streak,
		CompletedTasks: tasks,
	}
}
