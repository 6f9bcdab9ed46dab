package testing

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
)

// Hooks intercepts gateway calls made through [Instrument]: it counts them, injects failures and can hold a
// user's calls until released so tests control response ordering.
type Hooks struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	holds map[string]*hold
}

type hold struct {
	entered  chan struct{}
	release  chan struct{}
	once     sync.Once
	released sync.Once
}

// NewHooks creates an empty set of hooks.
func NewHooks() *Hooks {
	return &Hooks{calls: map[string]int{}, fail: map[string]error{}, holds: map[string]*hold{}}
}

// Calls returns how many times op (e.g. "notes.ListGroups") was invoked.
func (h *Hooks) Calls(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[op]
}

// Fail makes every later call to op return err until cleared with a nil err.
func (h *Hooks) Fail(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.fail, op)
		return
	}
	h.fail[op] = err
}

// Hold blocks the next calls made for userID. entered is closed once the first held call arrives; calling release
// lets every held call proceed.
func (h *Hooks) Hold(userID string) (entered <-chan struct{}, release func()) {
	g := &hold{entered: make(chan struct{}), release: make(chan struct{})}

	h.mu.Lock()
	h.holds[userID] = g
	h.mu.Unlock()

	return g.entered, func() {
		h.mu.Lock()
		if h.holds[userID] == g {
			delete(h.holds, userID)
		}
		h.mu.Unlock()
		g.released.Do(func() { close(g.release) })
	}
}

func (h *Hooks) before(ctx context.Context, op, userID string) error {
	h.mu.Lock()
	h.calls[op]++
	g := h.holds[userID]
	err := h.fail[op]
	h.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Instrument wraps gw so every call passes through h first.
func Instrument(gw services.Gateways, h *Hooks) services.Gateways {
	return services.Gateways{
		Notes:     hookedNotes{gw.Notes, h},
		Bookmarks: hookedBookmarks{gw.Bookmarks, h},
		Reminders: hookedReminders{gw.Reminders, h},
		Sessions:  hookedSessions{gw.Sessions, h},
	}
}

type hookedNotes struct {
	next services.NotesGateway
	h    *Hooks
}

func (n hookedNotes) ListGroups(ctx context.Context, userID string) ([]models.NoteGroup, error) {
	if err := n.h.before(ctx, "notes.ListGroups", userID); err != nil {
		return nil, err
	}
	return n.next.ListGroups(ctx, userID)
}

func (n hookedNotes) CreateGroup(ctx context.Context, userID, name string) (*models.NoteGroup, error) {
	if err := n.h.before(ctx, "notes.CreateGroup", userID); err != nil {
		return nil, err
	}
	return n.next.CreateGroup(ctx, userID, name)
}

func (n hookedNotes) CreateNote(ctx context.Context, userID, groupID, title, content string) (*models.Note, error) {
	if err := n.h.before(ctx, "notes.CreateNote", userID); err != nil {
		return nil, err
	}
	return n.next.CreateNote(ctx, userID, groupID, title, content)
}

func (n hookedNotes) UpdateNote(ctx context.Context, userID, id, title, content string) (*models.Note, error) {
	if err := n.h.before(ctx, "notes.UpdateNote", userID); err != nil {
		return nil, err
	}
	return n.next.UpdateNote(ctx, userID, id, title, content)
}

func (n hookedNotes) DeleteGroup(ctx context.Context, userID, id string) error {
	if err := n.h.before(ctx, "notes.DeleteGroup", userID); err != nil {
		return err
	}
	return n.next.DeleteGroup(ctx, userID, id)
}

func (n hookedNotes) DeleteNote(ctx context.Context, userID, id string) error {
	if err := n.h.before(ctx, "notes.DeleteNote", userID); err != nil {
		return err
	}
	return n.next.DeleteNote(ctx, userID, id)
}

type hookedBookmarks struct {
	next services.BookmarksGateway
	h    *Hooks
}

func (b hookedBookmarks) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	if err := b.h.before(ctx, "bookmarks.List", userID); err != nil {
		return nil, err
	}
	return b.next.List(ctx, userID)
}

func (b hookedBookmarks) Create(ctx context.Context, userID, title, url string) (*models.Bookmark, error) {
	if err := b.h.before(ctx, "bookmarks.Create", userID); err != nil {
		return nil, err
	}
	return b.next.Create(ctx, userID, title, url)
}

func (b hookedBookmarks) Delete(ctx context.Context, userID, id string) error {
	if err := b.h.before(ctx, "bookmarks.Delete", userID); err != nil {
		return err
	}
	return b.next.Delete(ctx, userID, id)
}

type hookedReminders struct {
	next services.RemindersGateway
	h    *Hooks
}

func (r hookedReminders) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	if err := r.h.before(ctx, "reminders.List", userID); err != nil {
		return nil, err
	}
	return r.next.List(ctx, userID)
}

func (r hookedReminders) Create(ctx context.Context, userID string, date time.Time, note string) (*models.Reminder, error) {
	if err := r.h.before(ctx, "reminders.Create", userID); err != nil {
		return nil, err
	}
	return r.next.Create(ctx, userID, date, note)
}

func (r hookedReminders) Delete(ctx context.Context, userID, id string) error {
	if err := r.h.before(ctx, "reminders.Delete", userID); err != nil {
		return err
	}
	return r.next.Delete(ctx, userID, id)
}

type hookedSessions struct {
	next services.SessionsGateway
	h    *Hooks
}

func (s hookedSessions) Create(ctx context.Context, userID string, req models.RecordSessionRequest) (*models.StudySession, error) {
	if err := s.h.before(ctx, "sessions.Create", userID); err != nil {
		return nil, err
	}
	return s.next.Create(ctx, userID, req)
}

func (s hookedSessions) ListWithStreak(ctx context.Context, userID string) (models.StudyStats, error) {
	if err := s.h.before(ctx, "sessions.ListWithStreak", userID); err != nil {
		return models.StudyStats{}, err
	}
	return s.next.ListWithStreak(ctx, userID)
}
