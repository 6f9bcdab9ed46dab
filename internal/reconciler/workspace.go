package reconciler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/studydesk/internal/identity"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/stats"
)

// Reloader is the part of a reconciler the [Workspace] drives.
type Reloader interface {
	Name() string
	Err() error
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	OnIdentityTransition(ctx context.Context, prev, next models.Identity) error
}

// Workspace bundles one reconciler per domain behind a single identity.
type Workspace struct {
	Notes     *NotesReconciler
	Bookmarks *BookmarksReconciler
	Reminders *RemindersReconciler
	Stats     *StatsReconciler

	observer identity.Observer
	logger   *log.Logger
}

// NewWorkspace creates every domain reconciler over gw. Calendar days come from agg and new records are dated by now.
func NewWorkspace(gw services.Gateways, opts Options, agg *stats.Aggregator, now func() time.Time) *Workspace {
	return &Workspace{
		Notes:     NewNotesReconciler(gw.Notes, opts),
		Bookmarks: NewBookmarksReconciler(gw.Bookmarks, opts, now),
		Reminders: NewRemindersReconciler(gw.Reminders, opts, agg),
		Stats:     NewStatsReconciler(gw.Sessions, opts, agg, now),
		observer:  opts.Observer,
		logger:    opts.Logger,
	}
}

// Domains returns the reconcilers in a fixed order.
func (w *Workspace) Domains() []Reloader {
	return []Reloader{w.Notes, w.Bookmarks, w.Reminders, w.Stats}
}

// Identity returns the observer's current identity.
func (w *Workspace) Identity() models.Identity {
	return w.observer.Current()
}

// LoadAll loads every domain concurrently. Every domain is attempted; the first error is returned.
func (w *Workspace) LoadAll(ctx context.Context) error {
	return w.each(func(d Reloader) error { return d.Load(ctx) })
}

// RefreshAll reloads every domain from its authoritative tier.
func (w *Workspace) RefreshAll(ctx context.Context) error {
	return w.each(func(d Reloader) error { return d.Refresh(ctx) })
}

// Transition delivers one identity change to every domain.
func (w *Workspace) Transition(ctx context.Context, prev, next models.Identity) error {
	return w.each(func(d Reloader) error { return d.OnIdentityTransition(ctx, prev, next) })
}

// Watch subscribes the workspace to identity changes until the returned function is called.
//
// Transitions run synchronously inside the observer's notification, so a sign-in returns once every domain has
// loaded for the new identity.
func (w *Workspace) Watch(ctx context.Context) (stop func()) {
	return w.observer.Subscribe(func(prev, next models.Identity) {
		if err := w.Transition(ctx, prev, next); err != nil && w.logger != nil {
			w.logger.Warn("reload after identity change failed", "identity", next.String(), "error", err)
		}
	})
}

func (w *Workspace) each(fn func(Reloader) error) error {
	var g errgroup.Group
	for _, d := range w.Domains() {
		g.Go(func() error { return fn(d) })
	}
	return g.Wait()
}
