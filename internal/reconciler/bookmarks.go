package reconciler

import (
	"context"
	"slices"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
)

// DomainBookmarks is the cache domain for bookmarks.
const DomainBookmarks = "bookmarks"

// BookmarksReconciler reconciles bookmarks, kept newest first.
type BookmarksReconciler struct {
	*Reconciler[[]models.Bookmark]
	gw  services.BookmarksGateway
	now func() time.Time
}

// NewBookmarksReconciler creates the bookmarks domain over gw.
func NewBookmarksReconciler(gw services.BookmarksGateway, opts Options, now func() time.Time) *BookmarksReconciler {
	domain := Domain[[]models.Bookmark]{
		Name:  DomainBookmarks,
		Empty: func() []models.Bookmark { return []models.Bookmark{} },
		Clone: cloneSlice[models.Bookmark],
		Fetch: gw.List,
	}
	return &BookmarksReconciler{Reconciler: New(domain, opts), gw: gw, now: now}
}

// Bookmarks returns a copy of the loaded bookmarks.
func (b *BookmarksReconciler) Bookmarks() []models.Bookmark {
	return b.View().Data
}

// Add saves a bookmark. A blank title falls back to the URL.
func (b *BookmarksReconciler) Add(ctx context.Context, req models.CreateBookmarkRequest) (*models.Bookmark, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalized()

	var created models.Bookmark
	prepend := func(list []models.Bookmark) []models.Bookmark {
		return append([]models.Bookmark{created}, list...)
	}

	err := b.Mutate(ctx, Mutation[[]models.Bookmark]{
		Remote: func(ctx context.Context, userID string) (func([]models.Bookmark) []models.Bookmark, error) {
			bookmark, err := b.gw.Create(ctx, userID, req.Title, req.URL)
			if err != nil {
				return nil, err
			}
			created = *bookmark
			return prepend, nil
		},
		Local: func(list []models.Bookmark) ([]models.Bookmark, error) {
			created = models.Bookmark{ID: shared.GenerateLocalID(), Title: req.Title, URL: req.URL, CreatedAt: b.now().UTC()}
			return prepend(list), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete removes a bookmark. Deleting a bookmark that is already gone succeeds.
func (b *BookmarksReconciler) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, b.Reconciler, id, b.gw.Delete, func(bm models.Bookmark) string { return bm.ID })
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

// deleteByID is the shared delete for flat record lists.
func deleteByID[T any](ctx context.Context, r *Reconciler[[]T], id string,
	remote func(ctx context.Context, userID, id string) error, key func(T) string,
) error {
	drop := func(list []T) []T {
		return slices.DeleteFunc(list, func(item T) bool { return key(item) == id })
	}

	return r.Mutate(ctx, Mutation[[]T]{
		Remote: func(ctx context.Context, userID string) (func([]T) []T, error) {
			if err := remote(ctx, userID, id); err != nil {
				return nil, err
			}
			return drop, nil
		},
		Local: func(list []T) ([]T, error) {
			return drop(list), nil
		},
	})
}
