package reconciler

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
)

// DomainNotes is the cache domain for note groups.
const DomainNotes = "notes"

// NotesReconciler reconciles note groups and their notes.
type NotesReconciler struct {
	*Reconciler[[]models.NoteGroup]
	gw services.NotesGateway
}

// NewNotesReconciler creates the notes domain over gw.
func NewNotesReconciler(gw services.NotesGateway, opts Options) *NotesReconciler {
	domain := Domain[[]models.NoteGroup]{
		Name:  DomainNotes,
		Empty: func() []models.NoteGroup { return []models.NoteGroup{} },
		Clone: models.CloneGroups,
		Fetch: gw.ListGroups,
	}
	return &NotesReconciler{Reconciler: New(domain, opts), gw: gw}
}

// Groups returns a copy of the loaded groups.
func (n *NotesReconciler) Groups() []models.NoteGroup {
	return n.View().Data
}

// CreateGroup adds an empty group.
func (n *NotesReconciler) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (*models.NoteGroup, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.NoteGroup
	err := n.Mutate(ctx, Mutation[[]models.NoteGroup]{
		Remote: func(ctx context.Context, userID string) (func([]models.NoteGroup) []models.NoteGroup, error) {
			group, err := n.gw.CreateGroup(ctx, userID, req.Name)
			if err != nil {
				return nil, err
			}
			created = *group
			if created.Notes == nil {
				created.Notes = []models.Note{}
			}
			return func(groups []models.NoteGroup) []models.NoteGroup {
				return append(groups, created)
			}, nil
		},
		Local: func(groups []models.NoteGroup) ([]models.NoteGroup, error) {
			created = models.NoteGroup{ID: shared.GenerateLocalID(), Name: req.Name, Notes: []models.Note{}}
			return append(groups, created), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteGroup removes a group and its notes. Deleting a group that is already gone succeeds.
func (n *NotesReconciler) DeleteGroup(ctx context.Context, id string) error {
	drop := func(groups []models.NoteGroup) []models.NoteGroup {
		return slices.DeleteFunc(groups, func(g models.NoteGroup) bool { return g.ID == id })
	}

	return n.Mutate(ctx, Mutation[[]models.NoteGroup]{
		Remote: func(ctx context.Context, userID string) (func([]models.NoteGroup) []models.NoteGroup, error) {
			if err := n.gw.DeleteGroup(ctx, userID, id); err != nil {
				return nil, err
			}
			return drop, nil
		},
		Local: func(groups []models.NoteGroup) ([]models.NoteGroup, error) {
			return drop(groups), nil
		},
	})
}

// CreateNote adds a note to one of the current owner's groups.
func (n *NotesReconciler) CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.Note
	insert := func(groups []models.NoteGroup) []models.NoteGroup {
		if i := groupIndex(groups, created.GroupID); i >= 0 {
			groups[i].Notes = append(groups[i].Notes, created)
		}
		return groups
	}

	err := n.Mutate(ctx, Mutation[[]models.NoteGroup]{
		Remote: func(ctx context.Context, userID string) (func([]models.NoteGroup) []models.NoteGroup, error) {
			note, err := n.gw.CreateNote(ctx, userID, req.GroupID, req.Title, req.Content)
			if err != nil {
				return nil, err
			}
			created = *note
			return insert, nil
		},
		Local: func(groups []models.NoteGroup) ([]models.NoteGroup, error) {
			if groupIndex(groups, req.GroupID) < 0 {
				return nil, fmt.Errorf("%w: note group %s", shared.ErrNotFoundOrForbidden, req.GroupID)
			}
			created = models.Note{ID: shared.GenerateLocalID(), Title: req.Title, Content: req.Content, GroupID: req.GroupID}
			return insert(groups), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateNote replaces a note's title and content.
func (n *NotesReconciler) UpdateNote(ctx context.Context, req models.UpdateNoteRequest) (*models.Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated models.Note
	replace := func(groups []models.NoteGroup) []models.NoteGroup {
		if gi, ni := noteIndex(groups, updated.ID); gi >= 0 {
			groups[gi].Notes[ni] = updated
		}
		return groups
	}

	err := n.Mutate(ctx, Mutation[[]models.NoteGroup]{
		Remote: func(ctx context.Context, userID string) (func([]models.NoteGroup) []models.NoteGroup, error) {
			note, err := n.gw.UpdateNote(ctx, userID, req.ID, req.Title, req.Content)
			if err != nil {
				return nil, err
			}
			updated = *note
			return replace, nil
		},
		Local: func(groups []models.NoteGroup) ([]models.NoteGroup, error) {
			gi, ni := noteIndex(groups, req.ID)
			if gi < 0 {
				return nil, fmt.Errorf("%w: note %s", shared.ErrNotFoundOrForbidden, req.ID)
			}
			updated = groups[gi].Notes[ni]
			updated.Title = req.Title
			updated.Content = req.Content
			return replace(groups), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteNote removes a note. Deleting a note that is already gone succeeds.
func (n *NotesReconciler) DeleteNote(ctx context.Context, id string) error {
	drop := func(groups []models.NoteGroup) []models.NoteGroup {
		if gi, ni := noteIndex(groups, id); gi >= 0 {
			groups[gi].Notes = slices.Delete(groups[gi].Notes, ni, ni+1)
		}
		return groups
	}

	return n.Mutate(ctx, Mutation[[]models.NoteGroup]{
		Remote: func(ctx context.Context, userID string) (func([]models.NoteGroup) []models.NoteGroup, error) {
			if err := n.gw.DeleteNote(ctx, userID, id); err != nil {
				return nil, err
			}
			return drop, nil
		},
		Local: func(groups []models.NoteGroup) ([]models.NoteGroup, error) {
			return drop(groups), nil
		},
	})
}

func groupIndex(groups []models.NoteGroup, id string) int {
	return slices.IndexFunc(groups, func(g models.NoteGroup) bool { return g.ID == id })
}

func noteIndex(groups []models.NoteGroup, id string) (int, int) {
	for gi, g := range groups {
		for ni, note := range g.Notes {
			if note.ID == id {
				return gi, ni
			}
		}
	}
	return -1, -1
}
