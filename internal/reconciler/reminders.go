package reconciler

import (
	"context"
	"slices"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
)

// DomainReminders is the cache domain for reminders.
const DomainReminders = "reminders"

// RemindersReconciler reconciles reminders, kept in date order.
type RemindersReconciler struct {
	*Reconciler[[]models.Reminder]
	gw  services.RemindersGateway
	agg *stats.Aggregator
}

// NewRemindersReconciler creates the reminders domain over gw. Calendar days are taken from agg.
func NewRemindersReconciler(gw services.RemindersGateway, opts Options, agg *stats.Aggregator) *RemindersReconciler {
	domain := Domain[[]models.Reminder]{
		Name:  DomainReminders,
		Empty: func() []models.Reminder { return []models.Reminder{} },
		Clone: cloneSlice[models.Reminder],
		Fetch: gw.List,
	}
	return &RemindersReconciler{Reconciler: New(domain, opts), gw: gw, agg: agg}
}

// Reminders returns a copy of the loaded reminders.
func (r *RemindersReconciler) Reminders() []models.Reminder {
	return r.View().Data
}

// On returns the reminders that fall on the same calendar day as date.
func (r *RemindersReconciler) On(date time.Time) []models.Reminder {
	day := models.CalendarDay(r.agg.Day(date))
	out := []models.Reminder{}
	for _, rem := range r.Reminders() {
		if models.CalendarDay(rem.Date).Equal(day) {
			out = append(out, rem)
		}
	}
	return out
}

// Add attaches a note to a calendar day.
func (r *RemindersReconciler) Add(ctx context.Context, req models.CreateReminderRequest) (*models.Reminder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.Reminder
	insert := func(list []models.Reminder) []models.Reminder {
		i, _ := slices.BinarySearchFunc(list, created.Date, func(rem models.Reminder, t time.Time) int {
			if rem.Date.After(t) {
				return 1
			}
			return -1
		})
		return slices.Insert(list, i, created)
	}

	err := r.Mutate(ctx, Mutation[[]models.Reminder]{
		Remote: func(ctx context.Context, userID string) (func([]models.Reminder) []models.Reminder, error) {
			rem, err := r.gw.Create(ctx, userID, req.Date, req.Note)
			if err != nil {
				return nil, err
			}
			created = *rem
			return insert, nil
		},
		Local: func(list []models.Reminder) ([]models.Reminder, error) {
			created = models.Reminder{ID: shared.GenerateLocalID(), Date: models.CalendarDay(r.agg.Day(req.Date)), Note: req.Note}
			return insert(list), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete removes a reminder. Deleting a reminder that is already gone succeeds.
func (r *RemindersReconciler) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.Reconciler, id, r.gw.Delete, func(rem models.Reminder) string { return rem.ID })
}
