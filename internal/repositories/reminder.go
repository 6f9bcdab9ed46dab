package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// ReminderRepository persists [models.Reminder] rows.
type ReminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new [ReminderRepository] with the given database connection
func NewReminderRepository(db *sql.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// List returns the user's live reminders ordered by date.
func (r *ReminderRepository) List(userID string) ([]models.Reminder, error) {
	query := `
		SELECT id, date, note, user_id
		FROM reminders
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.Date, &rem.Note, &rem.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// Create inserts a reminder for userID.
func (r *ReminderRepository) Create(userID string, date time.Time, note string) (*models.Reminder, error) {
	rem := &models.Reminder{ID: shared.GenerateID(), Date: date, Note: note, UserID: userID}

	query := `INSERT INTO reminders (id, user_id, date, note, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, rem.ID, userID, date, note, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	return rem, nil
}

// Delete soft-deletes a reminder owned by userID.
func (r *ReminderRepository) Delete(userID, id string) error {
	return softDelete(r.db, "reminder", id,
		`SELECT deleted_at FROM reminders WHERE id = ? AND user_id = ?`, []any{id, userID},
		`UPDATE reminders SET deleted_at = ? WHERE id = ?`, []any{time.Now().UTC(), id},
	)
}
