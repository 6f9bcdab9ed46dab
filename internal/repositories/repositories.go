// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/studydesk/internal/shared"
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Users     *UserRepository
	Notes     *NoteRepository
	Bookmarks *BookmarkRepository
	Reminders *ReminderRepository
	Sessions  *StudySessionRepository
}

// New creates all repositories for db.
func New(db *sql.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(db),
		Notes:     NewNoteRepository(db),
		Bookmarks: NewBookmarkRepository(db),
		Reminders: NewReminderRepository(db),
		Sessions:  NewStudySessionRepository(db),
	}
}

// NextSequence atomically increments and returns the next sequence number for the given table.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotFoundOrForbidden, kind, id)
}

// softDelete marks the row matching ownedQuery as deleted.
//
// ownedQuery must select deleted_at for the row only when it belongs to the caller. A row that is already deleted is
// left alone and reported as success.
func softDelete(db *sql.DB, kind, id, ownedQuery string, ownedArgs []any, update string, updateArgs []any) error {
	var deletedAt sql.NullTime
	err := db.QueryRow(ownedQuery, ownedArgs...).Scan(&deletedAt)
	if err == sql.ErrNoRows {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", kind, err)
	}
	if deletedAt.Valid {
		return nil
	}

	if _, err := db.Exec(update, updateArgs...); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}
