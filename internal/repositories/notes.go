package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// NoteRepository persists [models.NoteGroup] and [models.Note] rows.
//
// Notes carry no owner column: a note belongs to whoever owns its group.
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new [NoteRepository] with the given database connection
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListGroups returns the user's live groups in creation order with their live notes embedded.
func (r *NoteRepository) ListGroups(userID string) ([]models.NoteGroup, error) {
	query := `
		SELECT id, name, user_id
		FROM note_groups
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query note groups: %w", err)
	}

	groups := []models.NoteGroup{}
	index := map[string]int{}
	for rows.Next() {
		var group models.NoteGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.UserID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan note group: %w", err)
		}
		group.Notes = []models.Note{}
		index[group.ID] = len(groups)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating note groups: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return groups, nil
	}

	notesQuery := `
		SELECT n.id, n.title, n.content, n.group_id
		FROM notes n
		JOIN note_groups g ON g.id = n.group_id
		WHERE g.user_id = ? AND g.deleted_at IS NULL AND n.deleted_at IS NULL
		ORDER BY n.sequence ASC
	`

	noteRows, err := r.db.Query(notesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var note models.Note
		if err := noteRows.Scan(&note.ID, &note.Title, &note.Content, &note.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		if i, ok := index[note.GroupID]; ok {
			groups[i].Notes = append(groups[i].Notes, note)
		}
	}

	if err := noteRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return groups, nil
}

// CreateGroup inserts an empty group owned by userID.
func (r *NoteRepository) CreateGroup(userID, name string) (*models.NoteGroup, error) {
	sequence, err := NextSequence(r.db, "note_groups")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	group := &models.NoteGroup{ID: shared.GenerateID(), Name: name, UserID: userID, Notes: []models.Note{}}

	query := `
		INSERT INTO note_groups (id, sequence, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, group.ID, sequence, userID, name, now, now); err != nil {
		return nil, fmt.Errorf("failed to insert note group: %w", err)
	}

	return group, nil
}

// DeleteGroup soft-deletes a group and every note in it.
func (r *NoteRepository) DeleteGroup(userID, id string) error {
	var deletedAt sql.NullTime
	err := r.db.QueryRow(`SELECT deleted_at FROM note_groups WHERE id = ? AND user_id = ?`, id, userID).Scan(&deletedAt)
	if err == sql.ErrNoRows {
		return notFound("note group", id)
	}
	if err != nil {
		return fmt.Errorf("failed to query note group: %w", err)
	}
	if deletedAt.Valid {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.Exec(`UPDATE notes SET deleted_at = ? WHERE group_id = ? AND deleted_at IS NULL`, now, id); err != nil {
		return fmt.Errorf("failed to delete notes in group: %w", err)
	}
	if _, err := tx.Exec(`UPDATE note_groups SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id); err != nil {
		return fmt.Errorf("failed to delete note group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateNote inserts a note into a live group owned by userID.
func (r *NoteRepository) CreateNote(userID, groupID, title, content string) (*models.Note, error) {
	var exists int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM note_groups WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, groupID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query note group: %w", err)
	}
	if exists == 0 {
		return nil, notFound("note group", groupID)
	}

	sequence, err := NextSequence(r.db, "notes")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	note := &models.Note{ID: shared.GenerateID(), Title: title, Content: content, GroupID: groupID}

	query := `
		INSERT INTO notes (id, sequence, group_id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, note.ID, sequence, groupID, title, content, now, now); err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}

	return note, nil
}

// GetNote retrieves a live note whose group belongs to userID.
func (r *NoteRepository) GetNote(userID, id string) (*models.Note, error) {
	query := `
		SELECT n.id, n.title, n.content, n.group_id
		FROM notes n
		JOIN note_groups g ON g.id = n.group_id
		WHERE n.id = ? AND g.user_id = ? AND n.deleted_at IS NULL
	`

	var note models.Note
	err := r.db.QueryRow(query, id, userID).Scan(&note.ID, &note.Title, &note.Content, &note.GroupID)
	if err == sql.ErrNoRows {
		return nil, notFound("note", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	return &note, nil
}

// UpdateNote replaces the title and content of a live note owned by userID.
func (r *NoteRepository) UpdateNote(userID, id, title, content string) (*models.Note, error) {
	note, err := r.GetNote(userID, id)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		title, content, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	note.Title = title
	note.Content = content
	return note, nil
}

// DeleteNote soft-deletes a note owned by userID.
func (r *NoteRepository) DeleteNote(userID, id string) error {
	owned := `
		SELECT n.deleted_at
		FROM notes n
		JOIN note_groups g ON g.id = n.group_id
		WHERE n.id = ? AND g.user_id = ?
	`
	return softDelete(r.db, "note", id,
		owned, []any{id, userID},
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ?`, []any{time.Now().UTC(), time.Now().UTC(), id},
	)
}
