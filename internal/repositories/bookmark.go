package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// BookmarkRepository persists [models.Bookmark] rows.
type BookmarkRepository struct {
	db *sql.DB
}

// NewBookmarkRepository creates a new [BookmarkRepository] with the given database connection
func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// List returns the user's live bookmarks, newest first.
func (r *BookmarkRepository) List(userID string) ([]models.Bookmark, error) {
	query := `
		SELECT id, title, url, user_id, created_at
		FROM bookmarks
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &b.UserID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmarks: %w", err)
	}

	return bookmarks, nil
}

// Create inserts a bookmark for userID.
func (r *BookmarkRepository) Create(userID, title, url string) (*models.Bookmark, error) {
	b := &models.Bookmark{
		ID:        shared.GenerateID(),
		Title:     title,
		URL:       url,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO bookmarks (id, user_id, title, url, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, b.ID, b.UserID, b.Title, b.URL, b.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	return b, nil
}

// Delete soft-deletes a bookmark owned by userID.
func (r *BookmarkRepository) Delete(userID, id string) error {
	return softDelete(r.db, "bookmark", id,
		`SELECT deleted_at FROM bookmarks WHERE id = ? AND user_id = ?`, []any{id, userID},
		`UPDATE bookmarks SET deleted_at = ? WHERE id = ?`, []any{time.Now().UTC(), id},
	)
}
