package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// UserRepository persists [models.User] rows.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the user row for id, creating it on first sight and refreshing a changed email or name.
func (r *UserRepository) Ensure(id models.Identity) (*models.User, error) {
	if !id.IsAuthenticated() {
		return nil, shared.ErrUnauthenticated
	}

	user, err := r.Get(id.UserID)
	if err == nil {
		if (id.Email != "" && id.Email != user.Email) || (id.Name != "" && id.Name != user.Name) {
			if id.Email != "" {
				user.Email = id.Email
			}
			if id.Name != "" {
				user.Name = id.Name
			}
			if err := r.Update(user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:        id.UserID,
		Sequence:  sequence,
		Email:     id.Email,
		Name:      id.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO users (id, sequence, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	if _, err := r.db.Exec(query, user.ID, user.Sequence, user.Email, user.Name, user.CreatedAt, user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `
		SELECT id, sequence, email, name, created_at, updated_at
		FROM users
		WHERE id = ? AND deleted_at IS NULL
	`

	var user models.User
	err := r.db.QueryRow(query, id).Scan(&user.ID, &user.Sequence, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Update modifies an existing user's profile fields.
func (r *UserRepository) Update(user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = ?, name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, user.Email, user.Name, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound("user", user.ID)
	}

	return nil
}
