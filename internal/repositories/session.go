package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// StudySessionRepository persists [models.StudySession] rows and their completed tasks.
//
// Sessions are an append-only log and cannot be deleted.
type StudySessionRepository struct {
	db *sql.DB
}

// NewStudySessionRepository creates a new [StudySessionRepository] with the given database connection
func NewStudySessionRepository(db *sql.DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

// Create inserts session and its tasks in a single transaction. Missing ids are generated.
func (r *StudySessionRepository) Create(session *models.StudySession) error {
	if session.ID == "" {
		session.ID = shared.GenerateID()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO study_sessions (id, user_id, date, focus_time, break_time, total_time, streak, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query, session.ID, session.UserID, session.Date,
		session.FocusTime, session.BreakTime, session.TotalTime, session.Streak, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert study session: %w", err)
	}

	for i := range session.CompletedTasks {
		task := &session.CompletedTasks[i]
		if task.ID == "" {
			task.ID = shared.GenerateID()
		}

		_, err := tx.Exec(
			`INSERT INTO completed_tasks (id, session_id, title, estimated_time, completed) VALUES (?, ?, ?, ?, ?)`,
			task.ID, session.ID, task.Title, task.EstimatedTime, task.Completed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert completed task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the user's sessions in chronological order with their tasks.
func (r *StudySessionRepository) List(userID string) ([]models.StudySession, error) {
	query := `
		SELECT id, user_id, date, focus_time, break_time, total_time, streak
		FROM study_sessions
		WHERE user_id = ?
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study sessions: %w", err)
	}

	sessions := []models.StudySession{}
	index := map[string]int{}
	for rows.Next() {
		var s models.StudySession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.FocusTime, &s.BreakTime, &s.TotalTime, &s.Streak); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan study session: %w", err)
		}
		s.CompletedTasks = []models.CompletedTask{}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating study sessions: %w", err)
	}
	rows.Close()

	if len(sessions) == 0 {
		return sessions, nil
	}

	taskQuery := `
		SELECT t.id, t.session_id, t.title, t.estimated_time, t.completed
		FROM completed_tasks t
		JOIN study_sessions s ON s.id = t.session_id
		WHERE s.user_id = ?
		ORDER BY t.rowid ASC
	`

	taskRows, err := r.db.Query(taskQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var (
			task      models.CompletedTask
			sessionID string
		)
		if err := taskRows.Scan(&task.ID, &sessionID, &task.Title, &task.EstimatedTime, &task.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan completed task: %w", err)
		}
		if i, ok := index[sessionID]; ok {
			sessions[i].CompletedTasks = append(sessions[i].CompletedTasks, task)
		}
	}

	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completed tasks: %w", err)
	}

	return sessions, nil
}

// Latest returns the user's most recent session, or nil when none exist.
func (r *StudySessionRepository) Latest(userID string) (*models.StudySession, error) {
	query := `
		SELECT id, user_id, date, focus_time, break_time, total_time, streak
		FROM study_sessions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT 1
	`

	var s models.StudySession
	err := r.db.QueryRow(query, userID).Scan(&s.ID, &s.UserID, &s.Date, &s.FocusTime, &s.BreakTime, &s.TotalTime, &s.Streak)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest study session: %w", err)
	}

	return &s, nil
}
