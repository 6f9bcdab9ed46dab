package models

import (
	"strings"
	"time"
)

var (
	_ Validator = CreateGroupRequest{}
	_ Validator = CreateNoteRequest{}
	_ Validator = UpdateNoteRequest{}
	_ Validator = CreateBookmarkRequest{}
	_ Validator = CreateReminderRequest{}
	_ Validator = RecordSessionRequest{}
)

// CreateGroupRequest creates a note group.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

func (r CreateGroupRequest) Validate() error {
	if blank(r.Name) {
		return invalid("group name is required")
	}
	return nil
}

// CreateNoteRequest creates a note inside an existing group.
type CreateNoteRequest struct {
	GroupID string `json:"groupId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r CreateNoteRequest) Validate() error {
	if blank(r.GroupID) {
		return invalid("group id is required")
	}
	if blank(r.Title) {
		return invalid("note title is required")
	}
	return nil
}

// UpdateNoteRequest replaces a note's title and content.
type UpdateNoteRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r UpdateNoteRequest) Validate() error {
	if blank(r.ID) {
		return invalid("note id is required")
	}
	if blank(r.Title) {
		return invalid("note title is required")
	}
	return nil
}

// CreateBookmarkRequest saves a link. A blank title falls back to the URL.
type CreateBookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (r CreateBookmarkRequest) Validate() error {
	if blank(r.URL) {
		return invalid("bookmark url is required")
	}
	if !validURL(r.URL) {
		return invalid("bookmark url %q is not an absolute http(s) URL", r.URL)
	}
	return nil
}

// Normalized trims fields and applies the title fallback.
func (r CreateBookmarkRequest) Normalized() CreateBookmarkRequest {
	r.URL = strings.TrimSpace(r.URL)
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = r.URL
	}
	return r
}

// CreateReminderRequest attaches a note to a calendar day.
type CreateReminderRequest struct {
	Date time.Time `json:"date"`
	Note string    `json:"note"`
}

func (r CreateReminderRequest) Validate() error {
	if r.Date.IsZero() {
		return invalid("reminder date is required")
	}
	if blank(r.Note) {
		return invalid("reminder note is required")
	}
	return nil
}

// TaskInput describes a task completed during a session.
type TaskInput struct {
	Title         string `json:"title"`
	EstimatedTime int    `json:"estimatedTime"`
}

// RecordSessionRequest stores a completed pomodoro session. Times are whole minutes.
type RecordSessionRequest struct {
	FocusTime      int         `json:"focusTime"`
	BreakTime      int         `json:"breakTime"`
	TotalTime      int         `json:"totalTime"`
	CompletedTasks []TaskInput `json:"completedTasks"`
}

func (r RecordSessionRequest) Validate() error {
	if r.FocusTime < 0 || r.BreakTime < 0 || r.TotalTime < 0 {
		return invalid("session times must not be negative")
	}
	if r.TotalTime == 0 {
		return invalid("session total time is required")
	}
	if r.TotalTime < r.FocusTime+r.BreakTime {
		return invalid("session total time %d is less than focus %d plus break %d", r.TotalTime, r.FocusTime, r.BreakTime)
	}
	for i, task := range r.CompletedTasks {
		if blank(task.Title) {
			return invalid("completed task %d has no title", i)
		}
		if task.EstimatedTime < 0 {
			return invalid("completed task %q has a negative estimate", task.Title)
		}
	}
	return nil
}

// PomodoroSession builds a request from a pomodoro timer run: every completed pomodoro contributes
// pomodoroMinutes of focus and every pomodoro after the first is preceded by breakMinutes of rest.
func PomodoroSession(pomodoros, pomodoroMinutes, breakMinutes int, tasks []TaskInput) RecordSessionRequest {
	focus := pomodoroMinutes * pomodoros
	rest := 0
	if pomodoros > 1 {
		rest = breakMinutes * (pomodoros - 1)
	}
	return RecordSessionRequest{
		FocusTime:      focus,
		BreakTime:      rest,
		TotalTime:      focus + rest,
		CompletedTasks: tasks,
	}
}
