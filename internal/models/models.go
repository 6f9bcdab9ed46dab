// package models defines the data model for the study desk
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/studydesk/internal/shared"
)

// Validator is implemented by every request type accepted at the adapter boundary.
type Validator interface {
	Validate() error // Validate checks if the request is well formed and returns [shared.ErrInvalidInput] if not
}

// User is the gateway's account row for an authenticated identity.
type User struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"-"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is a single note inside a [NoteGroup].
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	GroupID string `json:"groupId"`
}

// NoteGroup is a named collection of notes.
type NoteGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
	Notes  []Note `json:"notes"`
}

// Bookmark is a saved link.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reminder is a note attached to a calendar day. Date is that day at midnight UTC, see [CalendarDay].
type Reminder struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note"`
	UserID string    `json:"userId,omitempty"`
}

// CalendarDay returns the calendar date t shows in its own zone as midnight UTC. The day survives encoding and a
// round trip between a client and a server in different zones.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CompletedTask is a task finished during a study session.
type CompletedTask struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	EstimatedTime int    `json:"estimatedTime"`
	Completed     bool   `json:"completed"`
}

// StudySession is one completed pomodoro run. Times are whole minutes.
type StudySession struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId,omitempty"`
	Date           time.Time       `json:"date"`
	FocusTime      int             `json:"focusTime"`
	BreakTime      int             `json:"breakTime"`
	TotalTime      int             `json:"totalTime"`
	Streak         int             `json:"streak"`
	CompletedTasks []CompletedTask `json:"completedTasks"`
}

// CloneGroups deep-copies groups so callers can mutate the result freely.
func CloneGroups(groups []NoteGroup) []NoteGroup {
	if groups == nil {
		return []NoteGroup{}
	}
	out := make([]NoteGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Notes = append([]Note{}, g.Notes...)
	}
	return out
}

// CloneSessions deep-copies sessions including their task lists.
func CloneSessions(sessions []StudySession) []StudySession {
	if sessions == nil {
		return []StudySession{}
	}
	out := make([]StudySession, len(sessions))
	for i, s := range sessions {
		out[i] = s
		out[i].CompletedTasks = append([]CompletedTask{}, s.CompletedTasks...)
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validURL accepts absolute http(s) URLs only.
func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
