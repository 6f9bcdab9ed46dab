package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/studydesk/internal/shared"
)

func TestIdentity(t *testing.T) {
	t.Run("zero value is anonymous", func(t *testing.T) {
		if Anonymous.IsAuthenticated() {
			t.Error("anonymous identity should not be authenticated")
		}
		if Anonymous.OwnerKey() != "anonymous" {
			t.Errorf("expected owner key anonymous, got %s", Anonymous.OwnerKey())
		}
	})

	t.Run("owner keys never collide with anonymous", func(t *testing.T) {
		id := Authenticated("anonymous", "")
		if id.OwnerKey() == Anonymous.OwnerKey() {
			t.Error("a user named anonymous must not share the anonymous owner key")
		}
	})

	t.Run("Same ignores profile fields", func(t *testing.T) {
		a := Authenticated("u1", "a@example.com")
		b := Authenticated("u1", "b@example.com")
		if !a.Same(b) {
			t.Error("identities with the same user id should be the same owner")
		}
		if a.Same(Authenticated("u2", "a@example.com")) {
			t.Error("identities with different user ids should differ")
		}
	})
}

func TestRequests(t *testing.T) {
	tc := []struct {
		name    string
		req     Validator
		wantErr bool
	}{
		{"group ok", CreateGroupRequest{Name: "School"}, false},
		{"group blank", CreateGroupRequest{Name: "  "}, true},
		{"note ok", CreateNoteRequest{GroupID: "g1", Title: "T"}, false},
		{"note missing group", CreateNoteRequest{Title: "T"}, true},
		{"note missing title", CreateNoteRequest{GroupID: "g1"}, true},
		{"update ok", UpdateNoteRequest{ID: "n1", Title: "T", Content: "c"}, false},
		{"update missing id", UpdateNoteRequest{Title: "T"}, true},
		{"bookmark ok", CreateBookmarkRequest{URL: "https://go.dev"}, false},
		{"bookmark relative", CreateBookmarkRequest{URL: "go.dev"}, true},
		{"bookmark ftp", CreateBookmarkRequest{URL: "ftp://example.com"}, true},
		{"reminder ok", CreateReminderRequest{Date: time.Now(), Note: "exam"}, false},
		{"reminder no date", CreateReminderRequest{Note: "exam"}, true},
		{"session ok", RecordSessionRequest{FocusTime: 50, BreakTime: 5, TotalTime: 55}, false},
		{"session empty", RecordSessionRequest{}, true},
		{"session negative", RecordSessionRequest{FocusTime: -1, TotalTime: 5}, true},
		{"session short total", RecordSessionRequest{FocusTime: 50, BreakTime: 5, TotalTime: 30}, true},
		{"session untitled task", RecordSessionRequest{TotalTime: 25, FocusTime: 25, CompletedTasks: []TaskInput{{}}}, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestBookmarkNormalized(t *testing.T) {
	req := CreateBookmarkRequest{URL: " https://go.dev "}.Normalized()
	if req.Title != "https://go.dev" {
		t.Errorf("expected title to fall back to url, got %q", req.Title)
	}
}

func TestPomodoroSession(t *testing.T) {
	tc := []struct {
		name                 string
		pomodoros            int
		wantFocus, wantBreak int
		wantTotal            int
	}{
		{"single pomodoro has no break", 1, 25, 0, 25},
		{"four pomodoros", 4, 100, 15, 115},
		{"none", 0, 0, 0, 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			req := PomodoroSession(tt.pomodoros, 25, 5, nil)
			if req.FocusTime != tt.wantFocus || req.BreakTime != tt.wantBreak || req.TotalTime != tt.wantTotal {
				t.Errorf("got focus=%d break=%d total=%d", req.FocusTime, req.BreakTime, req.TotalTime)
			}
		})
	}
}

func TestCloneGroups(t *testing.T) {
	groups := []NoteGroup{{ID: "g1", Notes: []Note{{ID: "n1"}}}}
	clone := CloneGroups(groups)
	clone[0].Notes[0].Title = "changed"
	clone[0].Notes = append(clone[0].Notes, Note{ID: "n2"})

	if groups[0].Notes[0].Title != "" || len(groups[0].Notes) != 1 {
		t.Error("mutating the clone changed the original")
	}
	if CloneGroups(nil) == nil {
		t.Error("clone of nil should be an empty slice")
	}
}

func TestCalendarDay(t *testing.T) {
	want := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   time.Time
	}{
		{"east of utc", time.Date(2025, 3, 5, 0, 0, 0, 0, time.FixedZone("JST", 9*3600))},
		{"west of utc", time.Date(2025, 3, 5, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))},
		{"utc", time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalendarDay(tt.in); !got.Equal(want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}
