package reconciler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

func bookmarkTitles(list []models.Bookmark) []string {
	titles := make([]string, 0, len(list))
	for _, b := range list {
		titles = append(titles, b.Title)
	}
	return titles
}

func TestBookmarksReconciler(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous bookmarks are listed newest first", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		for _, req := range []models.CreateBookmarkRequest{
			{Title: "Go", URL: "https://go.dev"},
			{URL: "  https://pkg.go.dev  "},
		} {
			if _, err := ws.Bookmarks.Add(ctx, req); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}

		got := bookmarkTitles(ws.Bookmarks.Bookmarks())
		if diff := cmp.Diff([]string{"https://pkg.go.dev", "Go"}, got); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("authenticated bookmarks match the gateway order", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(alice)
		ws := f.workspace(ctx)

		for _, title := range []string{"first", "second", "third"} {
			if _, err := ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{Title: title, URL: "https://example.com/" + title}); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}

		remote, err := f.backend.Gateways.Bookmarks.List(ctx, alice.UserID)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if diff := cmp.Diff(bookmarkTitles(remote), bookmarkTitles(ws.Bookmarks.Bookmarks())); diff != "" {
			t.Errorf("order mismatch (-gateway +local):\n%s", diff)
		}
		if got := bookmarkTitles(remote)[0]; got != "third" {
			t.Errorf("expected newest bookmark first, got %q", got)
		}
	})

	t.Run("invalid url is rejected before any call", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(alice)
		ws := f.workspace(ctx)

		_, err := ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{URL: "ftp://example.com"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.hooks.Calls("bookmarks.Create"); n != 0 {
			t.Errorf("expected no create calls, got %d", n)
		}
	})

	t.Run("delete removes only the named bookmark", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		keep, err := ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{Title: "keep", URL: "https://a.example"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		drop, err := ws.Bookmarks.Add(ctx, models.CreateBookmarkRequest{Title: "drop", URL: "https://b.example"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if err := ws.Bookmarks.Delete(ctx, drop.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		got := ws.Bookmarks.Bookmarks()
		if len(got) != 1 || got[0].ID != keep.ID {
			t.Errorf("expected only %s to remain, got %+v", keep.ID, got)
		}
	})
}

func TestRemindersReconciler(t *testing.T) {
	ctx := context.Background()
	day := func(d int, hour int) time.Time { return time.Date(2025, 3, d, hour, 30, 0, 0, time.UTC) }

	for _, signedIn := range []bool{false, true} {
		name := "anonymous"
		if signedIn {
			name = "authenticated"
		}

		t.Run(name+" reminders stay in date order", func(t *testing.T) {
			f := newFixture(t)
			if signedIn {
				f.signIn(alice)
			}
			ws := f.workspace(ctx)

			for _, req := range []models.CreateReminderRequest{
				{Date: day(12, 9), Note: "exam"},
				{Date: day(5, 18), Note: "reading"},
				{Date: day(12, 14), Note: "lab report"},
				{Date: day(8, 7), Note: "quiz"},
			} {
				if _, err := ws.Reminders.Add(ctx, req); err != nil {
					t.Fatalf("Add failed: %v", err)
				}
			}

			got := ws.Reminders.Reminders()
			notes := make([]string, 0, len(got))
			for i, rem := range got {
				notes = append(notes, rem.Note)
				if i > 0 && rem.Date.Before(got[i-1].Date) {
					t.Errorf("reminder %d (%s) is out of order", i, rem.Note)
				}
				if h := rem.Date.Hour(); h != 0 {
					t.Errorf("expected %s to be normalized to midnight, got hour %d", rem.Note, h)
				}
			}
			if notes[0] != "reading" || notes[1] != "quiz" {
				t.Errorf("unexpected order: %v", notes)
			}

			on := ws.Reminders.On(day(12, 23))
			if len(on) != 2 {
				t.Errorf("expected 2 reminders on the 12th, got %+v", on)
			}
			if len(ws.Reminders.On(day(20, 0))) != 0 {
				t.Error("expected no reminders on the 20th")
			}
		})
	}

	t.Run("missing note is rejected", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		if _, err := ws.Reminders.Add(ctx, models.CreateReminderRequest{Date: day(3, 10), Note: "   "}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(ws.Reminders.Reminders()) != 0 {
			t.Error("expected no reminders after a rejected add")
		}
	})
}

func TestStatsReconciler(t *testing.T) {
	ctx := context.Background()
	session := models.RecordSessionRequest{
		FocusTime:      25,
		BreakTime:      5,
		TotalTime:      30,
		CompletedTasks: []models.TaskInput{{Title: "flashcards", EstimatedTime: 20}},
	}

	t.Run("anonymous streak rolls by calendar day", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		tests := []struct {
			name      string
			advance   time.Duration
			streak    int
			dayStreak int
		}{
			{"first session", 0, 1, 1},
			{"same day restarts at one", 2 * time.Hour, 1, 1},
			{"next day extends it", 24 * time.Hour, 2, 2},
			{"a gap resets it", 72 * time.Hour, 1, 1},
		}

		for _, tc := range tests {
			f.now = f.now.Add(tc.advance)
			recorded, err := ws.Stats.RecordSession(ctx, session)
			if err != nil {
				t.Fatalf("%s: RecordSession failed: %v", tc.name, err)
			}
			if recorded.Streak != tc.streak {
				t.Errorf("%s: expected session streak %d, got %d", tc.name, tc.streak, recorded.Streak)
			}
			if !strings.HasPrefix(recorded.ID, shared.LocalIDPrefix) {
				t.Errorf("%s: expected a local id, got %s", tc.name, recorded.ID)
			}
			if got := ws.Stats.Summary().DayStreak; got != tc.dayStreak {
				t.Errorf("%s: expected day streak %d, got %d", tc.name, tc.dayStreak, got)
			}
		}

		summary := ws.Stats.Summary()
		if summary.SessionsCompleted != 4 || summary.MinutesStudied != 120 {
			t.Errorf("unexpected totals: %+v", summary)
		}
		if summary.LongestStreak != 2 {
			t.Errorf("expected longest streak 2, got %d", summary.LongestStreak)
		}
		if len(summary.DailyStats) != 3 {
			t.Errorf("expected 3 daily entries, got %d", len(summary.DailyStats))
		}
	})

	t.Run("authenticated summary comes from the gateway", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(alice)
		ws := f.workspace(ctx)

		recorded, err := ws.Stats.RecordSession(ctx, session)
		if err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
		if strings.HasPrefix(recorded.ID, shared.LocalIDPrefix) {
			t.Errorf("expected a server id, got %s", recorded.ID)
		}

		remote, err := f.backend.Gateways.Sessions.ListWithStreak(ctx, alice.UserID)
		if err != nil {
			t.Fatalf("ListWithStreak failed: %v", err)
		}
		if diff := cmp.Diff(remote, ws.Stats.Summary()); diff != "" {
			t.Errorf("summary mismatch (-gateway +local):\n%s", diff)
		}
		if got := remote.Sessions[0].CompletedTasks[0]; got.Title != "flashcards" || !got.Completed {
			t.Errorf("unexpected task: %+v", got)
		}
	})

	t.Run("summary refresh failure falls back to a local summary", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(alice)
		ws := f.workspace(ctx)

		f.hooks.Fail("sessions.ListWithStreak", errors.New("connection reset"))
		if _, err := ws.Stats.RecordSession(ctx, session); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
		if got := ws.Stats.Summary().SessionsCompleted; got != 1 {
			t.Errorf("expected 1 session in the local summary, got %d", got)
		}
	})

	t.Run("invalid session is rejected", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		bad := models.RecordSessionRequest{FocusTime: 25, BreakTime: 10, TotalTime: 30}
		if _, err := ws.Stats.RecordSession(ctx, bad); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestWorkspace(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh picks up changes made elsewhere", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(alice)
		ws := f.workspace(ctx)

		if _, err := f.backend.Gateways.Bookmarks.Create(ctx, alice.UserID, "other device", "https://example.com"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := ws.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if n := len(ws.Bookmarks.Bookmarks()); n != 0 {
			t.Errorf("expected the cached list to be served, got %d bookmarks", n)
		}

		if err := ws.RefreshAll(ctx); err != nil {
			t.Fatalf("RefreshAll failed: %v", err)
		}
		if got := bookmarkTitles(ws.Bookmarks.Bookmarks()); len(got) != 1 || got[0] != "other device" {
			t.Errorf("expected the new bookmark after refresh, got %v", got)
		}
	})

	t.Run("every domain follows the identity", func(t *testing.T) {
		f := newFixture(t)
		ws := f.workspace(ctx)

		f.signIn(bob)
		if got := ws.Identity(); got.UserID != bob.UserID {
			t.Fatalf("expected workspace identity bob, got %s", got)
		}
		for _, d := range ws.Domains() {
			if !f.hasKey(d.Name(), bob) {
				t.Errorf("expected %s to be cached for bob", d.Name())
			}
		}
		if got := ws.Stats.View(); got.State != Ready || got.Identity.UserID != bob.UserID {
			t.Errorf("unexpected stats view: %+v", got)
		}
	})
}
