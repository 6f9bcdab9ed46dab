package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/google/go-cmp/cmp"
)

// monday is 2024-03-04.
var monday = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

func day(offset int, hour int) time.Time {
	return time.Date(monday.Year(), monday.Month(), monday.Day()+offset, hour, 15, 0, 0, time.UTC)
}

func sessionsOn(offsets ...int) []models.StudySession {
	sessions := make([]models.StudySession, len(offsets))
	for i, off := range offsets {
		sessions[i] = models.StudySession{ID: string(rune('a' + i)), Date: day(off, 10), TotalTime: 25}
	}
	return sessions
}

func TestStreak(t *testing.T) {
	agg := New(time.UTC)

	tc := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"no sessions", nil, 0},
		{"single session", []int{0}, 1},
		{"mon tue wed", []int{0, 1, 2}, 3},
		{"mon wed", []int{0, 2}, 1},
		{"gap before recent run", []int{0, 3, 4}, 2},
		{"recent gap stops walk", []int{0, 1, 2, 5}, 1},
		{"unsorted input", []int{2, 0, 1}, 3},
		{"same day counted once", []int{0, 1, 1, 2}, 3},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.Streak(sessionsOn(tt.offsets...)); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakIgnoresTimeOfDay(t *testing.T) {
	agg := New(time.UTC)
	sessions := []models.StudySession{
		{Date: day(0, 23)},
		{Date: day(1, 0)},
	}
	if got := agg.Streak(sessions); got != 2 {
		t.Errorf("late night then early morning should be consecutive, got %d", got)
	}
}

func TestStreakUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	agg := New(tokyo)

	// 20:00 UTC on Monday is already Tuesday in Tokyo.
	sessions := []models.StudySession{
		{Date: time.Date(2024, time.March, 4, 1, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, time.March, 4, 20, 0, 0, 0, time.UTC)},
	}
	if got := agg.Streak(sessions); got != 2 {
		t.Errorf("expected streak 2 in JST, got %d", got)
	}
	if got := New(time.UTC).Streak(sessions); got != 1 {
		t.Errorf("expected streak 1 in UTC, got %d", got)
	}
}

func TestLongestStreak(t *testing.T) {
	agg := New(time.UTC)
	if got := agg.LongestStreak(sessionsOn(0, 1, 2, 3, 6, 7)); got != 4 {
		t.Errorf("LongestStreak() = %d, want 4", got)
	}
	if got := agg.LongestStreak(nil); got != 0 {
		t.Errorf("LongestStreak(nil) = %d, want 0", got)
	}
}

func TestRollingStreak(t *testing.T) {
	agg := New(time.UTC)
	today := day(5, 18)

	tc := []struct {
		name string
		last *models.StudySession
		want int
	}{
		{"first session", nil, 1},
		{"yesterday continues", &models.StudySession{Date: day(4, 8), Streak: 3}, 4},
		{"same day restarts", &models.StudySession{Date: day(5, 7), Streak: 3}, 1},
		{"two days ago resets", &models.StudySession{Date: day(3, 8), Streak: 7}, 1},
		{"legacy zero streak yesterday", &models.StudySession{Date: day(4, 8)}, 2},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.RollingStreak(tt.last, today); got != tt.want {
				t.Errorf("RollingStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	sessions := sessionsOn(2, 0, 4, 1)
	if got := Latest(sessions); got == nil || got.ID != "c" {
		t.Errorf("expected session c to be latest, got %+v", got)
	}
	if Latest(nil) != nil {
		t.Error("expected nil for no sessions")
	}
}

func TestSummarize(t *testing.T) {
	agg := New(time.UTC)

	t.Run("empty", func(t *testing.T) {
		got := agg.Summarize(nil)
		want := models.StudyStats{DailyStats: []models.DailyStat{}, Sessions: []models.StudySession{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Summarize(nil) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("totals and breakdown", func(t *testing.T) {
		sessions := []models.StudySession{
			{ID: "s3", Date: day(1, 9), TotalTime: 30, BreakTime: 5, CompletedTasks: []models.CompletedTask{{Title: "c"}}},
			{ID: "s1", Date: day(0, 9), TotalTime: 55, BreakTime: 5, CompletedTasks: []models.CompletedTask{{Title: "a"}}},
			{ID: "s2", Date: day(0, 15), TotalTime: 50, BreakTime: 0, CompletedTasks: []models.CompletedTask{{Title: "b"}, {Title: "b2"}}},
		}

		got := agg.Summarize(sessions)

		if got.MinutesStudied != 135 {
			t.Errorf("MinutesStudied = %d, want 135", got.MinutesStudied)
		}
		if got.TotalHours != 2 {
			t.Errorf("TotalHours = %d, want 2 (floored)", got.TotalHours)
		}
		if got.SessionsCompleted != 3 {
			t.Errorf("SessionsCompleted = %d, want 3", got.SessionsCompleted)
		}
		if got.DayStreak != 2 || got.LongestStreak != 2 {
			t.Errorf("streaks = %d/%d, want 2/2", got.DayStreak, got.LongestStreak)
		}

		wantDaily := []models.DailyStat{
			{Date: agg.Day(day(0, 0)), TotalTime: 105, BreakTime: 5, CompletedTasks: 3},
			{Date: agg.Day(day(1, 0)), TotalTime: 30, BreakTime: 5, CompletedTasks: 1},
		}
		if diff := cmp.Diff(wantDaily, got.DailyStats); diff != "" {
			t.Errorf("DailyStats mismatch (-want +got):\n%s", diff)
		}

		var order []string
		for _, s := range got.Sessions {
			order = append(order, s.ID)
		}
		if diff := cmp.Diff([]string{"s1", "s2", "s3"}, order); diff != "" {
			t.Errorf("sessions not chronological (-want +got):\n%s", diff)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		sessions := sessionsOn(2, 0)
		agg.Summarize(sessions)
		if sessions[0].ID != "a" {
			t.Error("Summarize reordered the caller's slice")
		}
	})
}

func TestParseDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	agg := New(tokyo)

	got, err := agg.ParseDay(" 2024-03-05 ")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if want := time.Date(2024, time.March, 5, 0, 0, 0, 0, tokyo); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !agg.Day(got).Equal(got) {
		t.Error("parsed day should already be normalized")
	}

	if _, err := agg.ParseDay("03/05/2024"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
