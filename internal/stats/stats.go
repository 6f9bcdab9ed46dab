// Package stats derives study statistics from a user's pomodoro sessions.
//
// All comparisons happen on calendar days in the aggregator's location: the time of day is discarded and two
// sessions are consecutive when their days differ by exactly one. Times are whole minutes and hour totals are
// floored.
package stats

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Aggregator computes streaks and summaries in a fixed location.
type Aggregator struct {
	loc *time.Location
}

// New creates an [Aggregator] for loc, defaulting to [time.Local].
func New(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{loc: loc}
}

// Day truncates t to midnight of its calendar day in the aggregator's location.
func (a *Aggregator) Day(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// ParseDay parses a YYYY-MM-DD date as midnight in the aggregator's location.
func (a *Aggregator) ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must look like 2006-01-02", shared.ErrInvalidArgument, s)
	}
	return day, nil
}

// dayNumber counts days since the epoch for t's calendar day; DST shifts do not affect it.
func (a *Aggregator) dayNumber(t time.Time) int64 {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// DaysBetween returns the number of calendar days from earlier to later.
func (a *Aggregator) DaysBetween(earlier, later time.Time) int {
	return int(a.dayNumber(later) - a.dayNumber(earlier))
}

// Streak walks the sessions from the most recent backwards and counts consecutive calendar days, stopping at the
// first gap. Sessions sharing a day count once.
func (a *Aggregator) Streak(sessions []models.StudySession) int {
	days := a.distinctDays(sessions)
	if len(days) == 0 {
		return 0
	}

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i]-days[i-1] != 1 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive calendar days anywhere in the history.
func (a *Aggregator) LongestStreak(sessions []models.StudySession) int {
	days := a.distinctDays(sessions)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// RollingStreak is the streak stored on a session recorded today: it continues last's streak when last was
// yesterday and restarts at 1 otherwise, including when last was already today.
func (a *Aggregator) RollingStreak(last *models.StudySession, today time.Time) int {
	if last == nil || last.Date.IsZero() {
		return 1
	}

	if a.DaysBetween(last.Date, today) == 1 {
		return max(last.Streak, 1) + 1
	}
	return 1
}

// Latest returns the most recent session, or nil when there are none.
func Latest(sessions []models.StudySession) *models.StudySession {
	var latest *models.StudySession
	for i := range sessions {
		if latest == nil || !sessions[i].Date.Before(latest.Date) {
			latest = &sessions[i]
		}
	}
	return latest
}

// Summarize aggregates sessions into [models.StudyStats]. Sessions are returned in chronological order and the
// daily breakdown merges sessions that fall on the same day.
func (a *Aggregator) Summarize(sessions []models.StudySession) models.StudyStats {
	sorted := a.sorted(sessions)
	summary := models.StudyStats{
		DailyStats: []models.DailyStat{},
		Sessions:   sorted,
	}
	if len(sorted) == 0 {
		return summary
	}

	for _, s := range sorted {
		summary.MinutesStudied += s.TotalTime

		day := a.Day(s.Date)
		n := len(summary.DailyStats)
		if n > 0 && summary.DailyStats[n-1].Date.Equal(day) {
			summary.DailyStats[n-1].TotalTime += s.TotalTime
			summary.DailyStats[n-1].BreakTime += s.BreakTime
			summary.DailyStats[n-1].CompletedTasks += len(s.CompletedTasks)
			continue
		}
		summary.DailyStats = append(summary.DailyStats, models.DailyStat{
			Date:           day,
			TotalTime:      s.TotalTime,
			BreakTime:      s.BreakTime,
			CompletedTasks: len(s.CompletedTasks),
		})
	}

	summary.SessionsCompleted = len(sorted)
	summary.TotalHours = summary.MinutesStudied / 60
	summary.DayStreak = a.Streak(sorted)
	summary.LongestStreak = a.LongestStreak(sorted)
	return summary
}

func (a *Aggregator) sorted(sessions []models.StudySession) []models.StudySession {
	out := models.CloneSessions(sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// distinctDays returns the ascending, de-duplicated day numbers of sessions.
func (a *Aggregator) distinctDays(sessions []models.StudySession) []int64 {
	days := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		days = append(days, a.dayNumber(s.Date))
	}
	slices.Sort(days)
	return slices.Compact(days)
}
