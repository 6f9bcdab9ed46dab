package models

import "time"

// Error codes carried by a failed [Result].
const (
	CodeInvalidInput    = "invalid_input"
	CodeUnauthenticated = "unauthenticated"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal"
)

// Result is the discriminated envelope returned by every gateway endpoint:
// either {success: true, data} or {success: false, code, message}.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful [Result].
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed [Result] with the given code and message.
func Fail[T any](code, message string) Result[T] {
	return Result[T]{Code: code, Message: message}
}

// DailyStat is the per-day breakdown of one session.
type DailyStat struct {
	Date           time.Time `json:"date"`
	TotalTime      int       `json:"totalTime"`
	BreakTime      int       `json:"breakTime"`
	CompletedTasks int       `json:"completedTasks"`
}

// StudyStats is the aggregate view derived from a user's study sessions.
type StudyStats struct {
	MinutesStudied    int            `json:"minutesListened"`
	SessionsCompleted int            `json:"sessionsCompleted"`
	TotalHours        int            `json:"totalHours"`
	DayStreak         int            `json:"dayStreak"`
	LongestStreak     int            `json:"longestStreak"`
	DailyStats        []DailyStat    `json:"dailyStats"`
	Sessions          []StudySession `json:"sessions"`
}
