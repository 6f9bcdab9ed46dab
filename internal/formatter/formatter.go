// package formatter exports notes, bookmarks and study statistics to files (Markdown, JSON, CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
)

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	default:
		return ".txt"
	}
}

// ParseFormat resolves a user supplied format name. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

func unsupported(kind string, f Format) error {
	return fmt.Errorf("%w: %s cannot be exported as %s", shared.ErrInvalidArgument, kind, f)
}

// ExportNotes renders note groups as Markdown, JSON or plain text.
func ExportNotes(groups []models.NoteGroup, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return NotesToMarkdown(groups)
	case FormatJSON:
		return shared.MarshalJSON(nonNil(groups), true)
	case FormatText:
		return NotesToText(groups)
	default:
		return nil, unsupported("notes", f)
	}
}

// ExportBookmarks renders bookmarks as CSV or JSON.
func ExportBookmarks(bookmarks []models.Bookmark, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return BookmarksToCSV(bookmarks)
	case FormatJSON:
		return shared.MarshalJSON(nonNil(bookmarks), true)
	default:
		return nil, unsupported("bookmarks", f)
	}
}

// ExportStats renders study statistics as plain text or as a per-day CSV.
func ExportStats(st models.StudyStats, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return StatsToText(st)
	case FormatCSV:
		return StatsToCSV(st)
	case FormatJSON:
		return shared.MarshalJSON(st, true)
	default:
		return nil, unsupported("stats", f)
	}
}

// NotesToMarkdown renders one section per group and one subsection per note.
func NotesToMarkdown(groups []models.NoteGroup) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Notes\n\n")
	buf.WriteString(fmt.Sprintf("**Groups**: %d\n", len(groups)))
	buf.WriteString(fmt.Sprintf("**Notes**: %d\n", countNotes(groups)))

	for _, g := range groups {
		buf.WriteString(fmt.Sprintf("\n## %s\n", g.Name))
		if len(g.Notes) == 0 {
			buf.WriteString("\n_No notes._\n")
			continue
		}
		for _, n := range g.Notes {
			buf.WriteString(fmt.Sprintf("\n### %s\n", n.Title))
			if content := strings.TrimSpace(n.Content); content != "" {
				buf.WriteString("\n" + content + "\n")
			}
		}
	}

	return buf.Bytes(), nil
}

// NotesToText renders an indented outline of groups and note titles.
func NotesToText(groups []models.NoteGroup) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Groups: %d\n", len(groups)))
	buf.WriteString(fmt.Sprintf("Notes: %d\n", countNotes(groups)))

	for _, g := range groups {
		buf.WriteString(fmt.Sprintf("\n%s (%d)\n", g.Name, len(g.Notes)))
		for i, n := range g.Notes {
			buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, n.Title))
		}
	}

	return buf.Bytes(), nil
}

// BookmarksToCSV converts bookmarks to CSV with columns: ID, Title, URL, Created
func BookmarksToCSV(bookmarks []models.Bookmark) ([]byte, error) {
	rows := make([][]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		rows = append(rows, []string{b.ID, b.Title, b.URL, formatTime(b.CreatedAt)})
	}
	return writeCSV([]string{"ID", "Title", "URL", "Created"}, rows)
}

// StatsToText renders the headline metrics followed by the daily breakdown.
func StatsToText(st models.StudyStats) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Minutes studied: %d (%s)\n", st.MinutesStudied, FormatMinutes(st.MinutesStudied)))
	buf.WriteString(fmt.Sprintf("Sessions: %d\n", st.SessionsCompleted))
	buf.WriteString(fmt.Sprintf("Day streak: %d\n", st.DayStreak))
	buf.WriteString(fmt.Sprintf("Longest streak: %d\n", st.LongestStreak))

	if len(st.DailyStats) == 0 {
		buf.WriteString("\nNo sessions recorded.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("\nDaily:\n")
	for _, d := range st.DailyStats {
		buf.WriteString(fmt.Sprintf("  %s  %s studied, %s break, %d tasks\n",
			d.Date.Format(time.DateOnly), FormatMinutes(d.TotalTime), FormatMinutes(d.BreakTime), d.CompletedTasks))
	}

	return buf.Bytes(), nil
}

// StatsToCSV converts the daily breakdown to CSV with columns: Date, TotalTime, BreakTime, CompletedTasks
func StatsToCSV(st models.StudyStats) ([]byte, error) {
	rows := make([][]string, 0, len(st.DailyStats))
	for _, d := range st.DailyStats {
		rows = append(rows, []string{
			d.Date.Format(time.DateOnly),
			strconv.Itoa(d.TotalTime),
			strconv.Itoa(d.BreakTime),
			strconv.Itoa(d.CompletedTasks),
		})
	}
	return writeCSV([]string{"Date", "TotalTime", "BreakTime", "CompletedTasks"}, rows)
}

// FormatMinutes renders whole minutes as "1h 05m", or "25m" under an hour.
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// WriteExport writes data to path, or to name plus the format's extension in the working directory when path is empty.
// Parent directories are created as needed.
func WriteExport(data []byte, path, name string, f Format) (string, error) {
	if path == "" {
		path = name + f.Extension()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func countNotes(groups []models.NoteGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Notes)
	}
	return n
}

// nonNil keeps empty exports as "[]" rather than "null".
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
