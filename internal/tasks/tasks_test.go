package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return NewEngine(shared.NewLogger(io.Discard), func() time.Time { return now })
}

func snapshot() Snapshot {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Identity: models.Authenticated("alice", "alice@example.com"),
		Groups: []models.NoteGroup{
			{ID: "g1", Name: "Biology", Notes: []models.Note{{ID: "n1", Title: "Cells", Content: "Mitochondria", GroupID: "g1"}}},
		},
		Bookmarks: []models.Bookmark{{ID: "b1", Title: "Go", URL: "https://go.dev", CreatedAt: now}},
		Reminders: []models.Reminder{{ID: "r1", Date: day, Note: "Chemistry exam"}},
		Stats: models.StudyStats{
			MinutesStudied:    55,
			SessionsCompleted: 1,
			DayStreak:         1,
			LongestStreak:     1,
			DailyStats:        []models.DailyStat{{Date: day, TotalTime: 55, BreakTime: 5, CompletedTasks: 1}},
		},
	}
}

func collect(ch <-chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestBackup(t *testing.T) {
	t.Run("writes every domain and a manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "backup")
		prog := make(chan ProgressUpdate, 16)

		result, err := newEngine().Backup(context.Background(), prog, snapshot(), BackupOpts{OutputDir: dir, NumWorkers: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Succeeded != 4 || result.Failed != 0 {
			t.Errorf("expected 4 successes, got %d/%d", result.Succeeded, result.Failed)
		}
		wantOrder := []string{"bookmarks", "notes", "reminders", "stats"}
		for i, file := range result.Files {
			if file.Domain != wantOrder[i] {
				t.Errorf("file %d: expected %s, got %s", i, wantOrder[i], file.Domain)
			}
		}

		for name, want := range map[string]string{
			"notes.md":       "### Cells",
			"bookmarks.csv":  "https://go.dev",
			"reminders.json": "Chemistry exam",
			"stats.txt":      "Minutes studied: 55",
		} {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Errorf("missing %s: %v", name, err)
				continue
			}
			if !strings.Contains(string(data), want) {
				t.Errorf("%s missing %q:\n%s", name, want, data)
			}
		}

		raw, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var manifest BackupResult
		if err := json.Unmarshal(raw, &manifest); err != nil {
			t.Fatalf("failed to decode manifest: %v", err)
		}
		if manifest.Identity != "alice <alice@example.com>" || len(manifest.Files) != 4 || !manifest.CreatedAt.Equal(now) {
			t.Errorf("unexpected manifest: %+v", manifest)
		}

		updates := collect(prog)
		if len(updates) != 6 {
			t.Fatalf("expected 6 progress updates, got %d", len(updates))
		}
		if updates[0].Phase != Collect || updates[5].Phase != WriteManifest {
			t.Errorf("unexpected phases: first %s, last %s", updates[0].Phase, updates[5].Phase)
		}
	})

	t.Run("empty snapshot still exports", func(t *testing.T) {
		dir := t.TempDir()

		result, err := newEngine().Backup(context.Background(), nil, Snapshot{}, BackupOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Succeeded != 4 {
			t.Errorf("expected 4 successes, got %d", result.Succeeded)
		}
		data, err := os.ReadFile(filepath.Join(dir, "reminders.json"))
		if err != nil {
			t.Fatalf("missing reminders.json: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected an empty array, got %s", data)
		}
	})

	t.Run("a failed file does not stop the others", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "notes.md"), 0755); err != nil {
			t.Fatalf("failed to create blocking directory: %v", err)
		}

		result, err := newEngine().Backup(context.Background(), nil, snapshot(), BackupOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Succeeded != 3 || result.Failed != 1 {
			t.Fatalf("expected 3 successes and 1 failure, got %d/%d", result.Succeeded, result.Failed)
		}
		notes := result.Files[1]
		if notes.Domain != "notes" || notes.Success || !strings.Contains(notes.Message, "notes write failed") {
			t.Errorf("unexpected notes result: %+v", notes)
		}
	})

	t.Run("unwritable output directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		_, err := newEngine().Backup(context.Background(), nil, snapshot(), BackupOpts{OutputDir: filepath.Join(blocker, "out")})
		if err == nil || !strings.Contains(err.Error(), "failed to create output directory") {
			t.Errorf("expected a directory error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newEngine().Backup(ctx, nil, snapshot(), BackupOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("default output directory", func(t *testing.T) {
		t.Chdir(t.TempDir())

		result, err := newEngine().Backup(context.Background(), nil, Snapshot{}, BackupOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.OutputDirectory != "studydesk_backup_1740996000" {
			t.Errorf("unexpected directory %q", result.OutputDirectory)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{Collect: "collect", WriteFile: "write_file", WriteManifest: "write_manifest", Phase(99): ""} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
