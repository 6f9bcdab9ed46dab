package tasks

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studydesk/internal/formatter"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Snapshot is the data of one identity at a point in time.
type Snapshot struct {
	Identity  models.Identity
	Groups    []models.NoteGroup
	Bookmarks []models.Bookmark
	Reminders []models.Reminder
	Stats     models.StudyStats
}

// BackupOpts configures [Engine.Backup].
type BackupOpts struct {
	OutputDir  string // Base output directory (default: studydesk_backup_{epoch})
	NumWorkers int    // Concurrent writers (default: 2, at most 4)
}

// BackupFile is the outcome of writing one domain.
type BackupFile struct {
	Domain  string `json:"domain"`
	Path    string `json:"path,omitempty"`
	Bytes   int    `json:"bytes"`
	Items   int    `json:"items"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// BackupResult summarizes a backup. It doubles as the manifest written beside the files.
type BackupResult struct {
	Identity        string       `json:"identity"`
	CreatedAt       time.Time    `json:"createdAt"`
	OutputDirectory string       `json:"outputDirectory"`
	Files           []BackupFile `json:"files"`
	Succeeded       int          `json:"succeeded"`
	Failed          int          `json:"failed"`
	ManifestPath    string       `json:"-"`
}

// backupJob renders one domain.
type backupJob struct {
	domain string
	format formatter.Format
	items  int
	render func() ([]byte, error)
}

// Engine runs tasks. The zero value is not usable; see [NewEngine].
type Engine struct {
	logger *log.Logger
	now    func() time.Time
}

// NewEngine creates an Engine. A nil now uses time.Now.
func NewEngine(logger *log.Logger, now func() time.Time) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{logger: shared.WithLogger(logger, "component", "tasks"), now: now}
}

// sendProgress sends a progress update without blocking.
func (e *Engine) sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}

func jobsFor(s Snapshot) []backupJob {
	return []backupJob{
		{
			domain: "notes",
			format: formatter.FormatMarkdown,
			items:  len(s.Groups),
			render: func() ([]byte, error) { return formatter.ExportNotes(s.Groups, formatter.FormatMarkdown) },
		},
		{
			domain: "bookmarks",
			format: formatter.FormatCSV,
			items:  len(s.Bookmarks),
			render: func() ([]byte, error) { return formatter.ExportBookmarks(s.Bookmarks, formatter.FormatCSV) },
		},
		{
			domain: "reminders",
			format: formatter.FormatJSON,
			items:  len(s.Reminders),
			render: func() ([]byte, error) {
				reminders := s.Reminders
				if reminders == nil {
					reminders = []models.Reminder{}
				}
				return shared.MarshalJSON(reminders, true)
			},
		},
		{
			domain: "stats",
			format: formatter.FormatText,
			items:  s.Stats.SessionsCompleted,
			render: func() ([]byte, error) { return formatter.ExportStats(s.Stats, formatter.FormatText) },
		},
	}
}
