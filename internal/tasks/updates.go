package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Collect Phase = iota
	WriteFile
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case Collect:
		return "collect"
	case WriteFile:
		return "write_file"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func collectUpdate(total int, owner string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Backing up %d domains for %s...", total, owner),
	}
}

func fileWrittenUpdate(step, total int, file BackupFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, file.Domain, file.Path),
		Data:    file,
	}
}

func fileFailedUpdate(step, total int, file BackupFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, file.Domain, file.Error),
		Data:    file,
	}
}

func manifestUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    total,
		Total:   total,
		Message: "Writing manifest...",
	}
}
