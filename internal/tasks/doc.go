// Package tasks runs long operations over the local workspace with progress reporting.
//
// # Backup
//
// [Engine.Backup] writes every domain of a [Snapshot] into one directory:
//
//   - notes as Markdown
//   - bookmarks as CSV
//   - reminders as JSON
//   - statistics as text
//
// Files are rendered by a small worker pool. A failed file does not stop the others; it is recorded in the
// [BackupResult] and in the manifest.json written next to the exports.
//
// # Progress Reporting
//
// Operations accept a send-only [ProgressUpdate] channel. Sends never block: updates are dropped when nobody is
// reading, so a nil channel is fine for callers that only want the result.
package tasks
