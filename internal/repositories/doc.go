// Package repositories implements SQLite persistence for the gateway server.
//
// Every repository is scoped by the caller's user id: a row that does not exist and a row owned by someone else
// are indistinguishable and both yield [shared.ErrNotFoundOrForbidden]. Deletes are soft (deleted_at) so deleting
// a row the caller already deleted succeeds again, which keeps deletes idempotent without revealing other users'
// rows.
//
// Key Implementations:
//   - [UserRepository] : Account rows keyed by the identity provider's subject, created on first use
//   - [NoteRepository] : Note groups and their notes; ownership is checked through the group
//   - [BookmarkRepository] : Saved links, newest first
//   - [ReminderRepository] : Calendar reminders ordered by date
//   - [StudySessionRepository] : Completed pomodoro sessions with their tasks
//
// Sequence numbers give groups and notes a stable creation order independent of their UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
