// Package models defines the domain entities shared by the gateway server and the client reconcilers.
//
// The package contains three categories of types:
//
// 1. Records and collections, persisted by the gateway and mirrored in the local cache:
//   - [NoteGroup] : A named collection of [Note] records owned by one user
//   - [Bookmark] : A saved link
//   - [Reminder] : A dated calendar note
//   - [StudySession] : A completed pomodoro session with its [CompletedTask] list
//   - [User] : The server-side account row for an authenticated identity
//
// 2. Typed requests validated at the adapter boundary ([CreateGroupRequest], [CreateNoteRequest], ...).
//
// 3. [Identity], which selects the authoritative tier, and [Result], the discriminated envelope used on the wire.
package models
