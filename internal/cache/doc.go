// Package cache implements the client's local cache store.
//
// A [Store] is a flat, durable key/value map of UTF-8 JSON blobs. Every data domain keeps one [Entry] per owner
// under [Key], so switching identity never reads another identity's snapshot:
//
//	notes:anonymous
//	notes:user:<user id>
//	bookmarks:user:<user id>
//
// [BoltStore] persists entries in a single bbolt bucket; [MemoryStore] is used by tests and ephemeral runs.
// Unparseable entries surface as [shared.ErrCacheCorrupt] from [Read] so callers can treat them as a miss.
package cache
