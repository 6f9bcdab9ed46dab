// Package reconciler keeps each data domain consistent between the local cache and the remote gateway.
//
// # Tiers
//
// Exactly one tier is authoritative at a time, chosen by the current identity:
//   - Anonymous : the local cache under the "anonymous" owner key; the gateway is never called
//   - Authenticated : the remote gateway, mirrored into the cache under "user:<id>"
//
// # Reconciler
//
// [Reconciler] is generic over a domain snapshot. It loads (cache first, then remote), applies mutations
// (remote first, then a copy of memory, then the cache mirror, then publish) and reacts to identity transitions by
// discarding state, dropping the previous account's cache entry and loading for the new identity.
//
// Every transition starts a new epoch. A load or mutation whose epoch is no longer current when its response
// arrives is discarded, so a slow response for one account can never land in another account's view or cache.
// Mutations within an epoch are serialized in issue order; a new epoch gets a fresh lane so it never waits on the
// previous identity's in-flight calls.
//
// # Domains
//
//   - [NotesReconciler] : note groups and notes
//   - [BookmarksReconciler] : bookmarks, newest first
//   - [RemindersReconciler] : reminders by date
//   - [StatsReconciler] : study sessions and their summary; anonymous summaries are computed locally
//
// [Workspace] bundles all four, fans identity transitions out to them and loads them concurrently.
package reconciler
