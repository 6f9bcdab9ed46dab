// Package services defines the Remote Data Gateway and its two implementations.
//
// # Gateway Interfaces
//
// Each data domain has its own gateway interface. Every operation takes the caller's user id explicitly; gateways
// never read identity from ambient state.
//   - [NotesGateway] : note groups and their notes
//   - [BookmarksGateway] : saved links
//   - [RemindersGateway] : calendar reminders
//   - [SessionsGateway] : study sessions and the statistics derived from them
//
// [Gateways] bundles one of each.
//
// # Repository Gateway
//
// [RepositoryGateway] serves the interfaces straight from SQLite through the repositories package. The HTTP server
// uses it, and the CLI can use it with a local database.
//
// # API Service
//
// [APIService] implements the interfaces over the server's HTTP API. Requests are rate limited with
// [rate.Limiter] and carry the caller's identity as headers (plus a bearer token when signed in through OAuth).
// The server's result envelope is folded into (value, error):
//   - invalid_input : [shared.ErrInvalidInput]
//   - unauthenticated : [shared.ErrUnauthenticated]
//   - not_found : [shared.ErrNotFoundOrForbidden]
//   - internal, 5xx, transport failures and timeouts : [shared.ErrRemoteUnavailable]
//
// An empty user id is refused with [shared.ErrUnauthenticated] before any network traffic.
package services
