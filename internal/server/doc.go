// Package server provides the gateway's HTTP API plus the OAuth callback used by `studydesk auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with "METHOD /path" patterns.
//
// # Data API
//
// [APIHandler] exposes the gateway operations under /api. Responses use the result envelope
// {"success": true, "data": ...} or {"success": false, "code": ..., "message": ...}:
//   - 400 invalid_input : request failed validation
//   - 401 unauthenticated : no identity, or invalid credentials
//   - 404 not_found : target missing or owned by another user
//   - 500 internal : anything else (logged, never echoed)
//
// # Authentication
//
// An [Authenticator] resolves the caller for the [Authenticate] middleware:
//   - [HeaderAuthenticator] trusts X-User-ID / X-User-Email, optionally gated by a shared X-API-Key
//   - [UserInfoAuthenticator] validates bearer tokens against the OAuth2 provider's userinfo endpoint
//
// The user row is ensured on every authenticated request.
//
// # OAuth Callback Handler
//
// [OAuthHandler] completes the OAuth2 authorization code flow for the CLI. It checks the state parameter, exchanges
// the code together with the PKCE verifier, and sends the result through a channel. Only the first callback is
// processed.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
