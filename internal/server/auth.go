package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"maps"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/studydesk/internal/identity"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Authenticator resolves the caller's identity from a request.
//
// A request without credentials yields [models.Anonymous] and no error; invalid credentials yield
// [shared.ErrUnauthenticated].
type Authenticator interface {
	Authenticate(r *http.Request) (models.Identity, error)
}

// NewAuthenticator builds the authenticator selected by cfg.AuthMode.
func NewAuthenticator(cfg shared.Config) (Authenticator, error) {
	switch cfg.Server.AuthMode {
	case "", "header":
		return &HeaderAuthenticator{APIKey: cfg.Server.APIKey}, nil
	case "oauth":
		if cfg.Auth.UserInfoURL == "" {
			return nil, fmt.Errorf("%w: auth.userinfo_url is required for oauth mode", shared.ErrInvalidConfig)
		}
		return NewUserInfoAuthenticator(cfg.Auth.UserInfoURL, 5*time.Minute), nil
	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", shared.ErrInvalidConfig, cfg.Server.AuthMode)
	}
}

// CheckExposure rejects header mode without an api key unless addr is a loopback address. Any caller able to reach
// such a server could claim any user id.
func CheckExposure(cfg shared.Config, addr string) error {
	if mode := cfg.Server.AuthMode; mode != "" && mode != "header" || cfg.Server.APIKey != "" {
		return nil
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: listen address %q: %w", shared.ErrInvalidConfig, addr, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: header auth needs server.api_key to listen on %q; set a key or bind to 127.0.0.1",
		shared.ErrInvalidConfig, addr)
}

// HeaderAuthenticator trusts identity headers set by the client or a fronting proxy.
//
// When APIKey is set, requests must also present it in the X-API-Key header.
type HeaderAuthenticator struct {
	APIKey string
}

func (a *HeaderAuthenticator) Authenticate(r *http.Request) (models.Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(services.HeaderUserID))
	if userID == "" {
		return models.Anonymous, nil
	}

	if a.APIKey != "" {
		key := r.Header.Get(services.HeaderAPIKey)
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.APIKey)) != 1 {
			return models.Anonymous, fmt.Errorf("%w: invalid api key", shared.ErrUnauthenticated)
		}
	}

	id := models.Authenticated(userID, r.Header.Get(services.HeaderUserEmail))
	id.Name = r.Header.Get(services.HeaderUserName)
	return id, nil
}

// UserInfoAuthenticator validates bearer tokens against an OAuth2 userinfo endpoint.
//
// Successful lookups are remembered for ttl; concurrent lookups of one token share a single request, which is not
// tied to any one caller's context.
type UserInfoAuthenticator struct {
	url     string
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	mu      sync.Mutex
	seen    map[string]cachedIdentity
	now     func() time.Time
}

type cachedIdentity struct {
	id      models.Identity
	expires time.Time
}

// NewUserInfoAuthenticator creates an authenticator for the given userinfo endpoint.
func NewUserInfoAuthenticator(userInfoURL string, ttl time.Duration) *UserInfoAuthenticator {
	return &UserInfoAuthenticator{
		url:     userInfoURL,
		ttl:     ttl,
		timeout: 10 * time.Second,
		seen:    map[string]cachedIdentity{},
		now:     time.Now,
	}
}

func (a *UserInfoAuthenticator) Authenticate(r *http.Request) (models.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Anonymous, nil
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return models.Anonymous, fmt.Errorf("%w: malformed authorization header", shared.ErrUnauthenticated)
	}

	a.mu.Lock()
	if c, ok := a.seen[token]; ok && a.now().Before(c.expires) {
		a.mu.Unlock()
		return c.id, nil
	}
	a.mu.Unlock()

	v, err, _ := a.group.Do(token, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), a.timeout)
		defer cancel()
		return identity.FetchIdentity(ctx, a.url, &oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	})
	if err != nil {
		return models.Anonymous, fmt.Errorf("%w: %w", shared.ErrUnauthenticated, err)
	}

	id := v.(models.Identity)
	a.mu.Lock()
	now := a.now()
	maps.DeleteFunc(a.seen, func(_ string, c cachedIdentity) bool { return !now.Before(c.expires) })
	a.seen[token] = cachedIdentity{id: id, expires: now.Add(a.ttl)}
	a.mu.Unlock()

	return id, nil
}
