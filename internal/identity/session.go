// Package identity tracks who is signed in and notifies subscribers when that changes.
//
// [Session] is the client's [Observer]. It persists the current identity and its OAuth2 token in the local cache
// store so separate CLI invocations agree on who is signed in, and delivers exactly one notification per change,
// in the order the changes were made.
package identity

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studydesk/internal/cache"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"golang.org/x/oauth2"
)

const sessionKey = "identity:session"

// Listener receives identity transitions.
type Listener func(prev, next models.Identity)

// Observer exposes the current identity and its transitions.
type Observer interface {
	Current() models.Identity                   // Current returns the identity in effect right now
	Subscribe(fn Listener) (unsubscribe func()) // Subscribe registers fn for every subsequent transition
}

type persisted struct {
	Identity models.Identity `json:"identity"`
	Token    *oauth2.Token   `json:"token,omitempty"`
}

// Session is the persisted [Observer] implementation.
//
// Listeners run synchronously on the goroutine that changed the identity and must not call SignIn or SignOut.
type Session struct {
	mu        sync.Mutex
	notify    sync.Mutex
	store     cache.Store
	logger    *log.Logger
	current   models.Identity
	token     *oauth2.Token
	listeners map[int]Listener
	nextID    int
}

var _ Observer = (*Session)(nil)

// NewSession restores the identity persisted in store. A nil store keeps the session in memory only.
func NewSession(store cache.Store, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Session{
		store:     store,
		logger:    shared.WithLogger(logger, "component", "identity"),
		listeners: make(map[int]Listener),
	}

	if store == nil {
		return s, nil
	}

	raw, ok, err := store.Get(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return s, nil
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		if err := store.Remove(sessionKey); err != nil {
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		return s, nil
	}

	s.current = p.Identity
	s.token = p.Token
	return s, nil
}

// Current returns the signed-in identity, or [models.Anonymous].
func (s *Session) Current() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the OAuth2 token of the signed-in identity, if any.
func (s *Session) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn and returns a function that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SignIn makes id the current identity. Signing in as the identity that is already current refreshes the
// stored profile and token without notifying listeners.
func (s *Session) SignIn(id models.Identity, token *oauth2.Token) error {
	if !id.IsAuthenticated() {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidArgument)
	}
	return s.set(id, token)
}

// SignOut returns to the anonymous identity.
func (s *Session) SignOut() error {
	return s.set(models.Anonymous, nil)
}

func (s *Session) set(next models.Identity, token *oauth2.Token) error {
	s.notify.Lock()
	defer s.notify.Unlock()

	if err := s.persist(next, token); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.token = token
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if prev.Same(next) {
		return nil
	}

	s.logger.Info("identity changed", "from", prev.String(), "to", next.String())
	for _, fn := range listeners {
		fn(prev, next)
	}
	return nil
}

func (s *Session) persist(id models.Identity, token *oauth2.Token) error {
	if s.store == nil {
		return nil
	}

	if !id.IsAuthenticated() {
		if err := s.store.Remove(sessionKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(persisted{Identity: id, Token: token})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.store.Set(sessionKey, raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
