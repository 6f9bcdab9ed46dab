package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/studydesk/internal/cache"
	"github.com/desertthunder/studydesk/internal/identity"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
)

// State is the lifecycle of a reconciler's in-memory snapshot.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// View is a published snapshot. Data is a deep copy the caller may keep.
type View[S any] struct {
	State    State
	Identity models.Identity
	Data     S
	Err      error // set when the last load failed; Data is then empty
}

// Domain describes one data domain to a [Reconciler].
type Domain[S any] struct {
	Name  string
	Empty func() S
	Clone func(S) S
	Fetch func(ctx context.Context, userID string) (S, error)
}

// Options are the collaborators shared by every reconciler.
type Options struct {
	Observer identity.Observer
	Store    cache.Store
	Timeout  time.Duration // bound on each remote call; zero means no bound beyond the caller's context
	Logger   *log.Logger
}

// Mutation is one domain operation expressed for both tiers.
//
// Remote runs against the gateway and returns how to fold its result into memory. Local applies the operation to
// the anonymous snapshot directly.
type Mutation[S any] struct {
	Remote func(ctx context.Context, userID string) (apply func(S) S, err error)
	Local  func(S) (S, error)
}

// Reconciler owns one domain's in-memory snapshot and keeps it consistent with the authoritative tier.
type Reconciler[S any] struct {
	domain   Domain[S]
	observer identity.Observer
	store    cache.Store
	timeout  time.Duration
	logger   *log.Logger
	loads    singleflight.Group

	mu    sync.Mutex
	state State
	id    models.Identity
	data  S
	err   error
	epoch uint64
	lane  *sync.Mutex
}

// New creates a reconciler for domain.
func New[S any](domain Domain[S], opts Options) *Reconciler[S] {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Reconciler[S]{
		domain:   domain,
		observer: opts.Observer,
		store:    opts.Store,
		timeout:  opts.Timeout,
		logger:   shared.WithLogger(logger, "domain", domain.Name),
		data:     domain.Empty(),
		lane:     &sync.Mutex{},
	}
}

// Name returns the domain name.
func (r *Reconciler[S]) Name() string {
	return r.domain.Name
}

// View returns a copy of the current snapshot.
func (r *Reconciler[S]) View() View[S] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View[S]{State: r.state, Identity: r.id, Data: r.domain.Clone(r.data), Err: r.err}
}

// Err returns the error recorded by the last load, or nil.
func (r *Reconciler[S]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Load populates the snapshot for the current identity.
//
// Authenticated identities read the cache and fall back to the gateway; anonymous identities read only the cache.
// A failed load publishes an empty snapshot with [View.Err] set and returns the error. Concurrent loads within one
// epoch share a single execution.
func (r *Reconciler[S]) Load(ctx context.Context) error {
	r.mu.Lock()
	epoch := r.epoch
	r.mu.Unlock()

	_, err, _ := r.loads.Do(fmt.Sprint(epoch), func() (any, error) {
		return nil, r.load(ctx, epoch, false)
	})
	return err
}

// Refresh discards the cached snapshot and reloads from the authoritative tier.
//
// For anonymous identities the cache is the authoritative tier, so Refresh behaves like [Reconciler.Load].
func (r *Reconciler[S]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	epoch := r.epoch
	r.mu.Unlock()

	_, err, _ := r.loads.Do(fmt.Sprint(epoch)+":refresh", func() (any, error) {
		return nil, r.load(ctx, epoch, true)
	})
	return err
}

func (r *Reconciler[S]) load(ctx context.Context, epoch uint64, refresh bool) error {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return nil
	}
	lane := r.lane
	id := r.observer.Current()
	r.state = Loading
	r.mu.Unlock()

	lane.Lock()
	defer lane.Unlock()

	data, fromRemote, err := r.read(ctx, id, refresh)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epoch != epoch {
		r.logger.Debug("discarding stale load", "identity", id.String())
		return nil
	}

	r.id = id
	r.state = Ready
	if err != nil {
		r.data = r.domain.Empty()
		r.err = err
		r.logger.Warn("load failed", "identity", id.String(), "error", err)
		return err
	}

	if fromRemote {
		if err := cache.Write(r.store, r.domain.Name, id, data); err != nil {
			r.logger.Warn("failed to mirror load into cache", "error", err)
		}
	}

	r.data = data
	r.err = nil
	return nil
}

// read returns the snapshot for id and whether it came from the gateway.
func (r *Reconciler[S]) read(ctx context.Context, id models.Identity, refresh bool) (S, bool, error) {
	if !refresh || !id.IsAuthenticated() {
		data, ok, err := cache.Read[S](r.store, r.domain.Name, id)
		switch {
		case errors.Is(err, shared.ErrCacheCorrupt):
			r.logger.Warn("dropping corrupt cache entry", "identity", id.String(), "error", err)
			if err := cache.Drop(r.store, r.domain.Name, id); err != nil {
				r.logger.Warn("failed to drop corrupt cache entry", "error", err)
			}
		case err != nil && !id.IsAuthenticated():
			return r.domain.Empty(), false, fmt.Errorf("failed to read cache: %w", err)
		case err != nil:
			r.logger.Warn("cache read failed, using gateway", "error", err)
		case ok:
			r.logger.Debug("cache hit", "identity", id.String())
			return data, false, nil
		}
	}

	if !id.IsAuthenticated() {
		r.logger.Debug("cache miss", "identity", id.String())
		return r.domain.Empty(), false, nil
	}

	r.logger.Debug("fetching from gateway", "identity", id.String())
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.domain.Fetch(ctx, id.UserID)
	if err != nil {
		return r.domain.Empty(), false, remoteError(err)
	}
	return data, true, nil
}

// Mutate applies m to the authoritative tier, then to memory and the cache mirror.
//
// It fails with [shared.ErrNotLoaded] unless the snapshot is ready and its last load succeeded. A gateway failure
// leaves memory and cache untouched. A response that arrives after an identity transition is dropped.
func (r *Reconciler[S]) Mutate(ctx context.Context, m Mutation[S]) error {
	r.mu.Lock()
	epoch, lane := r.epoch, r.lane
	r.mu.Unlock()

	lane.Lock()
	defer lane.Unlock()

	r.mu.Lock()
	if r.epoch != epoch || r.state != Ready || r.err != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrNotLoaded, r.domain.Name)
	}
	id := r.id
	current := r.domain.Clone(r.data)
	r.mu.Unlock()

	var next S
	if id.IsAuthenticated() {
		rctx, cancel := r.withTimeout(ctx)
		apply, err := m.Remote(rctx, id.UserID)
		cancel()
		if err != nil {
			return remoteError(err)
		}
		next = apply(current)
	} else {
		var err error
		if next, err = m.Local(current); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epoch != epoch {
		r.logger.Debug("discarding stale mutation response", "identity", id.String())
		return nil
	}

	if err := cache.Write(r.store, r.domain.Name, id, next); err != nil {
		if !id.IsAuthenticated() {
			return fmt.Errorf("failed to save %s: %w", r.domain.Name, err)
		}
		r.logger.Warn("failed to mirror mutation into cache", "error", err)
		if err := cache.Drop(r.store, r.domain.Name, id); err != nil {
			r.logger.Warn("failed to drop stale cache entry", "error", err)
		}
	}

	r.data = next
	return nil
}

// OnIdentityTransition discards the snapshot for prev and loads it for next.
//
// When prev was authenticated its cache entry is removed; the anonymous entry always survives.
func (r *Reconciler[S]) OnIdentityTransition(ctx context.Context, prev, next models.Identity) error {
	r.mu.Lock()
	r.epoch++
	r.lane = &sync.Mutex{}
	r.state = Loading
	r.id = next
	r.data = r.domain.Empty()
	r.err = nil

	if prev.IsAuthenticated() && !prev.Same(next) {
		if err := cache.Drop(r.store, r.domain.Name, prev); err != nil {
			r.logger.Warn("failed to drop previous account cache", "identity", prev.String(), "error", err)
		}
	}
	r.mu.Unlock()

	r.logger.Info("identity transition", "from", prev.String(), "to", next.String())
	return r.Load(ctx)
}

func (r *Reconciler[S]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// remoteError folds timeouts into [shared.ErrRemoteUnavailable] and leaves gateway sentinels alone.
func remoteError(err error) error {
	if errors.Is(err, shared.ErrRemoteUnavailable) {
		return err
	}
	if services.IsRemoteFailure(err) {
		return fmt.Errorf("%w: %w", shared.ErrRemoteUnavailable, err)
	}
	return err
}
