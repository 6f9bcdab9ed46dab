package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studydesk/internal/cache"
	"github.com/desertthunder/studydesk/internal/identity"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/reconciler"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/desertthunder/studydesk/internal/stats"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	configSet  bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	store      cache.Store
	now        func() time.Time
	local      *client
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag before any command runs. A nil Store opens the bbolt cache at
// cache.path, or an in-memory store with --ephemeral.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      cache.Store
	Now        func() time.Time
}

// client is the local half of the app: the signed-in identity, the cache and one reconciler per domain.
type client struct {
	store   cache.Store
	session *identity.Session
	api     *services.APIService
	agg     *stats.Aggregator
	ws      *reconciler.Workspace
	close   func() error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configSet := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configSet:  configSet,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, notesCommand, bookmarksCommand, remindersCommand, statsCommand, backupCommand,
		tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// before loads the configuration named by --config unless one was injected, and applies --debug.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configSet {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	config, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.configSet = true
	return ctx, nil
}

// open builds the local client on first use: the cache store, the persisted identity and a workspace over the
// gateway API.
func (r *Runner) open(cmd *cli.Command) (*client, error) {
	if r.local != nil {
		return r.local, nil
	}

	loc, err := r.config.Stats.Location()
	if err != nil {
		return nil, err
	}

	store, closeStore := r.store, func() error { return nil }
	if store == nil {
		if cmd.Bool("ephemeral") {
			store = cache.NewMemoryStore()
		} else {
			bolt, err := cache.OpenBolt(r.config.Cache.Path)
			if err != nil {
				return nil, err
			}
			store, closeStore = bolt, bolt.Close
		}
	}

	session, err := identity.NewSession(store, shared.WithLogger(r.logger, "component", "identity"))
	if err != nil {
		closeStore()
		return nil, err
	}

	api := services.NewAPIService(services.APIOptions{
		BaseURL:   r.config.Gateway.URL,
		Client:    r.httpClient,
		RateLimit: r.config.Gateway.RateLimit,
		APIKey:    r.config.Gateway.APIKey,
		Credentials: func() (models.Identity, string) {
			if token := session.Token(); token != nil {
				return session.Current(), token.AccessToken
			}
			return session.Current(), ""
		},
	})

	agg := stats.New(loc)
	ws := reconciler.NewWorkspace(api.Gateways(), reconciler.Options{
		Observer: session,
		Store:    store,
		Timeout:  r.config.Gateway.Timeout(),
		Logger:   r.logger,
	}, agg, r.now)

	r.local = &client{store: store, session: session, api: api, agg: agg, ws: ws, close: closeStore}
	return r.local, nil
}

// workspace opens the client and loads every domain for the current identity.
//
// A gateway failure is not fatal here: the affected domain is left empty with its error recorded, and mutations on
// it fail with [shared.ErrNotLoaded].
func (r *Runner) workspace(ctx context.Context, cmd *cli.Command) (*client, error) {
	c, err := r.open(cmd)
	if err != nil {
		return nil, err
	}
	if err := c.ws.LoadAll(ctx); err != nil {
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			return nil, err
		}
		r.logger.Warn("gateway unavailable, showing what could be loaded", "error", err)
	}
	return c, nil
}

// Close releases the cache store.
func (r *Runner) Close() error {
	if r.local == nil {
		return nil
	}
	err := r.local.close()
	r.local = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
