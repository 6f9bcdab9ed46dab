package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/desertthunder/studydesk/internal/identity"
	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/server"
	"github.com/desertthunder/studydesk/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin signs in as --user, or runs the OAuth2 authorization code flow when no user is given.
//
// Every domain reloads for the new identity before the command returns; data saved while signed out stays in the
// local cache and is not uploaded.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	c, err := r.open(cmd)
	if err != nil {
		return err
	}

	var (
		next  models.Identity
		token *oauth2.Token
	)
	if user := cmd.String("user"); user != "" {
		next = models.Identity{UserID: user, Email: cmd.String("email"), Name: cmd.String("name")}
	} else {
		if !r.config.Auth.Configured() {
			return fmt.Errorf("%w: pass --user or set auth.client_id, auth_url, token_url and userinfo_url in config.toml",
				shared.ErrMissingArgument)
		}
		if token, err = r.doOAuth(ctx, identity.OAuthConfig(r.config.Auth)); err != nil {
			return err
		}
		if next, err = identity.FetchIdentity(ctx, r.config.Auth.UserInfoURL, token); err != nil {
			return err
		}
	}

	if c.session.Current().Same(next) && c.session.Current().IsAuthenticated() {
		return r.writePlain("Already signed in as %s\n", next)
	}

	stop := c.ws.Watch(ctx)
	defer stop()

	r.logger.Info("signing in", "user", next.UserID)
	if err := c.session.SignIn(next, token); err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", next)
	return r.writeSyncState(c)
}

// AuthLogout signs out. Anything saved before signing in is visible again.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	c, err := r.open(cmd)
	if err != nil {
		return err
	}

	prev := c.session.Current()
	if !prev.IsAuthenticated() {
		return r.writePlain("Not signed in\n")
	}

	stop := c.ws.Watch(ctx)
	defer stop()

	if err := c.session.SignOut(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out of %s\n", prev)
}

// AuthStatus prints the current identity and whether the gateway is reachable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	c, err := r.open(cmd)
	if err != nil {
		return err
	}

	r.writePlainHeader("studydesk status")

	current := c.session.Current()
	if current.IsAuthenticated() {
		r.writePlain("Identity: ✓ %s\n", current)
		if token := c.session.Token(); token != nil && !token.Expiry.IsZero() {
			r.writePlain("Token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
		}
	} else {
		r.writePlain("Identity: anonymous (data stays on this device)\n")
	}

	r.writePlain("Gateway: %s\n", r.config.Gateway.URL)
	if err := c.api.Health(ctx); err != nil {
		r.logger.Debug("health check failed", "error", err)
		return r.writePlain("Gateway status: ✗ unreachable\n")
	}
	return r.writePlain("Gateway status: ✓ healthy\n")
}

// writeSyncState reports domains that could not be loaded for the new identity.
func (r *Runner) writeSyncState(c *client) error {
	for _, d := range c.ws.Domains() {
		if err := d.Err(); err != nil {
			r.writePlain("⚠ %s not loaded: %v\n", d.Name(), err)
		}
	}
	return nil
}

// doOAuth starts a local callback server, opens the browser for authorization, and exchanges the returned code for
// a token.
func (r *Runner) doOAuth(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	redirect, err := url.Parse(config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: auth.redirect_uri %q must be an absolute URL", shared.ErrInvalidConfig, config.RedirectURL)
	}

	verifier := oauth2.GenerateVerifier()
	oauthHandler := server.NewOAuthHandler(config, state, verifier)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the OAuth callback: %w", err)
	}

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	callback := server.New(redirect.Host, router, shared.WithLogger(r.logger, "component", "oauth"))
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- callback.Serve(serverCtx, ln)
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	r.writePlain("→ Opening browser to sign in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stopServer()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if err := result.Error(); err != nil {
		return nil, err
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
