package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthConfig builds the authorization code flow configuration for the identity provider.
func OAuthConfig(cfg shared.AuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}
}

// userInfo covers the OpenID Connect "sub" claim and providers that use a numeric "id" instead.
type userInfo struct {
	Sub   string      `json:"sub"`
	ID    json.Number `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Login string      `json:"login"`
}

// FetchIdentity resolves the identity behind token by calling the provider's userinfo endpoint.
func FetchIdentity(ctx context.Context, userInfoURL string, token *oauth2.Token) (models.Identity, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return fetchIdentity(ctx, client, userInfoURL)
}

func fetchIdentity(ctx context.Context, client *http.Client, userInfoURL string) (models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return models.Anonymous, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return models.Anonymous, fmt.Errorf("%w: userinfo request failed: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return models.Anonymous, fmt.Errorf("%w: userinfo returned %d", shared.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Anonymous, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var info userInfo
	if err := dec.Decode(&info); err != nil {
		return models.Anonymous, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	id := info.Sub
	if id == "" {
		id = info.ID.String()
	}
	if id == "" {
		return models.Anonymous, fmt.Errorf("%w: userinfo has no subject", shared.ErrAuthFailed)
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return models.Identity{UserID: id, Email: info.Email, Name: name}, nil
}
