package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/studydesk/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>studydesk: {{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f4f1ea; }
        .card { text-align: center; background: white; padding: 2rem;
                border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{if .Failed}}#cc241d{{else}}#7c6f64{{end}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type callbackView struct {
	Title   string
	Message string
	Failed  bool
}

// OAuthHandler handles the identity provider's redirect during `auth login`.
//
// The flow uses PKCE: the verifier given to [NewOAuthHandler] must be the one whose S256 challenge was sent with
// the authorization request.
type OAuthHandler struct {
	config   *oauth2.Config
	state    string
	verifier string
	path     string
	results  chan OAuthResult
	once     sync.Once
	mu       sync.Mutex
	handled  bool
}

// NewOAuthHandler creates a callback handler for one authorization attempt. state should be random; see
// [shared.GenerateState]. An empty verifier disables PKCE.
//
// The callback path is taken from config.RedirectURL and defaults to /callback.
func NewOAuthHandler(config *oauth2.Config, state, verifier string) *OAuthHandler {
	path := "/callback"
	if u, err := url.Parse(config.RedirectURL); err == nil && u.Path != "" {
		path = u.Path
	}

	return &OAuthHandler{
		config:   config,
		state:    state,
		verifier: verifier,
		path:     path,
		results:  make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + h.path}
}

// ServeHTTP handles the OAuth callback request. Only the first request is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		h.render(w, http.StatusBadRequest, callbackView{Title: "Already handled", Message: "This sign-in link was already used.", Failed: true})
		return
	}
	h.handled = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest,
			fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description")))
		return
	}

	var opts []oauth2.AuthCodeOption
	if h.verifier != "" {
		opts = append(opts, oauth2.VerifierOption(h.verifier))
	}
	token, err := h.config.Exchange(r.Context(), code, opts...)
	if err != nil {
		h.fail(w, http.StatusBadGateway, fmt.Errorf("%w: token exchange: %w", shared.ErrAuthFailed, err))
		return
	}

	h.Send(OAuthResult{Token: token})
	h.render(w, http.StatusOK, callbackView{
		Title:   "Signed in",
		Message: "Your notes and stats will sync with your account. You can close this tab.",
	})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{err: err})
	h.render(w, status, callbackView{Title: "Sign-in failed", Message: err.Error(), Failed: true})
}

func (h *OAuthHandler) render(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, view)
}

// Send delivers the result. Only the first call has any effect.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
