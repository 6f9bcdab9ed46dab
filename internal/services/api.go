// API service for talking to the studydesk gateway server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

// Header names understood by the gateway server.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderAPIKey    = "X-API-Key"
)

// maxResponseBytes caps how much of a gateway response is read.
const maxResponseBytes = 8 << 20

var (
	_ NotesGateway     = apiNotes{}
	_ BookmarksGateway = apiBookmarks{}
	_ RemindersGateway = apiReminders{}
	_ SessionsGateway  = apiSessions{}
)

// Credentials reports the signed-in identity and its bearer token, if any.
type Credentials func() (models.Identity, string)

// APIOptions configures an [APIService].
type APIOptions struct {
	BaseURL     string
	Client      *http.Client
	RateLimit   float64 // requests per second; zero or less disables limiting
	APIKey      string
	Credentials Credentials
}

// APIService implements the gateway interfaces over the gateway server's HTTP API.
type APIService struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	apiKey      string
	credentials Credentials
}

// NewAPIService creates a new API service instance for the gateway server.
func NewAPIService(opts APIOptions) *APIService {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &APIService{
		baseURL:     opts.BaseURL,
		httpClient:  opts.Client,
		limiter:     rate.NewLimiter(limit, 1),
		apiKey:      opts.APIKey,
		credentials: opts.Credentials,
	}
}

// Gateways returns the service as one gateway per domain.
func (a *APIService) Gateways() Gateways {
	return Gateways{Notes: apiNotes{a}, Bookmarks: apiBookmarks{a}, Reminders: apiReminders{a}, Sessions: apiSessions{a}}
}

// Health reports whether the server is reachable.
func (a *APIService) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	}
	return nil
}

// do sends body as JSON on behalf of userID and decodes the envelope's data into result.
func (a *APIService) do(ctx context.Context, userID, method, path string, body, result any) error {
	if userID == "" {
		return shared.ErrUnauthenticated
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRemoteUnavailable, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	a.authorize(req, userID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrRemoteUnavailable, err)
	}
	if len(raw) > maxResponseBytes {
		return fmt.Errorf("%w: response exceeds %d bytes", shared.ErrRemoteUnavailable, maxResponseBytes)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("%w: failed to decode response (status %d): %w", shared.ErrRemoteUnavailable, resp.StatusCode, err)
	}

	if !envelope.Success {
		return resultError(resp.StatusCode, envelope.Code, envelope.Message)
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (a *APIService) authorize(req *http.Request, userID string) {
	req.Header.Set(HeaderUserID, userID)
	if a.apiKey != "" {
		req.Header.Set(HeaderAPIKey, a.apiKey)
	}
	if a.credentials == nil {
		return
	}

	id, token := a.credentials()
	if id.UserID != userID {
		return
	}
	if id.Email != "" {
		req.Header.Set(HeaderUserEmail, id.Email)
	}
	if id.Name != "" {
		req.Header.Set(HeaderUserName, id.Name)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// resultError maps a failed envelope to a sentinel error.
func resultError(status int, code, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	switch code {
	case models.CodeInvalidInput:
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, message)
	case models.CodeUnauthenticated:
		return fmt.Errorf("%w: %s", shared.ErrUnauthenticated, message)
	case models.CodeNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFoundOrForbidden, message)
	default:
		return fmt.Errorf("%w: %s (status %d)", shared.ErrRemoteUnavailable, message, status)
	}
}

// IsRemoteFailure reports whether err came from the transport or the server rather than the request itself.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, shared.ErrRemoteUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, shared.ErrTimeout)
}

func itemPath(collection, id string) string {
	return "/api/" + collection + "/" + url.PathEscape(id)
}

type apiNotes struct{ a *APIService }

func (n apiNotes) ListGroups(ctx context.Context, userID string) ([]models.NoteGroup, error) {
	groups := []models.NoteGroup{}
	if err := n.a.do(ctx, userID, http.MethodGet, "/api/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (n apiNotes) CreateGroup(ctx context.Context, userID, name string) (*models.NoteGroup, error) {
	var group models.NoteGroup
	if err := n.a.do(ctx, userID, http.MethodPost, "/api/groups", models.CreateGroupRequest{Name: name}, &group); err != nil {
		return nil, err
	}
	if group.Notes == nil {
		group.Notes = []models.Note{}
	}
	return &group, nil
}

func (n apiNotes) CreateNote(ctx context.Context, userID, groupID, title, content string) (*models.Note, error) {
	var note models.Note
	body := models.CreateNoteRequest{GroupID: groupID, Title: title, Content: content}
	if err := n.a.do(ctx, userID, http.MethodPost, "/api/notes", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (n apiNotes) UpdateNote(ctx context.Context, userID, id, title, content string) (*models.Note, error) {
	var note models.Note
	body := models.UpdateNoteRequest{ID: id, Title: title, Content: content}
	if err := n.a.do(ctx, userID, http.MethodPut, itemPath("notes", id), body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (n apiNotes) DeleteGroup(ctx context.Context, userID, id string) error {
	return n.a.do(ctx, userID, http.MethodDelete, itemPath("groups", id), nil, nil)
}

func (n apiNotes) DeleteNote(ctx context.Context, userID, id string) error {
	return n.a.do(ctx, userID, http.MethodDelete, itemPath("notes", id), nil, nil)
}

type apiBookmarks struct{ a *APIService }

func (b apiBookmarks) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	if err := b.a.do(ctx, userID, http.MethodGet, "/api/bookmarks", nil, &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func (b apiBookmarks) Create(ctx context.Context, userID, title, link string) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	body := models.CreateBookmarkRequest{Title: title, URL: link}
	if err := b.a.do(ctx, userID, http.MethodPost, "/api/bookmarks", body, &bookmark); err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (b apiBookmarks) Delete(ctx context.Context, userID, id string) error {
	return b.a.do(ctx, userID, http.MethodDelete, itemPath("bookmarks", id), nil, nil)
}

type apiReminders struct{ a *APIService }

func (r apiReminders) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	reminders := []models.Reminder{}
	if err := r.a.do(ctx, userID, http.MethodGet, "/api/reminders", nil, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r apiReminders) Create(ctx context.Context, userID string, date time.Time, note string) (*models.Reminder, error) {
	var reminder models.Reminder
	body := models.CreateReminderRequest{Date: date, Note: note}
	if err := r.a.do(ctx, userID, http.MethodPost, "/api/reminders", body, &reminder); err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r apiReminders) Delete(ctx context.Context, userID, id string) error {
	return r.a.do(ctx, userID, http.MethodDelete, itemPath("reminders", id), nil, nil)
}

type apiSessions struct{ a *APIService }

func (s apiSessions) Create(ctx context.Context, userID string, req models.RecordSessionRequest) (*models.StudySession, error) {
	var session models.StudySession
	if err := s.a.do(ctx, userID, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s apiSessions) ListWithStreak(ctx context.Context, userID string) (models.StudyStats, error) {
	var summary models.StudyStats
	if err := s.a.do(ctx, userID, http.MethodGet, "/api/sessions", nil, &summary); err != nil {
		return models.StudyStats{}, err
	}
	if summary.DailyStats == nil {
		summary.DailyStats = []models.DailyStat{}
	}
	if summary.Sessions == nil {
		summary.Sessions = []models.StudySession{}
	}
	return summary, nil
}
