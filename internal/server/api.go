package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/repositories"
	"github.com/desertthunder/studydesk/internal/services"
	"github.com/desertthunder/studydesk/internal/shared"
)

var _ Handler = (*APIHandler)(nil)

// APIHandler serves the data API over a set of gateways.
//
// Every route requires an authenticated identity (placed in the context by [Authenticate]); the caller's user
// row is ensured before the gateway is called.
type APIHandler struct {
	gateways services.Gateways
	users    *repositories.UserRepository
	logger   *log.Logger
	mux      *http.ServeMux
}

type identityHandler func(w http.ResponseWriter, r *http.Request, id models.Identity)

// NewAPIHandler creates the data API handler.
func NewAPIHandler(gateways services.Gateways, users *repositories.UserRepository, logger *log.Logger) *APIHandler {
	h := &APIHandler{gateways: gateways, users: users, logger: logger, mux: http.NewServeMux()}

	routes := map[string]identityHandler{
		"GET /api/groups":            h.listGroups,
		"POST /api/groups":           h.createGroup,
		"DELETE /api/groups/{id}":    h.deleteGroup,
		"POST /api/notes":            h.createNote,
		"PUT /api/notes/{id}":        h.updateNote,
		"DELETE /api/notes/{id}":     h.deleteNote,
		"GET /api/bookmarks":         h.listBookmarks,
		"POST /api/bookmarks":        h.createBookmark,
		"DELETE /api/bookmarks/{id}": h.deleteBookmark,
		"GET /api/reminders":         h.listReminders,
		"POST /api/reminders":        h.createReminder,
		"DELETE /api/reminders/{id}": h.deleteReminder,
		"GET /api/sessions":          h.listSessions,
		"POST /api/sessions":         h.createSession,
	}
	for pattern, fn := range routes {
		h.mux.Handle(pattern, h.authenticated(fn))
	}

	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"/api/"}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *APIHandler) authenticated(fn identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r.Context())
		if !id.IsAuthenticated() {
			writeError(w, h.logger, shared.ErrUnauthenticated)
			return
		}

		if _, err := h.users.Ensure(id); err != nil {
			writeError(w, h.logger, err)
			return
		}

		fn(w, r, id)
	})
}

func (h *APIHandler) listGroups(w http.ResponseWriter, r *http.Request, id models.Identity) {
	groups, err := h.gateways.Notes.ListGroups(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, groups)
}

func (h *APIHandler) createGroup(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.CreateGroupRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	group, err := h.gateways.Notes.CreateGroup(r.Context(), id.UserID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, group)
}

func (h *APIHandler) deleteGroup(w http.ResponseWriter, r *http.Request, id models.Identity) {
	if err := h.gateways.Notes.DeleteGroup(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK[any](w, nil)
}

func (h *APIHandler) createNote(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.CreateNoteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	note, err := h.gateways.Notes.CreateNote(r.Context(), id.UserID, req.GroupID, req.Title, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, note)
}

func (h *APIHandler) updateNote(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.UpdateNoteRequest
	req.ID = r.PathValue("id")
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.ID = r.PathValue("id")

	note, err := h.gateways.Notes.UpdateNote(r.Context(), id.UserID, req.ID, req.Title, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, note)
}

func (h *APIHandler) deleteNote(w http.ResponseWriter, r *http.Request, id models.Identity) {
	if err := h.gateways.Notes.DeleteNote(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK[any](w, nil)
}

func (h *APIHandler) listBookmarks(w http.ResponseWriter, r *http.Request, id models.Identity) {
	bookmarks, err := h.gateways.Bookmarks.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, bookmarks)
}

func (h *APIHandler) createBookmark(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.CreateBookmarkRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	bookmark, err := h.gateways.Bookmarks.Create(r.Context(), id.UserID, req.Title, req.URL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, bookmark)
}

func (h *APIHandler) deleteBookmark(w http.ResponseWriter, r *http.Request, id models.Identity) {
	if err := h.gateways.Bookmarks.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK[any](w, nil)
}

func (h *APIHandler) listReminders(w http.ResponseWriter, r *http.Request, id models.Identity) {
	reminders, err := h.gateways.Reminders.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, reminders)
}

func (h *APIHandler) createReminder(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.CreateReminderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	reminder, err := h.gateways.Reminders.Create(r.Context(), id.UserID, req.Date, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, reminder)
}

func (h *APIHandler) deleteReminder(w http.ResponseWriter, r *http.Request, id models.Identity) {
	if err := h.gateways.Reminders.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK[any](w, nil)
}

func (h *APIHandler) listSessions(w http.ResponseWriter, r *http.Request, id models.Identity) {
	summary, err := h.gateways.Sessions.ListWithStreak(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, summary)
}

func (h *APIHandler) createSession(w http.ResponseWriter, r *http.Request, id models.Identity) {
	var req models.RecordSessionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.gateways.Sessions.Create(r.Context(), id.UserID, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, session)
}

// HealthHandler reports liveness and whether the caller was authenticated.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"authenticated": IdentityFrom(r.Context()).IsAuthenticated(),
		})
	})
}

// NewGatewayRouter wires the health check and data API behind logging, recovery and authentication.
func NewGatewayRouter(gateways services.Gateways, users *repositories.UserRepository, auth Authenticator, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger), Authenticate(auth, logger))
	router.Handle(http.MethodGet, "/health", HealthHandler())
	router.Handler(NewAPIHandler(gateways, users, logger))
	return router
}
