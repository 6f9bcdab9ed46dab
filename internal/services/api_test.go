package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/studydesk/internal/models"
	"github.com/desertthunder/studydesk/internal/shared"
)

func writeResult[T any](w http.ResponseWriter, status int, result models.Result[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			srv := NewAPIService(APIOptions{})

			if srv.baseURL != "http://localhost:8080" {
				t.Errorf("expected default baseURL 'http://localhost:8080', got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			client := &http.Client{}
			srv := NewAPIService(APIOptions{BaseURL: "http://example.com", Client: client, RateLimit: 5})

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != client {
				t.Error("expected custom client to be used")
			}
			if srv.limiter.Limit() != 5 {
				t.Errorf("expected limit 5, got %v", srv.limiter.Limit())
			}
		})
	})

	t.Run("Refuses Anonymous Calls Without Traffic", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		gw := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways()
		ctx := context.Background()

		if _, err := gw.Notes.ListGroups(ctx, ""); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("ListGroups: expected ErrUnauthenticated, got %v", err)
		}
		if err := gw.Bookmarks.Delete(ctx, "", "b1"); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("Delete: expected ErrUnauthenticated, got %v", err)
		}
		if _, err := gw.Sessions.ListWithStreak(ctx, ""); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("ListWithStreak: expected ErrUnauthenticated, got %v", err)
		}
		if n := hits.Load(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("Sends Identity Headers", func(t *testing.T) {
		var got http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeResult(w, http.StatusOK, models.OK([]models.Bookmark{}))
		}))
		defer server.Close()

		id := models.Authenticated("u1", "u1@example.com")
		id.Name = "Una"
		srv := NewAPIService(APIOptions{
			BaseURL:     server.URL,
			APIKey:      "secret",
			Credentials: func() (models.Identity, string) { return id, "tok" },
		})

		if _, err := srv.Gateways().Bookmarks.List(context.Background(), "u1"); err != nil {
			t.Fatalf("List failed: %v", err)
		}

		want := map[string]string{
			HeaderUserID:    "u1",
			HeaderUserEmail: "u1@example.com",
			HeaderUserName:  "Una",
			HeaderAPIKey:    "secret",
			"Authorization": "Bearer tok",
		}
		for k, v := range want {
			if got.Get(k) != v {
				t.Errorf("header %s: expected %q, got %q", k, v, got.Get(k))
			}
		}
	})

	t.Run("Omits Credentials For Another User", func(t *testing.T) {
		var got http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeResult(w, http.StatusOK, models.OK([]models.Bookmark{}))
		}))
		defer server.Close()

		srv := NewAPIService(APIOptions{
			BaseURL:     server.URL,
			Credentials: func() (models.Identity, string) { return models.Authenticated("u2", "b@example.com"), "tok" },
		})

		if _, err := srv.Gateways().Bookmarks.List(context.Background(), "u1"); err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if got.Get("Authorization") != "" || got.Get(HeaderUserEmail) != "" {
			t.Errorf("expected no credentials for a different user, got %v", got)
		}
		if got.Get(HeaderUserID) != "u1" {
			t.Errorf("expected user header u1, got %q", got.Get(HeaderUserID))
		}
	})

	t.Run("Decodes Data", func(t *testing.T) {
		groups := []models.NoteGroup{{ID: "g1", Name: "Math", UserID: "u1", Notes: []models.Note{{ID: "n1", Title: "Limits", GroupID: "g1"}}}}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/groups" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			writeResult(w, http.StatusOK, models.OK(groups))
		}))
		defer server.Close()

		got, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Notes.ListGroups(context.Background(), "u1")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if diff := cmp.Diff(groups, got); diff != "" {
			t.Errorf("ListGroups mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Sends Request Bodies", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/api/notes/n%201" && r.URL.Path != "/api/notes/n 1" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			var req models.UpdateNoteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			writeResult(w, http.StatusOK, models.OK(models.Note{ID: req.ID, Title: req.Title, Content: req.Content, GroupID: "g1"}))
		}))
		defer server.Close()

		note, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Notes.UpdateNote(context.Background(), "u1", "n 1", "T", "C")
		if err != nil {
			t.Fatalf("UpdateNote failed: %v", err)
		}
		want := &models.Note{ID: "n 1", Title: "T", Content: "C", GroupID: "g1"}
		if diff := cmp.Diff(want, note); diff != "" {
			t.Errorf("UpdateNote mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Normalizes Empty Stats", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"minutesListened":0,"sessionsCompleted":0,"totalHours":0,"dayStreak":0,"longestStreak":0,"dailyStats":null,"sessions":null}}`))
		}))
		defer server.Close()

		summary, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Sessions.ListWithStreak(context.Background(), "u1")
		if err != nil {
			t.Fatalf("ListWithStreak failed: %v", err)
		}
		if summary.DailyStats == nil || summary.Sessions == nil {
			t.Errorf("expected empty slices, got %+v", summary)
		}
	})

	t.Run("Maps Failures", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{"invalid input", http.StatusBadRequest, `{"success":false,"code":"invalid_input","message":"name is required"}`, shared.ErrInvalidInput},
			{"unauthenticated", http.StatusUnauthorized, `{"success":false,"code":"unauthenticated","message":"sign in"}`, shared.ErrUnauthenticated},
			{"not found", http.StatusNotFound, `{"success":false,"code":"not_found","message":"gone"}`, shared.ErrNotFoundOrForbidden},
			{"internal", http.StatusInternalServerError, `{"success":false,"code":"internal","message":"boom"}`, shared.ErrRemoteUnavailable},
			{"proxy error page", http.StatusBadGateway, `<html>bad gateway</html>`, shared.ErrRemoteUnavailable},
			{"garbage success", http.StatusOK, `not json`, shared.ErrRemoteUnavailable},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Notes.DeleteNote(context.Background(), "u1", "n1")
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Reminders.List(context.Background(), "u1")
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
		if !IsRemoteFailure(err) {
			t.Error("expected IsRemoteFailure to be true")
		}
	})

	t.Run("Oversized Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"data":"`))
			w.Write(bytes.Repeat([]byte("x"), maxResponseBytes))
			w.Write([]byte(`"}`))
		}))
		defer server.Close()

		_, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Reminders.List(context.Background(), "u1")
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), "exceeds") {
			t.Errorf("expected a size error, got %v", err)
		}
	})

	t.Run("Deadline", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewAPIService(APIOptions{BaseURL: server.URL}).Gateways().Bookmarks.List(ctx, "u1")
		if !IsRemoteFailure(err) {
			t.Errorf("expected a remote failure, got %v", err)
		}
	})

	t.Run("Rate Limited Wait Honors Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeResult(w, http.StatusOK, models.OK([]models.Reminder{}))
		}))
		defer server.Close()

		gw := NewAPIService(APIOptions{BaseURL: server.URL, RateLimit: 0.001}).Gateways()
		if _, err := gw.Reminders.List(context.Background(), "u1"); err != nil {
			t.Fatalf("first call failed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := gw.Reminders.List(ctx, "u1"); !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable from limiter, got %v", err)
		}
	})

	t.Run("Health", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		if err := NewAPIService(APIOptions{BaseURL: server.URL}).Health(context.Background()); err != nil {
			t.Errorf("expected healthy server, got %v", err)
		}
		if err := NewAPIService(APIOptions{BaseURL: server.URL + "/nope"}).Health(context.Background()); !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})
}
