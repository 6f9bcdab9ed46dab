package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/studydesk/internal/cache"
	"github.com/desertthunder/studydesk/internal/server"
	"github.com/desertthunder/studydesk/internal/shared"
	tu "github.com/desertthunder/studydesk/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := cache.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.configSet {
				t.Error("expected an injected config to skip loading")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with empty configPath", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "",
			})

			if runner.configPath != "" {
				t.Errorf("expected empty configPath, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		names := map[string]bool{}
		for _, cmd := range NewRunner(RunnerOpts{}).register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "serve", "auth", "notes", "bookmarks", "reminders", "stats", "backup", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

var fixedNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func testConfig(gatewayURL string) *shared.Config {
	config := shared.DefaultConfig()
	config.Gateway.URL = gatewayURL
	config.Stats.Timezone = "UTC"
	config.Stats.PomodoroMinutes = 25
	config.Stats.BreakMinutes = 5
	return config
}

// run executes one CLI invocation with a fresh runner over store and returns its output.
func run(t *testing.T, config *shared.Config, store cache.Store, args ...string) (string, error) {
	t.Helper()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Store:  store,
		Now:    func() time.Time { return fixedNow },
	})
	defer runner.Close()

	err := newApp(runner).Run(context.Background(), append([]string{"studydesk"}, args...))
	return output.String(), err
}

func mustRun(t *testing.T, config *shared.Config, store cache.Store, args ...string) string {
	t.Helper()
	out, err := run(t, config, store, args...)
	if err != nil {
		t.Fatalf("studydesk %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func newGatewayServer(t *testing.T) (*httptest.Server, *tu.Backend) {
	t.Helper()

	backend := tu.NewBackend(t, func() time.Time { return fixedNow })
	router := server.NewGatewayRouter(backend.Gateways, backend.Repos.Users, &server.HeaderAuthenticator{},
		shared.NewLogger(io.Discard))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, backend
}

func TestCommands(t *testing.T) {
	t.Run("anonymous data persists across invocations", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		store := cache.NewMemoryStore()

		out := mustRun(t, config, store, "bookmarks", "add", "--title", "Go", "https://go.dev")
		if !strings.Contains(out, "✓ Saved Go") {
			t.Errorf("unexpected add output %q", out)
		}

		out = mustRun(t, config, store, "bm", "list")
		if !strings.Contains(out, "https://go.dev") {
			t.Errorf("expected the bookmark to be listed, got %q", out)
		}
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		store := cache.NewMemoryStore()

		if _, err := run(t, config, store, "bookmarks", "add", "not-a-url"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := run(t, config, store, "reminders", "add", "--date", "03/12", "--note", "exam"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for a bad date, got %v", err)
		}
		if _, err := run(t, config, store, "stats", "record", "--task", ":10"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for an untitled task, got %v", err)
		}
	})

	t.Run("serve refuses an open address without an api key", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		config.Server.AuthMode = "header"
		config.Server.APIKey = ""
		config.Database.Path = filepath.Join(t.TempDir(), "studydesk.db")

		if _, err := run(t, config, cache.NewMemoryStore(), "serve", "--addr", "0.0.0.0:0"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("notes round trip and export", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		store := cache.NewMemoryStore()

		mustRun(t, config, store, "notes", "add-group", "Biology")

		out := mustRun(t, config, store, "notes", "list", "--json")
		start := strings.Index(out, `"id": "`) + len(`"id": "`)
		groupID := out[start : start+strings.Index(out[start:], `"`)]

		mustRun(t, config, store, "notes", "add", "--group", groupID, "--title", "Cells", "--content", "Mitochondria")

		dir := t.TempDir()
		path := filepath.Join(dir, "biology.md")
		mustRun(t, config, store, "notes", "export", "--output", path)

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		for _, want := range []string{"## Biology", "### Cells", "Mitochondria"} {
			if !strings.Contains(content, want) {
				t.Errorf("export missing %q:\n%s", want, content)
			}
		}
	})

	t.Run("backup writes every domain", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		store := cache.NewMemoryStore()
		dir := filepath.Join(t.TempDir(), "backup")

		mustRun(t, config, store, "bookmarks", "add", "https://go.dev")
		out := mustRun(t, config, store, "backup", "--output", dir)
		if !strings.Contains(out, "✓ Backed up 4 of 4 domains") {
			t.Errorf("unexpected backup output %q", out)
		}
		for _, name := range []string{"notes.md", "bookmarks.csv", "reminders.json", "stats.txt", "manifest.json"} {
			tu.AssertFileExists(t, filepath.Join(dir, name))
		}
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "bookmarks.csv")), "https://go.dev") {
			t.Error("expected the bookmark in the backup")
		}
	})

	t.Run("stats record uses configured pomodoro lengths", func(t *testing.T) {
		config := testConfig("http://127.0.0.1:1")
		store := cache.NewMemoryStore()

		out := mustRun(t, config, store, "stats", "record", "--pomodoros", "2", "--task", "Read chapter 3:30")
		if !strings.Contains(out, "50m of focus, 1 task(s). Day streak: 1") {
			t.Errorf("unexpected record output %q", out)
		}

		out = mustRun(t, config, store, "stats", "show")
		for _, want := range []string{"Minutes studied: 55", "Sessions: 1", "Day streak: 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("stats output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("signing in switches to the gateway and signing out restores local data", func(t *testing.T) {
		srv, backend := newGatewayServer(t)
		config := testConfig(srv.URL)
		store := cache.NewMemoryStore()

		mustRun(t, config, store, "bookmarks", "add", "--title", "Local", "https://example.com/local")

		out := mustRun(t, config, store, "auth", "login", "--user", "alice", "--email", "alice@example.com")
		if !strings.Contains(out, "✓ Signed in as alice <alice@example.com>") {
			t.Errorf("unexpected login output %q", out)
		}
		if strings.Contains(out, "not loaded") {
			t.Errorf("expected every domain to load, got %q", out)
		}

		out = mustRun(t, config, store, "bookmarks", "list")
		if !strings.Contains(out, "No bookmarks saved.") {
			t.Errorf("expected alice to start empty, got %q", out)
		}

		mustRun(t, config, store, "bookmarks", "add", "--title", "Go", "https://go.dev")
		remote, err := backend.Gateways.Bookmarks.List(context.Background(), "alice")
		if err != nil {
			t.Fatalf("failed to list remote bookmarks: %v", err)
		}
		if len(remote) != 1 || remote[0].URL != "https://go.dev" {
			t.Errorf("expected the bookmark on the gateway, got %+v", remote)
		}

		out = mustRun(t, config, store, "auth", "status")
		if !strings.Contains(out, "Gateway status: ✓ healthy") {
			t.Errorf("unexpected status output %q", out)
		}

		out = mustRun(t, config, store, "auth", "logout")
		if !strings.Contains(out, "✓ Signed out of alice") {
			t.Errorf("unexpected logout output %q", out)
		}

		out = mustRun(t, config, store, "bookmarks", "list")
		if !strings.Contains(out, "Local") || strings.Contains(out, "go.dev") {
			t.Errorf("expected only the local bookmark after sign-out, got %q", out)
		}
	})

	t.Run("status reports an unreachable gateway", func(t *testing.T) {
		srv, _ := newGatewayServer(t)
		config := testConfig(srv.URL)
		srv.Close()

		out := mustRun(t, config, cache.NewMemoryStore(), "auth", "status")
		if !strings.Contains(out, "Identity: anonymous") || !strings.Contains(out, "✗ unreachable") {
			t.Errorf("unexpected status output %q", out)
		}
	})
}

func TestParseTasks(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []string
		minutes []int
		wantErr bool
	}{
		{name: "title only", raw: []string{"Read"}, want: []string{"Read"}, minutes: []int{0}},
		{name: "title with estimate", raw: []string{"Read: 30"}, want: []string{"Read"}, minutes: []int{30}},
		{name: "colon in title", raw: []string{"Ch 3: cells:15"}, want: []string{"Ch 3: cells"}, minutes: []int{15}},
		{name: "non-numeric suffix stays in title", raw: []string{"Ratio 3:x"}, want: []string{"Ratio 3:x"}, minutes: []int{0}},
		{name: "blank title", raw: []string{" :5"}, wantErr: true},
		{name: "negative estimate", raw: []string{"Read:-5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTasks(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, task := range got {
				if task.Title != tt.want[i] || task.EstimatedTime != tt.minutes[i] {
					t.Errorf("task %d = %+v, want %q/%d", i, task, tt.want[i], tt.minutes[i])
				}
			}
		})
	}
}

func TestNoteContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatalf("failed to write note file: %v", err)
	}

	config := testConfig("http://127.0.0.1:1")
	store := cache.NewMemoryStore()
	mustRun(t, config, store, "notes", "add-group", "Biology")
	out := mustRun(t, config, store, "notes", "list", "--json", "--pretty=false")
	start := strings.Index(out, `"id":"`) + len(`"id":"`)
	groupID := out[start : start+strings.Index(out[start:], `"`)]

	mustRun(t, config, store, "notes", "add", "-g", groupID, "-t", "Cells", "--file", path)
	out = mustRun(t, config, store, "notes", "list", "--json", "--pretty=false")
	if !strings.Contains(out, `"content":"from file"`) {
		t.Errorf("expected file content, got %s", out)
	}

	start = strings.Index(out, `"notes":[{"id":"`) + len(`"notes":[{"id":"`)
	noteID := out[start : start+strings.Index(out[start:], `"`)]
	mustRun(t, config, store, "notes", "edit", "--title", "Cell biology", noteID)
	out = mustRun(t, config, store, "notes", "list", "--json", "--pretty=false")
	if !strings.Contains(out, `"title":"Cell biology","content":"from file"`) {
		t.Errorf("expected the title to change and the content to stay, got %s", out)
	}
}
