package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/session"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	tu "github.com/nguyentayninh0710/mpx/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner builds a Runner wired to the given backend handler, with the
// database in a temp directory and output captured in the returned buffer.
func newTestRunner(t *testing.T, handler http.Handler) (*Runner, *bytes.Buffer) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = server.URL
	config.Database.Path = filepath.Join(t.TempDir(), "mpx.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	t.Cleanup(func() { runner.Close() })

	return runner, output
}

// runCLI executes the full command tree so flag and argument parsing is
// exercised the same way it is from the shell.
func runCLI(r *Runner, args ...string) error {
	app := &cli.Command{Name: "mpx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"mpx"}, args...))
}

func grantJSON(access, refresh string, ttl time.Duration) []byte {
	now := time.Now()
	data, _ := json.Marshal(map[string]any{
		"token_type":         "bearer",
		"access_token":       access,
		"access_expires_at":  now.Add(ttl).Unix(),
		"refresh_token":      refresh,
		"refresh_expires_at": now.Add(24 * time.Hour).Unix(),
	})
	return data
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewMusicPlayerService("http://localhost:1", httpClient)
			raw := services.NewAPIService("http://localhost:1", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Raw:        raw,
			})

			if runner.config != config {
				t.Error("expected config to be set")
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
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.raw != raw {
				t.Error("expected raw to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient builds one from config timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient == nil {
				t.Fatal("expected default httpClient to be set")
			}
			if runner.httpClient.Timeout != runner.config.API.Timeout() {
				t.Errorf("expected timeout %v, got %v", runner.config.API.Timeout(), runner.httpClient.Timeout)
			}
		})

		t.Run("with nil services builds clients from config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.api == nil {
				t.Error("expected api client to be set")
			}
			if runner.raw == nil {
				t.Error("expected raw client to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)

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

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

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

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

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
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "songs", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores the token pair", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			json.NewDecoder(req.Body).Decode(&body)
			if body["identifier"] != "alice" || body["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Invalid credentials"}`))
				return
			}
			w.Write(grantJSON("acc-1", "ref-1", time.Hour))
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "auth", "login", "--password", "pw", "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "✓ Signed in as alice") {
			t.Errorf("expected login confirmation, got %q", output.String())
		}

		guard, err := runner.session()
		if err != nil {
			t.Fatalf("failed to open session: %v", err)
		}
		pair, err := guard.Store().Tokens()
		if err != nil {
			t.Fatalf("failed to read tokens: %v", err)
		}
		if pair.AccessToken != "acc-1" {
			t.Errorf("expected access token acc-1, got %q", pair.AccessToken)
		}
		if pair.RefreshToken != "ref-1" {
			t.Errorf("expected refresh token ref-1, got %q", pair.RefreshToken)
		}
	})

	t.Run("login with remember disabled drops the refresh leg", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, req *http.Request) {
			w.Write(grantJSON("acc-1", "ref-1", time.Hour))
		})

		runner, _ := newTestRunner(t, mux)

		if err := runCLI(runner, "auth", "login", "--password", "pw", "--remember=false", "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		guard, _ := runner.session()
		pair, _ := guard.Store().Tokens()
		if pair.AccessToken != "acc-1" {
			t.Errorf("expected access token stored, got %q", pair.AccessToken)
		}
		if pair.RefreshToken != "" {
			t.Errorf("expected no refresh token, got %q", pair.RefreshToken)
		}
	})

	t.Run("login with bad credentials surfaces auth failure", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid credentials"}`))
		})

		runner, _ := newTestRunner(t, mux)

		err := runCLI(runner, "auth", "login", "--password", "wrong", "alice")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("login without identifier fails fast", func(t *testing.T) {
		runner, _ := newTestRunner(t, http.NewServeMux())

		err := runCLI(runner, "auth", "login", "--password", "pw")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("whoami serves the cached profile without network", func(t *testing.T) {
		var hits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		runner, output := newTestRunner(t, mux)

		guard, err := runner.session()
		if err != nil {
			t.Fatalf("failed to open session: %v", err)
		}
		profile := json.RawMessage(`{"user_id": 7, "username": "alice", "email": "a@example.com"}`)
		if err := guard.Store().SaveProfile(profile, time.Now()); err != nil {
			t.Fatalf("failed to seed profile: %v", err)
		}

		if err := runCLI(runner, "auth", "whoami"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if hits.Load() != 0 {
			t.Errorf("expected no network calls, got %d", hits.Load())
		}
		if !strings.Contains(output.String(), "alice") {
			t.Errorf("expected username in output, got %q", output.String())
		}
	})

	t.Run("whoami --refresh fetches and caches a fresh profile", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer acc-1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Not authenticated"}`))
				return
			}
			w.Write([]byte(`{"user_id": 7, "username": "alice"}`))
		})

		runner, output := newTestRunner(t, mux)

		guard, _ := runner.session()
		err := guard.Store().SaveTokens(session.TokenPair{
			AccessToken:     "acc-1",
			AccessExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		if err != nil {
			t.Fatalf("failed to seed tokens: %v", err)
		}

		if err := runCLI(runner, "auth", "whoami", "--refresh"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "alice") {
			t.Errorf("expected username in output, got %q", output.String())
		}
		if _, ok, _ := guard.Store().Profile(); !ok {
			t.Error("expected profile to be cached after fetch")
		}
	})

	t.Run("whoami without a session reports not authenticated", func(t *testing.T) {
		runner, output := newTestRunner(t, http.NewServeMux())

		err := runCLI(runner, "auth", "whoami")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !strings.Contains(output.String(), "✗ Session expired") {
			t.Errorf("expected redirect message, got %q", output.String())
		}
	})

	t.Run("status reports token validity without network", func(t *testing.T) {
		var hits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
			hits.Add(1)
		})

		runner, output := newTestRunner(t, mux)

		guard, _ := runner.session()
		guard.Store().SaveTokens(session.TokenPair{
			AccessToken:      "acc-1",
			AccessExpiresAt:  time.Now().Add(time.Hour).Unix(),
			RefreshToken:     "ref-1",
			RefreshExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		})

		if err := runCLI(runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if hits.Load() != 0 {
			t.Errorf("expected no network calls, got %d", hits.Load())
		}
		if !strings.Contains(output.String(), "✓ Access token valid") {
			t.Errorf("expected access validity line, got %q", output.String())
		}
		if !strings.Contains(output.String(), "✓ Refresh token valid") {
			t.Errorf("expected refresh validity line, got %q", output.String())
		}
	})

	t.Run("status with empty store reports signed out", func(t *testing.T) {
		runner, output := newTestRunner(t, http.NewServeMux())

		if err := runCLI(runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✗ Not signed in") {
			t.Errorf("expected signed-out message, got %q", output.String())
		}
	})

	t.Run("logout revokes server-side and clears the store", func(t *testing.T) {
		var revoked atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") == "Bearer acc-1" {
				revoked.Add(1)
			}
			w.Write([]byte(`{"detail": "Logged out"}`))
		})

		runner, output := newTestRunner(t, mux)

		guard, _ := runner.session()
		guard.Store().SaveTokens(session.TokenPair{
			AccessToken:      "acc-1",
			AccessExpiresAt:  time.Now().Add(time.Hour).Unix(),
			RefreshToken:     "ref-1",
			RefreshExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		})

		if err := runCLI(runner, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if revoked.Load() != 1 {
			t.Errorf("expected one revocation call, got %d", revoked.Load())
		}
		pair, _ := guard.Store().Tokens()
		if pair.AccessToken != "" || pair.RefreshToken != "" {
			t.Error("expected session to be cleared")
		}
		if !strings.Contains(output.String(), "✓ Signed out") {
			t.Errorf("expected logout confirmation, got %q", output.String())
		}
	})

	t.Run("signup prints the created account", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"user_id": 12, "username": "bob"}`))
		})

		runner, output := newTestRunner(t, mux)

		err := runCLI(runner, "auth", "signup", "--username", "bob", "--password", "pw")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Account created: bob (id 12)") {
			t.Errorf("expected signup confirmation, got %q", output.String())
		}
	})

	t.Run("signup conflict surfaces as account conflict", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"detail": "Username already exists"}`))
		})

		runner, _ := newTestRunner(t, mux)

		err := runCLI(runner, "auth", "signup", "--username", "bob", "--password", "pw")
		if !errors.Is(err, shared.ErrAccountConflict) {
			t.Errorf("expected ErrAccountConflict, got %v", err)
		}
	})
}

func TestSongsCommands(t *testing.T) {
	catalogue := []map[string]any{
		{"song_id": 1, "title": "First Song", "genre": "Pop", "duration": "00:03:10"},
		{"song_id": 2, "title": "Second Song", "genre": "Rock", "duration": "00:04:01",
			"spotify_preview_url": "https://p.scdn.co/preview/2"},
	}

	t.Run("list prints a song table", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			json.NewEncoder(w).Encode(catalogue)
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "First Song") || !strings.Contains(result, "Second Song") {
			t.Errorf("expected both songs in output, got %q", result)
		}
		if !strings.Contains(result, "2 songs") {
			t.Errorf("expected count line, got %q", result)
		}
	})

	t.Run("list keeps long multibyte titles intact and aligned", func(t *testing.T) {
		longTitle := strings.Repeat("a", 38) + "ến xa đường chân trời"
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			json.NewEncoder(w).Encode([]map[string]any{
				{"song_id": 1, "title": longTitle, "genre": "Ballad", "duration": "00:03:10"},
				{"song_id": 2, "title": "Ngắn", "genre": "Pop", "duration": "00:02:30"},
			})
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !utf8.ValidString(result) {
			t.Errorf("expected valid UTF-8 output, got %q", result)
		}
		if !strings.Contains(result, "…") {
			t.Error("expected long title to be truncated with ellipsis")
		}
		if !strings.Contains(result, "Ngắn") {
			t.Errorf("expected short multibyte title verbatim, got %q", result)
		}
		// both rows must place the duration column at the same offset
		var durationCols []int
		for _, line := range strings.Split(result, "\n") {
			if idx := strings.Index(line, "00:0"); idx >= 0 {
				durationCols = append(durationCols, runewidth.StringWidth(line[:idx]))
			}
		}
		if len(durationCols) != 2 || durationCols[0] != durationCols[1] {
			t.Errorf("expected aligned duration columns, got %v", durationCols)
		}
	})

	t.Run("list forwards filters as query parameters", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			if q.Get("genre") != "Pop" || q.Get("has_preview") != "1" || q.Get("sort") != "title_asc" {
				t.Errorf("unexpected query: %s", req.URL.RawQuery)
			}
			json.NewEncoder(w).Encode([]map[string]any{})
		})

		runner, output := newTestRunner(t, mux)

		err := runCLI(runner, "songs", "list", "--genre", "Pop", "--has-preview", "--sort", "title_asc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No songs found") {
			t.Errorf("expected empty message, got %q", output.String())
		}
	})

	t.Run("list --json emits the raw array", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			json.NewEncoder(w).Encode(catalogue)
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
			t.Fatalf("expected valid JSON output, got %v", err)
		}
		if len(decoded) != 2 {
			t.Errorf("expected 2 songs, got %d", len(decoded))
		}
	})

	t.Run("get shows a single song", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs/2", func(w http.ResponseWriter, req *http.Request) {
			json.NewEncoder(w).Encode(catalogue[1])
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "get", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Second Song (id 2)") {
			t.Errorf("expected song detail, got %q", output.String())
		}
	})

	t.Run("get with unknown id surfaces not found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Song not found"}`))
		})

		runner, _ := newTestRunner(t, mux)

		err := runCLI(runner, "songs", "get", "999")
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("get with non-numeric id fails fast", func(t *testing.T) {
		runner, _ := newTestRunner(t, http.NewServeMux())

		err := runCLI(runner, "songs", "get", "abc")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("sync mirrors the catalogue into the cache", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("page") == "1" {
				json.NewEncoder(w).Encode(catalogue)
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{})
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "sync", "--page-size", "10", "--rate", "0"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Sync complete: 2 songs") {
			t.Errorf("expected sync summary, got %q", output.String())
		}

		// cached list must now serve both rows without the server
		output.Reset()
		if err := runCLI(runner, "songs", "list", "--cached"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "2 songs") {
			t.Errorf("expected cached rows, got %q", output.String())
		}
	})

	t.Run("cached list filters by title", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("page") == "1" {
				json.NewEncoder(w).Encode(catalogue)
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{})
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "sync", "--rate", "0"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		output.Reset()
		if err := runCLI(runner, "songs", "list", "--cached", "--title", "Second"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Second Song") {
			t.Errorf("expected matching title, got %q", result)
		}
		if strings.Contains(result, "First Song") {
			t.Errorf("expected non-matching title to be filtered out, got %q", result)
		}
		if !strings.Contains(result, "1 songs") {
			t.Errorf("expected single row, got %q", result)
		}
	})

	t.Run("export writes the cached catalogue to a file", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("page") == "1" {
				json.NewEncoder(w).Encode(catalogue)
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{})
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "songs", "sync", "--rate", "0"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		exportPath := filepath.Join(t.TempDir(), "catalogue.csv")
		if err := runCLI(runner, "songs", "export", "--format", "csv", "--output", exportPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Exported 2 songs") {
			t.Errorf("expected export summary, got %q", output.String())
		}

		data := tu.MustReadFile(t, exportPath)
		if !strings.Contains(data, "First Song") {
			t.Errorf("expected exported rows, got %q", data)
		}
	})

	t.Run("export with empty cache suggests syncing", func(t *testing.T) {
		runner, output := newTestRunner(t, http.NewServeMux())

		if err := runCLI(runner, "songs", "export"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Nothing to export") {
			t.Errorf("expected empty-cache message, got %q", output.String())
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get prints raw JSON", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "ok"}`))
		})

		runner, output := newTestRunner(t, mux)

		if err := runCLI(runner, "api", "get", "/health"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"status": "ok"`) {
			t.Errorf("expected JSON output, got %q", output.String())
		}
	})

	t.Run("get with --auth attaches a refreshed bearer token", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, req *http.Request) {
			w.Write(grantJSON("acc-2", "ref-2", time.Hour))
		})
		mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer acc-2" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Not authenticated"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"username": "alice"}`))
		})

		runner, output := newTestRunner(t, mux)

		// expired access leg with a live refresh leg forces a silent refresh
		guard, _ := runner.session()
		guard.Store().SaveTokens(session.TokenPair{
			AccessToken:      "stale",
			AccessExpiresAt:  time.Now().Add(-time.Minute).Unix(),
			RefreshToken:     "ref-1",
			RefreshExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		})

		if err := runCLI(runner, "api", "get", "--auth", "/api/me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "alice") {
			t.Errorf("expected profile JSON, got %q", output.String())
		}
	})

	t.Run("post sends the JSON body", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /echo", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.Copy(w, req.Body)
		})

		runner, output := newTestRunner(t, mux)

		err := runCLI(runner, "api", "post", "--data", `{"ping": true}`, "/echo")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "ping") {
			t.Errorf("expected echoed body, got %q", output.String())
		}
	})
}
