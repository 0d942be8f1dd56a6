// ABOUTME: Shared fixtures for command tests
// ABOUTME: Builds an app over an in-memory session and the fake backend

package cmd

import (
	"io"
	"testing"
	"time"

	"github.com/markalston/keepnotes/internal/config"
	"github.com/markalston/keepnotes/internal/fakeapi"
	"github.com/markalston/keepnotes/internal/session"
)

func newTestBackend(t *testing.T) *fakeapi.Server {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)
	api.AddUser("alice@example.com", "pw", "user")
	api.AddUser("boss@example.com", "pw", "admin")
	return api
}

func newTestApp(t *testing.T, baseURL string) *app {
	t.Helper()
	cfg := &config.Config{
		APIURL:    baseURL,
		Timeout:   2 * time.Second,
		ConfigDir: t.TempDir(),
		LogLevel:  "error",
		LogFormat: "text",
	}
	a, err := newApp(cfg, session.NewMemoryStorage(), io.Discard)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	return a
}

func signedInApp(t *testing.T, api *fakeapi.Server, email string, role session.Role) *app {
	t.Helper()
	a := newTestApp(t, api.URL)
	if err := a.store.Set(api.TokenFor(email), &session.User{Email: email, Role: role}); err != nil {
		t.Fatalf("failed to set session: %v", err)
	}
	return a
}

// setJSON turns on --json for the rest of the test
func setJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}

// stubConfirm answers every confirmation with answer and counts the asks
func stubConfirm(t *testing.T, answer bool) *int {
	t.Helper()
	asked := 0
	orig := confirm
	confirm = func(string) (bool, error) {
		asked++
		return answer, nil
	}
	t.Cleanup(func() { confirm = orig })
	return &asked
}
