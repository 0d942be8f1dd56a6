// ABOUTME: Tests for login, register, logout, and whoami commands
// ABOUTME: Verifies output formatting, prompts, and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/markalston/keepnotes/internal/session"
)

func TestRunLogin_Success(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)

	var buf bytes.Buffer
	code := runLogin(context.Background(), a, &buf, "boss@example.com", "pw")

	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d (%s)", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Logged in as boss@example.com (admin)") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if !a.store.IsAdmin() {
		t.Error("expected the session to be stored with the admin role")
	}
}

func TestRunLogin_WrongPassword(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)

	var buf bytes.Buffer
	code := runLogin(context.Background(), a, &buf, "alice@example.com", "nope")

	if code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "Error:") {
		t.Errorf("expected an error line, got %q", buf.String())
	}
	if a.store.IsAuthenticated() {
		t.Error("expected no session after rejected credentials")
	}
}

func TestRunLogin_PromptsForMissingPassword(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)

	orig := promptCredentials
	defer func() { promptCredentials = orig }()
	var asked string
	promptCredentials = func(title string, email, password *string) error {
		asked = title
		*password = "pw"
		return nil
	}

	var buf bytes.Buffer
	if code := runLogin(context.Background(), a, &buf, "alice@example.com", ""); code != exitOK {
		t.Fatalf("expected exit code 0, got %d (%s)", code, buf.String())
	}
	if asked == "" {
		t.Error("expected the credential prompt to run")
	}
}

func TestRunLogin_JSON(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)
	setJSON(t)

	var buf bytes.Buffer
	if code := runLogin(context.Background(), a, &buf, "alice@example.com", "pw"); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["email"] != "alice@example.com" || parsed["role"] != "user" {
		t.Errorf("unexpected JSON: %v", parsed)
	}
}

func TestRunRegister_ThenLogin(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)

	var buf bytes.Buffer
	if code := runRegister(context.Background(), a, &buf, "carol@example.com", "pw", session.RoleUser); code != exitOK {
		t.Fatalf("expected exit code 0, got %d (%s)", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Registered carol@example.com") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if a.store.IsAuthenticated() {
		t.Error("expected register not to sign in")
	}

	buf.Reset()
	if code := runLogin(context.Background(), a, &buf, "carol@example.com", "pw"); code != exitOK {
		t.Errorf("expected login with the new account to succeed, got %d (%s)", code, buf.String())
	}
}

func TestRunRegister_ExistingAccount(t *testing.T) {
	api := newTestBackend(t)
	a := newTestApp(t, api.URL)

	var buf bytes.Buffer
	if code := runRegister(context.Background(), a, &buf, "alice@example.com", "pw", session.RoleUser); code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestRunLogout(t *testing.T) {
	api := newTestBackend(t)
	a := signedInApp(t, api, "alice@example.com", session.RoleUser)

	var buf bytes.Buffer
	if code := runLogout(a, &buf); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "Logged out alice@example.com") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if a.store.IsAuthenticated() {
		t.Error("expected the session to be cleared")
	}
	if len(api.Calls()) != 0 {
		t.Errorf("expected logout to be local only, got %v", api.Calls())
	}
}

func TestRunWhoami(t *testing.T) {
	api := newTestBackend(t)
	a := signedInApp(t, api, "boss@example.com", session.RoleAdmin)

	var buf bytes.Buffer
	if code := runWhoami(a, &buf); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	out := buf.String()
	if !strings.Contains(out, "boss@example.com") || !strings.Contains(out, "admin") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "Expires:") {
		t.Errorf("expected token expiry in output, got %q", out)
	}
}

func TestPasswordOrEnv(t *testing.T) {
	t.Setenv("KEEP_PASSWORD", "from-env")

	if got := passwordOrEnv("flag"); got != "flag" {
		t.Errorf("expected flag to win, got %q", got)
	}
	if got := passwordOrEnv(""); got != "from-env" {
		t.Errorf("expected env fallback, got %q", got)
	}
}
