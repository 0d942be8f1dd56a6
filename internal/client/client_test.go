// ABOUTME: Tests for the Keep Notes API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/markalston/keepnotes/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T, token string) *session.Store {
	t.Helper()
	s := session.New(session.NewMemoryStorage())
	require.NoError(t, s.Set(token, &session.User{Email: "a@example.com", Role: session.RoleUser}))
	return s
}

func TestDo_AttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notes", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, signedIn(t, "tok-123"))
	var out []map[string]any
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/notes", nil, &out))
	assert.Empty(t, out)
}

func TestDo_NoTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"message":"Registered successfully"}`))
	}))
	defer server.Close()

	c := New(server.URL, session.New(session.NewMemoryStorage()))
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/register", map[string]string{"email": "a@example.com"}, nil))
}

func TestDo_SendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "groceries", got["title"])
		w.Write([]byte(`{"id":"n1","title":"groceries"}`))
	}))
	defer server.Close()

	c := New(server.URL, signedIn(t, "tok"))
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/notes", map[string]string{"title": "groceries"}, &out))
	assert.Equal(t, "n1", out.ID)
}

func TestDo_UnauthorizedClearsSessionBeforeReturning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer server.Close()

	storage := session.NewMemoryStorage()
	store := session.New(storage)
	require.NoError(t, store.Set("stale", &session.User{Role: session.RoleAdmin}))

	navigated := false
	c := New(server.URL, store, WithUnauthorizedHandler(func() {
		assert.False(t, store.IsAuthenticated(), "session must be cleared before navigation")
		navigated = true
	}))

	err := c.Do(context.Background(), http.MethodGet, "/notes", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, navigated)
	assert.False(t, store.IsAuthenticated())
	_, ok, _ := storage.Get(session.TokenKey)
	assert.False(t, ok, "token must be removed from storage")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid token", apiErr.Message)
	assert.Equal(t, "/notes", apiErr.Path)
}

func TestDo_NonAuthErrorsKeepSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Access denied: Admins only"}`))
	}))
	defer server.Close()

	store := signedIn(t, "tok")
	c := New(server.URL, store, WithUnauthorizedHandler(func() {
		t.Error("403 must not trigger the unauthorized handler")
	}))

	err := c.Do(context.Background(), http.MethodGet, "/admin/all-notes", nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, store.IsAuthenticated())
}

func TestDo_NotFoundCarriesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found"}`))
	}))
	defer server.Close()

	c := New(server.URL, signedIn(t, "tok"))
	err := c.Do(context.Background(), http.MethodDelete, "/notes/abc", nil, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Contains(t, err.Error(), "Not found")
}

func TestDo_ErrorBodyShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"fastapi string detail", `{"detail":"User exists"}`, "User exists"},
		{"fastapi validation list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "email: value is not a valid email address"},
		{"error field", `{"error":"boom"}`, "boom"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"not json", `<html>bad gateway</html>`, "Bad Request"},
		{"empty", ``, "Bad Request"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c := New(server.URL, nil)
			err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestDo_UnprocessableIsValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","items"],"msg":"field required"}]}`))
	}))
	defer server.Close()

	c := New(server.URL, signedIn(t, "tok"))
	err := c.Do(context.Background(), http.MethodPost, "/notes", map[string]string{}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDo_ConnectionError(t *testing.T) {
	c := New("http://localhost:99999", nil)
	err := c.Do(context.Background(), http.MethodGet, "/notes", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "cannot connect to backend")
}

func TestDo_ClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, nil, WithTimeout(20*time.Millisecond))
	err := c.Do(context.Background(), http.MethodGet, "/notes", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, "request timed out", err.Error())
}

func TestDo_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, http.MethodGet, "/notes", nil, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := c.Do(ctx, http.MethodGet, "/notes", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "request canceled", err.Error())
	assert.NotErrorIs(t, err, ErrTransient)
}

func TestDo_NoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL, nil)
	err := c.Do(context.Background(), http.MethodGet, "/notes", nil, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))
	defer server.Close()

	c := New(server.URL, nil)
	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/notes", nil, &out)
	assert.ErrorContains(t, err, "invalid response from backend")
}

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		json.NewEncoder(w).Encode(HealthResponse{Message: "FastAPI backend running"})
	}))
	defer server.Close()

	c := New(server.URL+"/", nil)
	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FastAPI backend running", resp.Message)
}

func TestHealth_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}))
	defer server.Close()

	c := New(server.URL, nil)
	_, err := c.Health(context.Background())
	assert.ErrorContains(t, err, "internal error")
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "title", Reason: "required"}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "title: required", err.Error())
	assert.Equal(t, 0, StatusCode(err))
}

func TestDo_AnonymousUnauthorizedDoesNotNavigate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer server.Close()

	store := session.New(session.NewMemoryStorage())
	c := New(server.URL, store, WithUnauthorizedHandler(func() {
		t.Error("a rejected login must not trigger the unauthorized handler")
	}))

	err := c.Do(context.Background(), http.MethodPost, "/login", map[string]string{"email": "a@example.com"}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
