// ABOUTME: Tests for the login, registration, and logout flows
// ABOUTME: Runs against the in-memory fake backend

package auth

import (
	"context"
	"testing"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/markalston/keepnotes/internal/fakeapi"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *session.Store, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)

	store := session.New(session.NewMemoryStorage())
	require.NoError(t, store.Restore())
	return New(client.New(api.URL, store)), store, api
}

func TestLogin_StoresTokenAndRoleFromClaims(t *testing.T) {
	svc, store, api := newService(t)
	id := api.AddUser("boss@example.com", "secret", "admin")

	user, err := svc.Login(context.Background(), " boss@example.com ", "secret")
	require.NoError(t, err)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, "boss@example.com", user.Email)
	assert.Equal(t, session.RoleAdmin, user.Role)
	assert.True(t, store.IsAuthenticated())
	assert.True(t, store.IsAdmin())
	assert.NotEmpty(t, store.Token())
}

func TestLogin_PrefersUserRecordFromResponse(t *testing.T) {
	svc, store, api := newService(t)
	api.LoginReturnsUser = true
	id := api.AddUser("a@example.com", "pw", "user")

	user, err := svc.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, session.RoleUser, store.Role())
}

func TestLogin_WrongPasswordIsAuthenticationError(t *testing.T) {
	svc, store, api := newService(t)
	api.AddUser("a@example.com", "pw", "user")

	_, err := svc.Login(context.Background(), "a@example.com", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrAuthentication)
	assert.NotErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_ValidatesLocally(t *testing.T) {
	svc, _, api := newService(t)

	tests := []struct {
		email, password string
	}{
		{"", "pw"},
		{"not-an-email", "pw"},
		{"a@example.com", ""},
	}
	for _, tc := range tests {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		assert.ErrorIs(t, err, client.ErrValidation)
	}
	assert.Empty(t, api.Calls())
}

func TestRegister_ThenLogin(t *testing.T) {
	svc, store, _ := newService(t)

	require.NoError(t, svc.Register(context.Background(), "new@example.com", "pw", session.RoleUser))
	assert.False(t, store.IsAuthenticated(), "registering does not sign in")

	user, err := svc.Login(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, user.Role)
}

func TestRegister_DefaultRoleIsUser(t *testing.T) {
	svc, _, _ := newService(t)

	require.NoError(t, svc.Register(context.Background(), "plain@example.com", "pw", ""))
	user, err := svc.Login(context.Background(), "plain@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, user.Role)
}

func TestRegister_ExistingAccount(t *testing.T) {
	svc, _, api := newService(t)
	api.AddUser("a@example.com", "pw", "user")

	err := svc.Register(context.Background(), "a@example.com", "pw", session.RoleUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User exists")
}

func TestRegister_RejectsUnknownRole(t *testing.T) {
	svc, _, api := newService(t)

	err := svc.Register(context.Background(), "a@example.com", "pw", session.Role("root"))
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Empty(t, api.Calls())
}

func TestLogout_ClearsSession(t *testing.T) {
	svc, store, api := newService(t)
	api.AddUser("a@example.com", "pw", "user")
	_, err := svc.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.User())
}

func TestResolveUser_UnreadableTokenFallsBack(t *testing.T) {
	u := resolveUser(loginResponse{AccessToken: "opaque"}, "a@example.com")
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, session.RoleUser, u.Role)
}
