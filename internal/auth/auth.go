// ABOUTME: Login, registration, and logout flows against the Keep Notes API
// ABOUTME: A successful login stores the token and user in the session store

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/markalston/keepnotes/internal/session"
)

// Service runs the account flows for one session store
type Service struct {
	client *client.Client
	store  *session.Store
}

// New creates a service using c and storing results in c's session
func New(c *client.Client) *Service {
	return &Service{client: c, store: c.Session()}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *session.User `json:"user"`
}

// Login exchanges email and password for a token and stores it. Rejected
// credentials return an error matching client.ErrAuthentication.
func (s *Service) Login(ctx context.Context, email, password string) (*session.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	var resp loginResponse
	err := s.client.Do(ctx, http.MethodPost, "/login", credentials{Email: email, Password: password}, &resp)
	if err != nil {
		if isRejected(err) {
			return nil, fmt.Errorf("%w: %s", client.ErrAuthentication, rejectionMessage(err))
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, errors.New("login failed: backend returned no access token")
	}

	user := resolveUser(resp, email)
	if err := s.store.Set(resp.AccessToken, user); err != nil {
		return nil, err
	}
	slog.Info("Logged in", "email", user.Email, "role", user.Role)
	return user, nil
}

// resolveUser prefers the user record in the response and fills gaps from
// the token's claims. The role falls back to user when neither names one.
func resolveUser(resp loginResponse, email string) *session.User {
	user := &session.User{}
	if resp.User != nil {
		*user = *resp.User
	}
	if claims, err := session.ParseClaims(resp.AccessToken); err == nil {
		if user.ID == "" {
			user.ID = claims.UserID
		}
		if user.Email == "" {
			user.Email = claims.Email
		}
		if user.Role == "" {
			user.Role = session.Role(claims.Role)
		}
	} else {
		slog.Debug("Access token claims unreadable", "error", err)
	}
	if user.Email == "" {
		user.Email = email
	}
	if !user.Role.Valid() {
		user.Role = session.RoleUser
	}
	return user
}

// Register creates an account. The session is not changed; log in afterwards.
func (s *Service) Register(ctx context.Context, email, password string, role session.Role) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	if role != "" && !role.Valid() {
		return &client.ValidationError{Field: "role", Reason: fmt.Sprintf("must be %q or %q", session.RoleUser, session.RoleAdmin)}
	}

	in := credentials{Email: email, Password: password, Role: string(role)}
	if err := s.client.Do(ctx, http.MethodPost, "/register", in, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	slog.Info("Registered account", "email", email, "role", role)
	return nil
}

// Logout forgets the session locally. The backend keeps no session state.
func (s *Service) Logout() error {
	return s.store.Clear()
}

func validateCredentials(email, password string) error {
	if email == "" {
		return &client.ValidationError{Field: "email", Reason: "required"}
	}
	if !strings.Contains(email, "@") {
		return &client.ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if password == "" {
		return &client.ValidationError{Field: "password", Reason: "required"}
	}
	return nil
}

// rejectionMessage keeps the backend's wording but drops the status, so a
// rejected login never matches client.ErrUnauthorized
func rejectionMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "invalid credentials"
}

func isRejected(err error) bool {
	switch client.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
