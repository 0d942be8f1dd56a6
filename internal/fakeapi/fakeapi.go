// ABOUTME: In-memory Keep Notes backend served over httptest
// ABOUTME: Test tooling only; mirrors the real API's routes, auth, and error shapes

package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Account is a registered user as the admin endpoints return it
type Account struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	password string
}

// Item mirrors a checklist item on the wire
type Item struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Note mirrors a note on the wire
type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Items     []Item `json:"items"`
	Color     string `json:"color"`
	Pinned    bool   `json:"pinned"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// Server is a running fake backend. Its URL is the base address (no /api/v1).
type Server struct {
	*httptest.Server

	// LoginReturnsUser adds a user record to the login response alongside
	// access_token, as some backend versions do
	LoginReturnsUser bool

	mu     sync.Mutex
	secret []byte
	users  []*Account
	notes  []*Note
	calls  []string
}

// New starts a fake backend; stop it with Close
func New() *Server {
	s := &Server{secret: []byte(uuid.NewString())}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /api/v1/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/notes", s.authed(s.handleListNotes))
	mux.HandleFunc("POST /api/v1/notes", s.authed(s.handleCreateNote))
	mux.HandleFunc("PATCH /api/v1/notes/{id}", s.authed(s.handleUpdateNote))
	mux.HandleFunc("DELETE /api/v1/notes/{id}", s.authed(s.handleDeleteNote))
	mux.HandleFunc("GET /api/v1/admin/all-notes", s.admin(s.handleAllNotes))
	mux.HandleFunc("GET /api/v1/admin/users", s.admin(s.handleListUsers))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}", s.admin(s.handleDeleteUser))
	mux.HandleFunc("DELETE /api/v1/admin/notes/{id}", s.admin(s.handleAdminDeleteNote))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// AddUser registers an account directly and returns its id
func (s *Server) AddUser(email, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &Account{ID: uuid.NewString(), Email: email, Role: role, password: password}
	s.users = append(s.users, a)
	return a.ID
}

// TokenFor issues a valid access token for email
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.issue(u)
		}
	}
	return ""
}

// RevokeAll rotates the signing key so every issued token gets 401
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = []byte(uuid.NewString())
}

// Calls returns "METHOD /path" for every request served so far
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

// CallCount counts requests matching method and path
func (s *Server) CallCount(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

// NoteCount returns the number of stored notes across all users
func (s *Server) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issue(u *Account) string {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: signing token: %v", err))
	}
	return token
}

type accountHandler func(w http.ResponseWriter, r *http.Request, caller *Account)

// authed resolves the bearer token to an account or answers 401
func (s *Server) authed(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, _ := tok.Claims.(jwt.MapClaims)
		id, _ := claims["user_id"].(string)

		s.mu.Lock()
		caller := s.findUser(id)
		s.mu.Unlock()
		if caller == nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r, caller)
	}
}

// admin is authed plus a role check against the stored account
func (s *Server) admin(next accountHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, caller *Account) {
		if caller.Role != "admin" {
			writeDetail(w, http.StatusForbidden, "Access denied: Admins only")
			return
		}
		next(w, r, caller)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Keep Notes API running"})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeValidation(w, "email", "field required")
		return
	}
	if in.Role == "" {
		in.Role = "user"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email {
			writeDetail(w, http.StatusBadRequest, "User exists")
			return
		}
	}
	s.users = append(s.users, &Account{ID: uuid.NewString(), Email: in.Email, Role: in.Role, password: in.Password})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "body", "invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email && u.password == in.Password {
			resp := map[string]any{"access_token": s.issue(u)}
			if s.LoginReturnsUser {
				resp["user"] = u
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request, caller *Account) {
	s.mu.Lock()
	out := []Note{}
	for _, n := range s.notes {
		if n.OwnerID == caller.ID {
			out = append(out, copyNote(n))
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Pinned && !out[j].Pinned })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, caller *Account) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeValidation(w, "body", "invalid JSON")
		return
	}
	if _, ok := fields["items"]; !ok {
		writeValidation(w, "items", "field required")
		return
	}
	if _, ok := fields["title"]; !ok {
		writeValidation(w, "title", "field required")
		return
	}

	n := &Note{Color: "#fff8b5", Items: []Item{}}
	if err := applyFields(n, fields); err != nil {
		writeValidation(w, "body", err.Error())
		return
	}
	n.ID = uuid.NewString()
	n.OwnerID = caller.ID
	n.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05.000000")

	s.mu.Lock()
	s.notes = append(s.notes, n)
	out := copyNote(n)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request, caller *Account) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeValidation(w, "body", "invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.findNote(r.PathValue("id"))
	if n == nil || n.OwnerID != caller.ID {
		writeDetail(w, http.StatusNotFound, "Note not found or you do not have permission to edit it")
		return
	}
	updated := copyNote(n)
	if err := applyFields(&updated, fields); err != nil {
		writeValidation(w, "body", err.Error())
		return
	}
	*n = updated
	writeJSON(w, http.StatusOK, copyNote(n))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, caller *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	n := s.findNote(id)
	if n == nil || n.OwnerID != caller.ID {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.removeNotes(func(n *Note) bool { return n.ID == id })
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (s *Server) handleAllNotes(w http.ResponseWriter, r *http.Request, _ *Account) {
	s.mu.Lock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, copyNote(n))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *Account) {
	s.mu.Lock()
	out := make([]Account, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if s.findUser(id) == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	kept := s.users[:0]
	for _, u := range s.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	s.users = kept
	s.removeNotes(func(n *Note) bool { return n.OwnerID == id })
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (s *Server) handleAdminDeleteNote(w http.ResponseWriter, r *http.Request, _ *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if s.findNote(id) == nil {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.removeNotes(func(n *Note) bool { return n.ID == id })
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

// findUser and findNote expect s.mu held
func (s *Server) findUser(id string) *Account {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) findNote(id string) *Note {
	for _, n := range s.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (s *Server) removeNotes(match func(*Note) bool) {
	kept := s.notes[:0]
	for _, n := range s.notes {
		if !match(n) {
			kept = append(kept, n)
		}
	}
	s.notes = kept
}

// applyFields sets only the keys present in fields
func applyFields(n *Note, fields map[string]json.RawMessage) error {
	targets := map[string]any{
		"title":   &n.Title,
		"content": &n.Content,
		"items":   &n.Items,
		"color":   &n.Color,
		"pinned":  &n.Pinned,
	}
	for key, raw := range fields {
		dst, ok := targets[key]
		if !ok {
			continue
		}
		if string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%s: %v", key, err)
		}
	}
	if n.Items == nil {
		n.Items = []Item{}
	}
	return nil
}

func copyNote(n *Note) Note {
	c := *n
	c.Items = append([]Item{}, n.Items...)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg}},
	})
}
