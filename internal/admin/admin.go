// ABOUTME: Admin-only operations: account listing, account and note removal
// ABOUTME: Dashboard fetches accounts and every note concurrently

package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/markalston/keepnotes/internal/session"
	"golang.org/x/sync/errgroup"
)

// Account is a registered user as the admin endpoints return it
type Account struct {
	ID    string       `json:"id"`
	Email string       `json:"email"`
	Role  session.Role `json:"role"`
}

// Service wraps the admin endpoints. The backend rejects non-admin callers
// with 403, surfaced as client.ErrForbidden.
type Service struct {
	client *client.Client
	notes  *notes.Repository
}

// New creates an admin service over c
func New(c *client.Client) *Service {
	return &Service{client: c, notes: notes.New(c, notes.ScopeAll)}
}

// Notes returns the all-notes repository the dashboard reads from
func (s *Service) Notes() *notes.Repository {
	return s.notes
}

// ListUsers returns every registered account
func (s *Service) ListUsers(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := s.client.Do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if out == nil {
		out = []Account{}
	}
	return out, nil
}

// DeleteUser removes an account and, on the backend, its notes
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return &client.ValidationError{Field: "id", Reason: "required"}
	}
	if err := s.client.Do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}

// DeleteNote removes any user's note
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if id == "" {
		return &client.ValidationError{Field: "id", Reason: "required"}
	}
	if err := s.client.Do(ctx, http.MethodDelete, "/admin/notes/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

// UserSummary is one row of the dashboard
type UserSummary struct {
	Account
	NoteCount   int
	PinnedCount int
}

// Dashboard is the admin overview: accounts with their note counts
type Dashboard struct {
	Users      []UserSummary
	Notes      []notes.Note
	TotalNotes int
	// Orphaned counts notes whose owner is not in the account list
	Orphaned int
}

// Dashboard loads accounts and all notes in parallel. Either failure fails
// the whole load.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		users []Account
		all   []notes.Note
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.notes.Refresh(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summarize(users, all), nil
}

func summarize(users []Account, all []notes.Note) *Dashboard {
	d := &Dashboard{Notes: all, TotalNotes: len(all)}

	index := make(map[string]int, len(users))
	for i, u := range users {
		d.Users = append(d.Users, UserSummary{Account: u})
		index[u.ID] = i
	}
	for _, n := range all {
		i, ok := index[n.OwnerID]
		if !ok {
			d.Orphaned++
			continue
		}
		d.Users[i].NoteCount++
		if n.Pinned {
			d.Users[i].PinnedCount++
		}
	}

	sort.SliceStable(d.Users, func(a, b int) bool {
		if d.Users[a].NoteCount != d.Users[b].NoteCount {
			return d.Users[a].NoteCount > d.Users[b].NoteCount
		}
		return d.Users[a].Email < d.Users[b].Email
	})
	return d
}
