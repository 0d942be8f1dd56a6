// ABOUTME: Note repository over the Keep Notes API
// ABOUTME: Every mutation is followed by a full reload; stale reloads are discarded

package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/markalston/keepnotes/internal/client"
)

// Scope selects which notes List returns
type Scope int

const (
	// ScopeOwn lists the signed-in user's notes
	ScopeOwn Scope = iota
	// ScopeAll lists every user's notes; the backend only allows admins
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeAll:
		return "all"
	default:
		return "unknown"
	}
}

func (s Scope) listPath() string {
	if s == ScopeAll {
		return "/admin/all-notes"
	}
	return "/notes"
}

// ErrStale is returned by Refresh when a newer Refresh was issued before
// this one's response arrived. The newer response owns the list.
var ErrStale = errors.New("stale note list discarded")

// Repository reads and writes notes through the API client. It holds the
// last fetched list but never edits it locally; callers Refresh after a
// mutation to see the new state.
type Repository struct {
	client *client.Client
	scope  Scope

	mu     sync.Mutex
	notes  []Note
	issued uint64 // sequence of the latest Refresh started
}

// New creates a repository for scope
func New(c *client.Client, scope Scope) *Repository {
	return &Repository{client: c, scope: scope}
}

// Scope returns the repository's listing scope
func (r *Repository) Scope() Scope {
	return r.scope
}

// List fetches the notes in scope. An empty list is not an error.
func (r *Repository) List(ctx context.Context) ([]Note, error) {
	var out []Note
	if err := r.client.Do(ctx, http.MethodGet, r.scope.listPath(), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if out == nil {
		out = []Note{}
	}
	for i := range out {
		if out[i].Items == nil {
			out[i].Items = []ChecklistItem{}
		}
	}
	return out, nil
}

// Create validates input, sends it, and returns the note the backend made.
// An empty note never reaches the backend.
func (r *Repository) Create(ctx context.Context, input Input) (*Note, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	var created Note
	if err := r.client.Do(ctx, http.MethodPost, "/notes", input, &created); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	slog.Debug("Note created", "id", created.ID)
	return &created, nil
}

// Update sends patch for id. Only the fields set in patch change.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) (*Note, error) {
	if id == "" {
		return nil, &client.ValidationError{Field: "id", Reason: "required"}
	}
	if err := r.checkPatch(id, patch); err != nil {
		return nil, err
	}

	var updated Note
	if err := r.client.Do(ctx, http.MethodPatch, notePath(id), patch, &updated); err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return &updated, nil
}

// checkPatch refuses a patch that would leave id empty. With a copy of id
// from the last Refresh the result is checked directly; without one only
// the fields the patch names can be judged.
func (r *Repository) checkPatch(id string, patch Patch) error {
	if patch.Empty() {
		return patch.validate()
	}
	if n, ok := r.Find(id); ok {
		if patch.apply(n).blank() {
			return errEmptyNote()
		}
		return nil
	}
	return patch.validate()
}

// Delete removes id. Deleting a note that is already gone fails with
// client.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &client.ValidationError{Field: "id", Reason: "required"}
	}
	if err := r.client.Do(ctx, http.MethodDelete, notePath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

// Refresh replaces the held list with a fresh List. If another Refresh
// started after this one, this result is dropped and ErrStale returned.
func (r *Repository) Refresh(ctx context.Context) ([]Note, error) {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.mu.Unlock()

	list, err := r.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.issued {
		slog.Debug("Discarding stale note list", "seq", seq, "latest", r.issued)
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	r.notes = list
	return cloneNotes(list), nil
}

// Notes returns a copy of the list from the last successful Refresh
func (r *Repository) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneNotes(r.notes)
}

// Find returns the note with id from the last Refresh
func (r *Repository) Find(id string) (Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if n.ID == id {
			return cloneNote(n), true
		}
	}
	return Note{}, false
}

// TogglePin flips the pinned flag of a note from the last Refresh
func (r *Repository) TogglePin(ctx context.Context, id string) (*Note, error) {
	n, ok := r.Find(id)
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, client.ErrNotFound)
	}
	return r.Update(ctx, id, Patch{Pinned: Ptr(!n.Pinned)})
}

// ToggleItem flips the done flag of item index. Items have no endpoint of
// their own, so the whole list is sent.
func (r *Repository) ToggleItem(ctx context.Context, id string, index int) (*Note, error) {
	n, ok := r.Find(id)
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, client.ErrNotFound)
	}
	if index < 0 || index >= len(n.Items) {
		return nil, &client.ValidationError{Field: "item", Reason: fmt.Sprintf("index %d out of range (note has %d items)", index+1, len(n.Items))}
	}
	items := n.Items
	items[index].Done = !items[index].Done
	return r.SetItems(ctx, id, items)
}

// SetItems replaces the checklist of id
func (r *Repository) SetItems(ctx context.Context, id string, items []ChecklistItem) (*Note, error) {
	if items == nil {
		items = []ChecklistItem{}
	}
	return r.Update(ctx, id, Patch{Items: &items})
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func cloneNote(n Note) Note {
	n.Items = append([]ChecklistItem{}, n.Items...)
	return n
}

func cloneNotes(list []Note) []Note {
	if list == nil {
		return []Note{}
	}
	out := make([]Note, len(list))
	for i, n := range list {
		out[i] = cloneNote(n)
	}
	return out
}
