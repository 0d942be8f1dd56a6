// ABOUTME: Tests for the admin dashboard panel
// ABOUTME: Verifies rendering and cursor behavior across reloads

package admindash

import (
	"strings"
	"testing"

	"github.com/markalston/keepnotes/internal/admin"
	"github.com/markalston/keepnotes/internal/session"
)

func sample() *admin.Dashboard {
	return &admin.Dashboard{
		Users: []admin.UserSummary{
			{Account: admin.Account{ID: "u1", Email: "alice@example.com", Role: session.RoleUser}, NoteCount: 2, PinnedCount: 1},
			{Account: admin.Account{ID: "u2", Email: "boss@example.com", Role: session.RoleAdmin}},
		},
		TotalNotes: 3,
		Orphaned:   1,
	}
}

func TestPanel_View(t *testing.T) {
	view := New(sample(), 80).View()

	for _, want := range []string{"alice@example.com", "boss@example.com", "2 users", "3 notes", "1 orphaned"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestPanel_NilShowsLoading(t *testing.T) {
	p := New(nil, 80)
	if !strings.Contains(p.View(), "Loading") {
		t.Errorf("View = %q", p.View())
	}
	if _, ok := p.Selected(); ok {
		t.Error("nil dashboard should have no selection")
	}
	p.Down()
}

func TestPanel_CursorFollowsAccount(t *testing.T) {
	p := New(sample(), 80)
	p.Down()
	if u, _ := p.Selected(); u.ID != "u2" {
		t.Fatalf("Selected = %q, want u2", u.ID)
	}

	d := sample()
	d.Users[0], d.Users[1] = d.Users[1], d.Users[0]
	p.SetData(d)
	if u, _ := p.Selected(); u.ID != "u2" {
		t.Errorf("Selected after reorder = %q, want u2", u.ID)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
