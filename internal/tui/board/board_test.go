// ABOUTME: Tests for the note board
// ABOUTME: Verifies cursor movement, selection across reloads, and scrolling

package board

import (
	"strings"
	"testing"

	"github.com/markalston/keepnotes/internal/notes"
)

func sample() []notes.Note {
	return []notes.Note{
		{ID: "a", Title: "Groceries", Pinned: true, Items: []notes.ChecklistItem{{Text: "eggs", Done: true}, {Text: "milk"}}},
		{ID: "b", Title: "Ideas", Content: "one\ntwo"},
		{ID: "c", Content: "untitled body"},
	}
}

func TestBoard_CursorBounds(t *testing.T) {
	b := New(false)
	b.SetNotes(sample())

	b.Up()
	if n, _ := b.Selected(); n.ID != "a" {
		t.Errorf("Selected = %q, want a", n.ID)
	}
	b.Down()
	b.Down()
	b.Down()
	if n, _ := b.Selected(); n.ID != "c" {
		t.Errorf("Selected = %q, want c", n.ID)
	}
}

func TestBoard_SelectionSurvivesReload(t *testing.T) {
	b := New(false)
	b.SetNotes(sample())
	b.Down() // b

	reordered := []notes.Note{{ID: "b", Title: "Ideas"}, {ID: "a"}, {ID: "c"}}
	b.SetNotes(reordered)
	if n, _ := b.Selected(); n.ID != "b" {
		t.Errorf("Selected = %q, want b", n.ID)
	}

	b.SetNotes([]notes.Note{{ID: "a"}, {ID: "c"}})
	if n, _ := b.Selected(); n.ID != "a" {
		t.Errorf("Selected after removal = %q, want a", n.ID)
	}
}

func TestBoard_EmptyView(t *testing.T) {
	b := New(false)
	if _, ok := b.Selected(); ok {
		t.Error("empty board should have no selection")
	}
	if !strings.Contains(b.View(), "No notes yet") {
		t.Errorf("View = %q", b.View())
	}
	b.SetEmptyText("nothing here")
	if !strings.Contains(b.View(), "nothing here") {
		t.Errorf("View = %q", b.View())
	}
}

func TestBoard_ViewShowsNoteParts(t *testing.T) {
	b := New(true)
	list := sample()
	list[1].OwnerID = "owner-1"
	b.SetNotes(list)
	b.SetSize(60, 0)

	view := b.View()
	for _, want := range []string{"Groceries", "eggs", "milk", "1/2", "Ideas", "owner owner-1", "(untitled)"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestBoard_ScrollsToSelection(t *testing.T) {
	b := New(false)
	b.SetNotes(sample())
	b.SetSize(60, 4)

	b.Down()
	b.Down()
	view := b.View()
	if got := len(strings.Split(view, "\n")); got > 4 {
		t.Errorf("View has %d lines, want at most 4", got)
	}
	if !strings.Contains(view, "(untitled)") {
		t.Errorf("scrolled view should show the selected card, got %q", view)
	}
}
