// ABOUTME: Tests for the note editor model
// ABOUTME: Verifies prefill, input conversion, and cancel handling

package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Blank(t *testing.T) {
	e := New(nil)

	assert.Empty(t, e.ID())
	in := e.Input()
	assert.Equal(t, notes.DefaultColor, in.Color)
	assert.Empty(t, in.Title)
	assert.Empty(t, in.Items)
}

func TestNew_PrefillsFromNote(t *testing.T) {
	n := &notes.Note{
		ID:      "n1",
		Title:   "Groceries",
		Content: "for the weekend",
		Items:   []notes.ChecklistItem{{Text: "eggs", Done: true}, {Text: "milk"}},
		Color:   "#abcdef",
		Pinned:  true,
	}
	e := New(n)

	assert.Equal(t, "n1", e.ID())
	in := e.Input()
	assert.Equal(t, "Groceries", in.Title)
	assert.Equal(t, "for the weekend", in.Content)
	assert.Equal(t, n.Items, in.Items)
	assert.Equal(t, "#abcdef", in.Color)
	assert.True(t, in.Pinned)
}

func TestUpdate_EscCancels(t *testing.T) {
	e := New(nil)
	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, CancelledMsg{}, cmd())
}
