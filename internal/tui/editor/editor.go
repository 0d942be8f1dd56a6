// ABOUTME: Note editor as a bubbletea model
// ABOUTME: Edits title, body, checklist, color, and pin in one huh form

package editor

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// SavedMsg is sent when the form is completed. ID is empty for a new note.
type SavedMsg struct {
	ID    string
	Input notes.Input
}

// CancelledMsg is sent when the user leaves the editor with esc
type CancelledMsg struct{}

// Editor edits one note
type Editor struct {
	form *huh.Form
	id   string

	title   string
	content string
	items   string
	color   string
	pinned  bool
}

// New opens the editor on n, or on a blank note when n is nil
func New(n *notes.Note) *Editor {
	e := &Editor{color: notes.DefaultColor}
	if n != nil {
		e.id = n.ID
		e.title = n.Title
		e.content = n.Content
		e.items = notes.FormatItems(n.Items)
		e.pinned = n.Pinned
		if n.Color != "" {
			e.color = n.Color
		}
	}
	e.form = e.build()
	return e
}

// ID is the id of the note being edited, empty for a new note
func (e *Editor) ID() string {
	return e.id
}

func (e *Editor) build() *huh.Form {
	colors := make([]huh.Option[string], 0, len(styles.NoteColors)+1)
	known := false
	for _, c := range styles.NoteColors {
		colors = append(colors, huh.NewOption(styles.Swatch(c.Hex)+" "+c.Name, c.Hex))
		if c.Hex == e.color {
			known = true
		}
	}
	if !known {
		colors = append(colors, huh.NewOption(styles.Swatch(e.color)+" "+e.color, e.color))
	}

	heading := "New note"
	if e.id != "" {
		heading = "Edit note"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&e.title),
			huh.NewText().
				Title("Note").
				Lines(4).
				Value(&e.content),
			huh.NewText().
				Title("Checklist").
				Description(`One item per line; "[x] item" is done`).
				Lines(4).
				Value(&e.items),
		).Title(heading),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color").
				Options(colors...).
				Value(&e.color),
			huh.NewConfirm().
				Title("Pinned").
				Affirmative("Yes").
				Negative("No").
				Value(&e.pinned),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Input returns the note as currently entered
func (e *Editor) Input() notes.Input {
	return notes.Input{
		Title:   strings.TrimSpace(e.title),
		Content: strings.TrimSpace(e.content),
		Items:   notes.ParseItems(e.items),
		Color:   e.color,
		Pinned:  e.pinned,
	}
}

// Init implements tea.Model
func (e *Editor) Init() tea.Cmd {
	return e.form.Init()
}

// Update implements tea.Model
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return e, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		saved := SavedMsg{ID: e.id, Input: e.Input()}
		return e, func() tea.Msg { return saved }
	}
	return e, cmd
}

// View implements tea.Model
func (e *Editor) View() string {
	return e.form.View()
}
