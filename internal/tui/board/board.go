// ABOUTME: Note board for the TUI: a scrolling column of note cards
// ABOUTME: Tracks the selected note across reloads by id

package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/markalston/keepnotes/internal/tui/icons"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// maxContentLines limits how much of a note's body a card shows
const maxContentLines = 4

// Board renders a list of notes with a cursor
type Board struct {
	notes     []notes.Note
	cursor    int
	width     int
	height    int
	showOwner bool
	emptyText string
}

// New creates an empty board. showOwner adds each note's owner id to its card.
func New(showOwner bool) *Board {
	return &Board{showOwner: showOwner, emptyText: "No notes yet. Press n to write one."}
}

// SetEmptyText replaces the message shown when there are no notes
func (b *Board) SetEmptyText(s string) {
	b.emptyText = s
}

// SetSize sets the area the board may draw in
func (b *Board) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// SetNotes replaces the notes, keeping the cursor on the same note when it
// is still present
func (b *Board) SetNotes(list []notes.Note) {
	selectedID := ""
	if n, ok := b.Selected(); ok {
		selectedID = n.ID
	}
	b.notes = list
	b.cursor = 0
	for i, n := range list {
		if n.ID == selectedID {
			b.cursor = i
			break
		}
	}
}

// Notes returns the notes on the board
func (b *Board) Notes() []notes.Note {
	return b.notes
}

// Len returns the number of notes
func (b *Board) Len() int {
	return len(b.notes)
}

// Selected returns the note under the cursor
func (b *Board) Selected() (notes.Note, bool) {
	if b.cursor < 0 || b.cursor >= len(b.notes) {
		return notes.Note{}, false
	}
	return b.notes[b.cursor], true
}

// Up moves the cursor to the previous note
func (b *Board) Up() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// Down moves the cursor to the next note
func (b *Board) Down() {
	if b.cursor < len(b.notes)-1 {
		b.cursor++
	}
}

// View renders the cards, scrolled so the selected card is visible
func (b *Board) View() string {
	if len(b.notes) == 0 {
		return styles.Subtitle.Render(b.emptyText)
	}

	var lines []string
	selectedTop, selectedBottom := 0, 0
	for i, n := range b.notes {
		card := strings.Split(b.renderCard(n, i == b.cursor), "\n")
		if i == b.cursor {
			selectedTop = len(lines)
			selectedBottom = len(lines) + len(card)
		}
		lines = append(lines, card...)
	}

	if b.height <= 0 || len(lines) <= b.height {
		return strings.Join(lines, "\n")
	}

	top := 0
	if selectedBottom > b.height {
		top = selectedBottom - b.height
	}
	if selectedTop < top {
		top = selectedTop
	}
	end := top + b.height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[top:end], "\n")
}

func (b *Board) renderCard(n notes.Note, selected bool) string {
	var body strings.Builder

	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	if n.Pinned {
		title = icons.Pin.String() + " " + title
	}
	if selected {
		body.WriteString(styles.Selected.Render("▸ " + title))
	} else {
		body.WriteString(styles.ValueStyle.Render(title))
	}

	if b.showOwner && n.OwnerID != "" {
		body.WriteString("\n" + lipgloss.NewStyle().Foreground(styles.Muted).Render("owner "+n.OwnerID))
	}

	if n.Content != "" {
		content := strings.Split(n.Content, "\n")
		if len(content) > maxContentLines {
			content = append(content[:maxContentLines], "…")
		}
		body.WriteString("\n" + strings.Join(content, "\n"))
	}

	if n.IsChecklist() {
		for i, it := range n.Items {
			box := icons.Unchecked.String()
			text := it.Text
			if it.Done {
				box = icons.Checked.String()
				text = styles.Done.Render(text)
			}
			body.WriteString(fmt.Sprintf("\n%d %s %s", i+1, box, text))
		}
		done, total := n.Progress()
		body.WriteString(fmt.Sprintf("\n%s %d/%d", styles.ProgressBar(done, total, 10), done, total))
	}

	return styles.Card(n.Color, b.width, body.String())
}
