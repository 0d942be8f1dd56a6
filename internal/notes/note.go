// ABOUTME: Note, checklist item, and request body types
// ABOUTME: Local validation and the "[x] text" checklist line format

package notes

import (
	"strings"

	"github.com/markalston/keepnotes/internal/client"
)

// DefaultColor is the color the backend assigns when none is sent
const DefaultColor = "#fff8b5"

// ChecklistItem is one line of a checklist note
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Note is a note as the backend returns it. CreatedAt stays a string because
// the backend emits timestamps without a zone.
type Note struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content,omitempty"`
	Items     []ChecklistItem `json:"items"`
	Color     string          `json:"color,omitempty"`
	Pinned    bool            `json:"pinned"`
	OwnerID   string          `json:"owner_id,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// IsChecklist reports whether the note carries checklist items
func (n Note) IsChecklist() bool {
	return len(n.Items) > 0
}

// Progress returns how many checklist items are done out of the total
func (n Note) Progress() (done, total int) {
	for _, it := range n.Items {
		if it.Done {
			done++
		}
	}
	return done, len(n.Items)
}

// Input is the body of a create request
type Input struct {
	Title   string          `json:"title"`
	Content string          `json:"content,omitempty"`
	Items   []ChecklistItem `json:"items"`
	Color   string          `json:"color,omitempty"`
	Pinned  bool            `json:"pinned"`
}

// Patch is the body of an update request; nil fields are left alone
type Patch struct {
	Title   *string          `json:"title,omitempty"`
	Content *string          `json:"content,omitempty"`
	Items   *[]ChecklistItem `json:"items,omitempty"`
	Color   *string          `json:"color,omitempty"`
	Pinned  *bool            `json:"pinned,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Items == nil && p.Color == nil && p.Pinned == nil
}

// Ptr returns a pointer to v, for building a Patch
func Ptr[T any](v T) *T {
	return &v
}

// normalize trims text fields and guarantees items is serialized as a list
func (in Input) normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	items := make([]ChecklistItem, 0, len(in.Items))
	for _, it := range in.Items {
		it.Text = strings.TrimSpace(it.Text)
		if it.Text == "" {
			continue
		}
		items = append(items, it)
	}
	in.Items = items
	in.Color = strings.TrimSpace(in.Color)
	return in
}

// validate rejects a note with no title, no content, and no items
func (in Input) validate() error {
	if in.Title == "" && in.Content == "" && len(in.Items) == 0 {
		return errEmptyNote()
	}
	return nil
}

// validate rejects a patch that changes nothing, and one that would blank
// every field it names: all of its text fields are blank and it either
// names all three or names no color or pin change.
func (p Patch) validate() error {
	if p.Empty() {
		return &client.ValidationError{Reason: "nothing to update"}
	}

	named, blank := 0, 0
	if p.Title != nil {
		named++
		if strings.TrimSpace(*p.Title) == "" {
			blank++
		}
	}
	if p.Content != nil {
		named++
		if strings.TrimSpace(*p.Content) == "" {
			blank++
		}
	}
	if p.Items != nil {
		named++
		if len(*p.Items) == 0 {
			blank++
		}
	}
	if named > 0 && blank == named && (named == 3 || (p.Color == nil && p.Pinned == nil)) {
		return errEmptyNote()
	}
	return nil
}

// apply returns n with the fields set in p replaced
func (p Patch) apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Items != nil {
		n.Items = *p.Items
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	return n
}

// blank reports whether n has no title, no content, and no items
func (n Note) blank() bool {
	return strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Content) == "" && len(n.Items) == 0
}

func errEmptyNote() error {
	return &client.ValidationError{Reason: "note is empty: give it a title, some content, or a checklist item"}
}

// ParseItem reads "[x] text" / "[ ] text" / "text" into a checklist item
func ParseItem(line string) ChecklistItem {
	s := strings.TrimSpace(line)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "[x]"):
		return ChecklistItem{Text: strings.TrimSpace(s[3:]), Done: true}
	case strings.HasPrefix(s, "[ ]"):
		return ChecklistItem{Text: strings.TrimSpace(s[3:])}
	case strings.HasPrefix(s, "[]"):
		return ChecklistItem{Text: strings.TrimSpace(s[2:])}
	}
	return ChecklistItem{Text: s}
}

// FormatItem is the inverse of ParseItem
func FormatItem(it ChecklistItem) string {
	if it.Done {
		return "[x] " + it.Text
	}
	return "[ ] " + it.Text
}

// ParseItems reads one checklist item per non-blank line
func ParseItems(text string) []ChecklistItem {
	items := []ChecklistItem{}
	for _, line := range strings.Split(text, "\n") {
		it := ParseItem(line)
		if it.Text != "" {
			items = append(items, it)
		}
	}
	return items
}

// FormatItems is the inverse of ParseItems
func FormatItems(items []ChecklistItem) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = FormatItem(it)
	}
	return strings.Join(lines, "\n")
}
