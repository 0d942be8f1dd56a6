// ABOUTME: Tests for note types and checklist line parsing
// ABOUTME: Table-driven, no backend needed

package notes

import (
	"testing"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/stretchr/testify/assert"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		line string
		want ChecklistItem
	}{
		{"[x] eggs", ChecklistItem{Text: "eggs", Done: true}},
		{"[X]   milk ", ChecklistItem{Text: "milk", Done: true}},
		{"[ ] bread", ChecklistItem{Text: "bread"}},
		{"[]butter", ChecklistItem{Text: "butter"}},
		{"  plain  ", ChecklistItem{Text: "plain"}},
		{"", ChecklistItem{}},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseItem(tc.line))
		})
	}
}

func TestParseItems_SkipsBlankLines(t *testing.T) {
	items := ParseItems("[x] a\n\n  \n[ ] b\nc")
	assert.Equal(t, []ChecklistItem{{Text: "a", Done: true}, {Text: "b"}, {Text: "c"}}, items)

	assert.NotNil(t, ParseItems(""))
	assert.Empty(t, ParseItems(""))
}

func TestFormatItems_RoundTrips(t *testing.T) {
	items := []ChecklistItem{{Text: "a", Done: true}, {Text: "b"}}
	assert.Equal(t, "[x] a\n[ ] b", FormatItems(items))
	assert.Equal(t, items, ParseItems(FormatItems(items)))
}

func TestNoteProgress(t *testing.T) {
	n := Note{Items: []ChecklistItem{{Text: "a", Done: true}, {Text: "b"}, {Text: "c", Done: true}}}
	done, total := n.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
	assert.True(t, n.IsChecklist())
	assert.False(t, Note{}.IsChecklist())
}

func TestInputNormalize(t *testing.T) {
	in := Input{Title: " t ", Content: " c ", Items: []ChecklistItem{{Text: " x "}, {Text: " "}}, Color: " #fff "}.normalize()

	assert.Equal(t, "t", in.Title)
	assert.Equal(t, "c", in.Content)
	assert.Equal(t, []ChecklistItem{{Text: "x"}}, in.Items)
	assert.Equal(t, "#fff", in.Color)

	assert.NotNil(t, Input{Title: "t"}.normalize().Items)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{Pinned: Ptr(false)}.Empty())
}

func TestPatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{"nothing", Patch{}, true},
		{"blank title alone", Patch{Title: Ptr("  ")}, true},
		{"blank items alone", Patch{Items: &[]ChecklistItem{}}, true},
		{"blank title and content", Patch{Title: Ptr(""), Content: Ptr("")}, true},
		{"all text blank with pin", Patch{Title: Ptr(""), Content: Ptr(""), Items: &[]ChecklistItem{}, Pinned: Ptr(true)}, true},
		{"blank title with color", Patch{Title: Ptr(""), Color: Ptr("#ffffff")}, false},
		{"one field kept", Patch{Title: Ptr(""), Content: Ptr("body")}, false},
		{"pin only", Patch{Pinned: Ptr(true)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, client.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	n := Note{ID: "n1", Title: "t", Content: "c", Items: []ChecklistItem{{Text: "x"}}}

	assert.False(t, Patch{Title: Ptr("")}.apply(n).blank())
	assert.True(t, Patch{Title: Ptr(""), Content: Ptr(""), Items: &[]ChecklistItem{}}.apply(n).blank())
	assert.Equal(t, "n1", Patch{Pinned: Ptr(true)}.apply(n).ID)
}
