// ABOUTME: Note commands for the keep CLI
// ABOUTME: Every mutation is followed by a reload of the note list

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/markalston/keepnotes/internal/notes"
	"github.com/spf13/cobra"
)

var (
	noteTitle   string
	noteContent string
	noteItems   []string
	noteColor   string
	notePinned  bool
	assumeYes   bool
)

var notesCmd = &cobra.Command{
	Use:         "notes",
	Short:       "List and edit your notes",
	Annotations: map[string]string{rolesAnnotation: "user,admin"},
}

var notesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your notes, pinned first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runNotesList(ctx, current, cmd.OutOrStdout()))
	},
}

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Long: `Create a note. At least one of --title, --content, or --item is required.

Checklist items use "[x] text" for done and "[ ] text" (or plain text) for open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		in := notes.Input{
			Title:   noteTitle,
			Content: noteContent,
			Items:   notes.ParseItems(strings.Join(noteItems, "\n")),
			Color:   noteColor,
			Pinned:  notePinned,
		}
		return exitWith(runNotesAdd(ctx, current, cmd.OutOrStdout(), in))
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a note; unset flags are left alone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runNotesEdit(ctx, current, cmd.OutOrStdout(), args[0], patchFromFlags(cmd)))
	},
}

var notesPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runNotesEdit(ctx, current, cmd.OutOrStdout(), args[0], notes.Patch{Pinned: notes.Ptr(true)}))
	},
}

var notesUnpinCmd = &cobra.Command{
	Use:   "unpin <id>",
	Short: "Unpin a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runNotesEdit(ctx, current, cmd.OutOrStdout(), args[0], notes.Patch{Pinned: notes.Ptr(false)}))
	},
}

var notesCheckCmd = &cobra.Command{
	Use:   "check <id> <item-number>",
	Short: "Toggle a checklist item (numbered from 1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("item number must be an integer, got %q", args[1])
		}
		return exitWith(runNotesCheck(ctx, current, cmd.OutOrStdout(), args[0], n))
	},
}

var notesRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runNotesRm(ctx, current, cmd.OutOrStdout(), args[0], assumeYes))
	},
}

func init() {
	for _, c := range []*cobra.Command{notesAddCmd, notesEditCmd} {
		c.Flags().StringVar(&noteTitle, "title", "", "Note title")
		c.Flags().StringVar(&noteContent, "content", "", "Note body text")
		c.Flags().StringArrayVar(&noteItems, "item", nil, `Checklist item, repeatable ("[x] done", "[ ] open")`)
		c.Flags().StringVar(&noteColor, "color", "", "Note color as #rrggbb")
		c.Flags().BoolVar(&notePinned, "pinned", false, "Pin the note")
	}
	notesRmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")

	notesCmd.AddCommand(notesListCmd, notesAddCmd, notesEditCmd, notesPinCmd, notesUnpinCmd, notesCheckCmd, notesRmCmd)
	rootCmd.AddCommand(notesCmd)
}

// patchFromFlags sets only the fields whose flags were given
func patchFromFlags(cmd *cobra.Command) notes.Patch {
	var p notes.Patch
	f := cmd.Flags()
	if f.Changed("title") {
		p.Title = notes.Ptr(noteTitle)
	}
	if f.Changed("content") {
		p.Content = notes.Ptr(noteContent)
	}
	if f.Changed("item") {
		p.Items = notes.Ptr(notes.ParseItems(strings.Join(noteItems, "\n")))
	}
	if f.Changed("color") {
		p.Color = notes.Ptr(noteColor)
	}
	if f.Changed("pinned") {
		p.Pinned = notes.Ptr(notePinned)
	}
	return p
}

// runNotesList prints the signed-in user's notes and returns exit code
func runNotesList(ctx context.Context, a *app, w io.Writer) int {
	repo := notes.New(a.client, notes.ScopeOwn)
	list, err := repo.Refresh(ctx)
	if err != nil {
		return fail(w, err)
	}
	printNotes(w, list, false)
	return exitOK
}

// runNotesAdd creates a note, reloads, and returns exit code
func runNotesAdd(ctx context.Context, a *app, w io.Writer, in notes.Input) int {
	repo := notes.New(a.client, notes.ScopeOwn)
	created, err := repo.Create(ctx, in)
	if err != nil {
		return fail(w, err)
	}
	return reloadAfter(ctx, w, repo, fmt.Sprintf("Created note %s", created.ID), created)
}

// runNotesEdit applies patch to id, reloads, and returns exit code
func runNotesEdit(ctx context.Context, a *app, w io.Writer, id string, patch notes.Patch) int {
	repo := notes.New(a.client, notes.ScopeOwn)
	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		return fail(w, err)
	}
	return reloadAfter(ctx, w, repo, fmt.Sprintf("Updated note %s", updated.ID), updated)
}

// runNotesCheck toggles item number n (1-based) of id and returns exit code
func runNotesCheck(ctx context.Context, a *app, w io.Writer, id string, n int) int {
	repo := notes.New(a.client, notes.ScopeOwn)
	if _, err := repo.Refresh(ctx); err != nil {
		return fail(w, err)
	}
	updated, err := repo.ToggleItem(ctx, id, n-1)
	if err != nil {
		return fail(w, err)
	}
	return reloadAfter(ctx, w, repo, fmt.Sprintf("Updated note %s", updated.ID), updated)
}

// runNotesRm deletes id after confirmation, reloads, and returns exit code
func runNotesRm(ctx context.Context, a *app, w io.Writer, id string, yes bool) int {
	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete note %s?", id))
		if err != nil {
			return fail(w, err)
		}
		if !ok {
			fmt.Fprintln(w, "Canceled")
			return exitOK
		}
	}

	repo := notes.New(a.client, notes.ScopeOwn)
	if err := repo.Delete(ctx, id); err != nil {
		return fail(w, err)
	}
	return reloadAfter(ctx, w, repo, fmt.Sprintf("Deleted note %s", id), nil)
}

// reloadAfter refreshes the list following a mutation and prints both
func reloadAfter(ctx context.Context, w io.Writer, repo *notes.Repository, msg string, changed *notes.Note) int {
	list, err := repo.Refresh(ctx)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		out := map[string]any{"notes": list}
		if changed != nil {
			out["note"] = changed
		}
		writeJSON(w, out)
		return exitOK
	}

	fmt.Fprintln(w, msg)
	fmt.Fprintln(w)
	printNotes(w, list, repo.Scope() == notes.ScopeAll)
	return exitOK
}

// printNotes writes list as text, or as JSON when requested
func printNotes(w io.Writer, list []notes.Note, showOwner bool) {
	if IsJSONOutput() {
		writeJSON(w, list)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No notes yet.")
		return
	}
	for i, n := range list {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, formatNote(n, showOwner))
	}
}

// formatNote renders one note as a block of text
func formatNote(n notes.Note, showOwner bool) string {
	var b strings.Builder

	marker := " "
	if n.Pinned {
		marker = "*"
	}
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "%s %s  %s\n", marker, title, n.ID)
	if showOwner && n.OwnerID != "" {
		fmt.Fprintf(&b, "  owner: %s\n", n.OwnerID)
	}
	if n.Content != "" {
		for _, line := range strings.Split(n.Content, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if n.IsChecklist() {
		for i, it := range n.Items {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, notes.FormatItem(it))
		}
		done, total := n.Progress()
		fmt.Fprintf(&b, "  (%d/%d done)\n", done, total)
	}
	return b.String()
}
