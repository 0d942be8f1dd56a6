// ABOUTME: Async commands issued by the TUI application
// ABOUTME: Each wraps one service call and reports back with a message

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/markalston/keepnotes/internal/tui/editor"
)

func (a *App) loadNotes() tea.Cmd {
	a.busy = true
	ctx := a.ctx
	repo := a.repo
	return func() tea.Msg {
		list, err := repo.Refresh(ctx)
		return notesLoadedMsg{notes: list, err: err}
	}
}

func (a *App) loadDashboard() tea.Cmd {
	a.busy = true
	ctx := a.ctx
	svc := a.admin
	return func() tea.Msg {
		d, err := svc.Dashboard(ctx)
		return dashboardLoadedMsg{dashboard: d, err: err}
	}
}

func (a *App) doLogin(email, password string) tea.Cmd {
	ctx := a.ctx
	svc := a.auth
	return func() tea.Msg {
		user, err := svc.Login(ctx, email, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func (a *App) saveNote(msg editor.SavedMsg) tea.Cmd {
	ctx := a.ctx
	repo := a.repo
	return func() tea.Msg {
		if msg.ID == "" {
			if _, err := repo.Create(ctx, msg.Input); err != nil {
				return mutationDoneMsg{err: err}
			}
			return mutationDoneMsg{status: "Note created"}
		}
		if _, err := repo.Update(ctx, msg.ID, patchFromInput(msg.Input)); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{status: "Note saved"}
	}
}

func (a *App) togglePin(n notes.Note) tea.Cmd {
	ctx := a.ctx
	repo := a.repo
	return func() tea.Msg {
		updated, err := repo.TogglePin(ctx, n.ID)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		if updated.Pinned {
			return mutationDoneMsg{status: "Pinned " + noteLabel(n)}
		}
		return mutationDoneMsg{status: "Unpinned " + noteLabel(n)}
	}
}

func (a *App) toggleItem(n notes.Note, index int) tea.Cmd {
	ctx := a.ctx
	repo := a.repo
	return func() tea.Msg {
		if _, err := repo.ToggleItem(ctx, n.ID, index); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{status: fmt.Sprintf("Toggled item %d of %s", index+1, noteLabel(n))}
	}
}

func (a *App) deleteNote(p *pendingDelete) tea.Cmd {
	ctx := a.ctx
	repo := a.repo
	return func() tea.Msg {
		if err := repo.Delete(ctx, p.id); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{status: fmt.Sprintf("Deleted %q", p.label)}
	}
}

func (a *App) deleteUser(p *pendingDelete) tea.Cmd {
	ctx := a.ctx
	svc := a.admin
	return func() tea.Msg {
		if err := svc.DeleteUser(ctx, p.id); err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{status: "Deleted user " + p.label}
	}
}

// patchFromInput sends every editor field, since the form shows them all
func patchFromInput(in notes.Input) notes.Patch {
	items := in.Items
	if items == nil {
		items = []notes.ChecklistItem{}
	}
	p := notes.Patch{
		Title:   notes.Ptr(in.Title),
		Content: notes.Ptr(in.Content),
		Items:   &items,
		Pinned:  notes.Ptr(in.Pinned),
	}
	if in.Color != "" {
		p.Color = notes.Ptr(in.Color)
	}
	return p
}
