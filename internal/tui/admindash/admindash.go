// ABOUTME: Admin dashboard panel: accounts with note counts
// ABOUTME: Keeps a cursor over the account rows for deletion

package admindash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/keepnotes/internal/admin"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/markalston/keepnotes/internal/tui/icons"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// Panel renders an admin.Dashboard
type Panel struct {
	data   *admin.Dashboard
	cursor int
	width  int
}

// New creates a panel over d
func New(d *admin.Dashboard, width int) *Panel {
	return &Panel{data: d, width: width}
}

// SetData replaces the dashboard, keeping the cursor on the same account
func (p *Panel) SetData(d *admin.Dashboard) {
	selected := ""
	if u, ok := p.Selected(); ok {
		selected = u.ID
	}
	p.data = d
	p.cursor = 0
	if d == nil {
		return
	}
	for i, u := range d.Users {
		if u.ID == selected {
			p.cursor = i
			break
		}
	}
}

// SetWidth sets the render width
func (p *Panel) SetWidth(w int) {
	p.width = w
}

// Selected returns the account under the cursor
func (p *Panel) Selected() (admin.UserSummary, bool) {
	if p.data == nil || p.cursor < 0 || p.cursor >= len(p.data.Users) {
		return admin.UserSummary{}, false
	}
	return p.data.Users[p.cursor], true
}

// Up moves the cursor to the previous account
func (p *Panel) Up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// Down moves the cursor to the next account
func (p *Panel) Down() {
	if p.data != nil && p.cursor < len(p.data.Users)-1 {
		p.cursor++
	}
}

// View renders the summary line and the account table
func (p *Panel) View() string {
	if p.data == nil {
		return styles.Subtitle.Render("Loading...")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Admin.String() + " Accounts"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s users  %s notes",
		styles.ValueStyle.Render(fmt.Sprint(len(p.data.Users))),
		styles.ValueStyle.Render(fmt.Sprint(p.data.TotalNotes))))
	if p.data.Orphaned > 0 {
		sb.WriteString("  " + styles.StatusWarning.Render(fmt.Sprintf("%s %d orphaned", icons.Warning, p.data.Orphaned)))
	}
	sb.WriteString("\n\n")

	header := fmt.Sprintf("  %-32s %-6s %5s %6s", "EMAIL", "ROLE", "NOTES", "PINNED")
	sb.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render(header))

	for i, u := range p.data.Users {
		icon := icons.User.String()
		if u.Role == session.RoleAdmin {
			icon = icons.Admin.String()
		}
		row := fmt.Sprintf("%s %-32s %-6s %5d %6d", icon, truncate(u.Email, 32), u.Role, u.NoteCount, u.PinnedCount)
		if i == p.cursor {
			row = styles.Selected.Render(row)
		}
		sb.WriteString("\n" + row)
	}
	if len(p.data.Users) == 0 {
		sb.WriteString("\n" + styles.Subtitle.Render("No accounts."))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
