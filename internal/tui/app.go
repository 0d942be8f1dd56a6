// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Routes every screen change through the access guard

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/keepnotes/internal/admin"
	"github.com/markalston/keepnotes/internal/auth"
	"github.com/markalston/keepnotes/internal/client"
	"github.com/markalston/keepnotes/internal/guard"
	"github.com/markalston/keepnotes/internal/notes"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/markalston/keepnotes/internal/tui/admindash"
	"github.com/markalston/keepnotes/internal/tui/board"
	"github.com/markalston/keepnotes/internal/tui/editor"
	"github.com/markalston/keepnotes/internal/tui/icons"
	"github.com/markalston/keepnotes/internal/tui/login"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenNotes
	ScreenEditor
	ScreenAdmin
	ScreenDenied
)

// Layout constants
const (
	minTerminalWidth = 80
	frameOverhead    = 4 // header, footer, and the blank lines around content
)

// location names the screen for the guard and the logs
func (s Screen) location() string {
	switch s {
	case ScreenNotes:
		return "notes"
	case ScreenEditor:
		return "editor"
	case ScreenAdmin:
		return "admin"
	case ScreenLogin:
		return "login"
	case ScreenDenied:
		return "denied"
	default:
		return "loading"
	}
}

// roles returns who may see the screen; nil means the screen is public
func (s Screen) roles() []session.Role {
	switch s {
	case ScreenNotes, ScreenEditor:
		return []session.Role{session.RoleUser, session.RoleAdmin}
	case ScreenAdmin:
		return []session.Role{session.RoleAdmin}
	}
	return nil
}

func (s Screen) protected() bool {
	return s.roles() != nil
}

type notesLoadedMsg struct {
	notes []notes.Note
	err   error
}

type dashboardLoadedMsg struct {
	dashboard *admin.Dashboard
	err       error
}

// mutationDoneMsg reports a create, update, or delete; the list is reloaded
// only after it arrives
type mutationDoneMsg struct {
	status string
	err    error
}

type loginDoneMsg struct {
	user *session.User
	err  error
}

// sessionChangedMsg is sent when the session store changes, including
// changes made by another keep process
type sessionChangedMsg struct{}

// pendingDelete is a deletion waiting for y/n
type pendingDelete struct {
	user  bool
	id    string
	label string
}

// App is the root model for the TUI
type App struct {
	ctx    context.Context
	client *client.Client
	store  *session.Store
	guard  *guard.Guard
	auth   *auth.Service
	repo   *notes.Repository
	admin  *admin.Service

	screen       Screen
	returnTo     Screen
	deniedTarget Screen
	denied       guard.Decision
	width        int
	height       int

	board     *board.Board
	panel     *admindash.Panel
	loginForm *login.Form
	editor    *editor.Editor
	lastEmail string

	confirm    *pendingDelete
	busy       bool
	status     string
	err        error
	lastUpdate time.Time

	spinner spinner.Model
	help    help.Model
}

// New creates a new TUI application over c's session
func New(c *client.Client, g *guard.Guard) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &App{
		ctx:      context.Background(),
		client:   c,
		store:    c.Session(),
		guard:    g,
		auth:     auth.New(c),
		repo:     notes.New(c, notes.ScopeOwn),
		admin:    admin.New(c),
		screen:   ScreenLoading,
		returnTo: ScreenNotes,
		board:    board.New(false),
		panel:    admindash.New(nil, 0),
		spinner:  sp,
		help:     help.New(),
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.navigate(ScreenNotes))
}

// navigate asks the guard whether target may be shown and moves there, to
// the login screen, or to the denial view
func (a *App) navigate(target Screen) tea.Cmd {
	a.confirm = nil
	if !target.protected() {
		a.screen = target
		return nil
	}

	d := a.guard.Check(target.location(), target.roles()...)
	switch d.Outcome {
	case guard.Wait:
		a.returnTo = target
		a.screen = ScreenLoading
		return nil
	case guard.RedirectLogin:
		a.returnTo = target
		if target == ScreenEditor {
			a.returnTo = ScreenNotes
		}
		return a.showLogin("Sign in to continue to " + target.location())
	case guard.Deny:
		a.denied = d
		a.deniedTarget = target
		a.screen = ScreenDenied
		return nil
	}

	a.err = nil
	a.screen = target
	switch target {
	case ScreenNotes:
		return a.loadNotes()
	case ScreenAdmin:
		return a.loadDashboard()
	}
	return nil
}

func (a *App) showLogin(reason string) tea.Cmd {
	a.editor = nil
	a.busy = false
	a.loginForm = login.New(a.lastEmail, reason)
	a.screen = ScreenLogin
	return a.loginForm.Init()
}

func (a *App) openEditor(n *notes.Note) tea.Cmd {
	if cmd := a.navigate(ScreenEditor); a.screen != ScreenEditor {
		return cmd
	}
	a.editor = editor.New(n)
	return a.editor.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.board.SetSize(a.contentWidth(), a.contentHeight())
		a.panel.SetWidth(a.contentWidth())
		return a.forward(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.confirm != nil {
			return a.updateConfirm(msg)
		}
		switch a.screen {
		case ScreenNotes:
			return a.updateNotes(msg)
		case ScreenAdmin:
			return a.updateAdmin(msg)
		case ScreenDenied:
			return a.updateDenied(msg)
		case ScreenLoading:
			if key.Matches(msg, keys.Quit) {
				return a, tea.Quit
			}
			return a, nil
		}
		return a.forward(msg)

	case sessionChangedMsg:
		return a, a.handleSessionChanged()

	case login.SubmittedMsg:
		a.busy = true
		a.lastEmail = msg.Email
		return a, a.doLogin(msg.Email, msg.Password)

	case login.CancelledMsg:
		return a, tea.Quit

	case loginDoneMsg:
		a.busy = false
		if msg.err != nil {
			slog.Info("Login rejected", "email", a.lastEmail, "error", msg.err)
			a.loginForm = login.New(a.lastEmail, "")
			a.loginForm.SetError(loginErrorText(msg.err))
			return a, a.loginForm.Init()
		}
		a.loginForm = nil
		a.status = fmt.Sprintf("Signed in as %s", msg.user.Email)
		target := a.returnTo
		if !target.protected() {
			target = ScreenNotes
		}
		return a, a.navigate(target)

	case editor.SavedMsg:
		a.busy = true
		return a, a.saveNote(msg)

	case editor.CancelledMsg:
		a.editor = nil
		return a, a.navigate(ScreenNotes)

	case notesLoadedMsg:
		if errors.Is(msg.err, notes.ErrStale) {
			return a, nil
		}
		a.busy = false
		if msg.err != nil {
			return a, a.handleError(msg.err)
		}
		a.board.SetNotes(msg.notes)
		a.lastUpdate = time.Now()
		return a, nil

	case dashboardLoadedMsg:
		if errors.Is(msg.err, notes.ErrStale) {
			return a, nil
		}
		a.busy = false
		if msg.err != nil {
			return a, a.handleError(msg.err)
		}
		a.panel.SetData(msg.dashboard)
		a.lastUpdate = time.Now()
		return a, nil

	case mutationDoneMsg:
		a.busy = false
		if msg.err != nil {
			return a, a.handleError(msg.err)
		}
		a.status = msg.status
		a.editor = nil
		if a.screen == ScreenAdmin {
			return a, a.navigate(ScreenAdmin)
		}
		return a, a.navigate(ScreenNotes)
	}

	return a.forward(msg)
}

// forward passes messages to the active form; huh needs its internal
// messages as well as keys
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case a.screen == ScreenLogin && a.loginForm != nil && !a.busy:
		model, cmd := a.loginForm.Update(msg)
		a.loginForm = model.(*login.Form)
		return a, cmd
	case a.screen == ScreenEditor && a.editor != nil && !a.busy:
		model, cmd := a.editor.Update(msg)
		a.editor = model.(*editor.Editor)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, hasSelection := a.board.Selected()

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Up):
		a.board.Up()
	case key.Matches(msg, keys.Down):
		a.board.Down()
	case key.Matches(msg, keys.New):
		return a, a.openEditor(nil)
	case key.Matches(msg, keys.Edit):
		if hasSelection {
			return a, a.openEditor(&selected)
		}
	case key.Matches(msg, keys.Pin):
		if hasSelection && !a.busy {
			a.busy = true
			return a, a.togglePin(selected)
		}
	case key.Matches(msg, keys.Check):
		if hasSelection && !a.busy {
			index := int(msg.String()[0] - '1')
			if index >= len(selected.Items) {
				a.status = fmt.Sprintf("Note has %d checklist items", len(selected.Items))
				return a, nil
			}
			a.busy = true
			return a, a.toggleItem(selected, index)
		}
	case key.Matches(msg, keys.Delete):
		if hasSelection {
			a.confirm = &pendingDelete{id: selected.ID, label: noteLabel(selected)}
		}
	case key.Matches(msg, keys.Refresh):
		return a, a.navigate(ScreenNotes)
	case key.Matches(msg, keys.Admin):
		return a, a.navigate(ScreenAdmin)
	case key.Matches(msg, keys.Logout):
		return a, a.logout()
	}
	return a, nil
}

func (a *App) updateAdmin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Up):
		a.panel.Up()
	case key.Matches(msg, keys.Down):
		a.panel.Down()
	case key.Matches(msg, keys.Delete):
		if u, ok := a.panel.Selected(); ok {
			a.confirm = &pendingDelete{user: true, id: u.ID, label: u.Email}
		}
	case key.Matches(msg, keys.Refresh):
		return a, a.navigate(ScreenAdmin)
	case key.Matches(msg, keys.Back):
		return a, a.navigate(ScreenNotes)
	}
	return a, nil
}

func (a *App) updateDenied(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Back):
		return a, a.navigate(ScreenNotes)
	case key.Matches(msg, keys.Logout):
		return a, a.logout()
	}
	return a, nil
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		p := a.confirm
		a.confirm = nil
		a.busy = true
		if p.user {
			return a, a.deleteUser(p)
		}
		return a, a.deleteNote(p)
	case key.Matches(msg, keys.No):
		a.confirm = nil
		a.status = "Canceled"
	}
	return a, nil
}

func (a *App) handleSessionChanged() tea.Cmd {
	switch a.screen {
	case ScreenLogin:
		// signed in from another process
		if a.store.IsAuthenticated() && !a.busy {
			return a.navigate(a.returnTo)
		}
		return nil
	case ScreenDenied:
		if a.guard.Check(a.deniedTarget.location(), a.deniedTarget.roles()...).Outcome == guard.RedirectLogin {
			return a.navigate(a.deniedTarget)
		}
		return nil
	case ScreenLoading:
		return a.navigate(a.returnTo)
	}

	if a.screen.protected() && a.guard.Check(a.screen.location(), a.screen.roles()...).Outcome != guard.Allow {
		return a.navigate(a.screen)
	}
	return nil
}

// handleError routes 401 to login, 403 to the denial view, and shows the rest
func (a *App) handleError(err error) tea.Cmd {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		slog.Info("Session rejected by backend", "screen", a.screen.location())
		target := a.screen
		if !target.protected() {
			target = ScreenNotes
		}
		return a.navigate(target)
	case errors.Is(err, client.ErrForbidden):
		a.denied = guard.Decision{Outcome: guard.Deny, Reason: err.Error()}
		a.deniedTarget = a.screen
		a.screen = ScreenDenied
		return nil
	}
	slog.Error("Request failed", "screen", a.screen.location(), "error", err)
	a.err = err
	return nil
}

func (a *App) logout() tea.Cmd {
	if err := a.auth.Logout(); err != nil {
		slog.Error("Logout failed", "error", err)
	}
	a.board.SetNotes(nil)
	a.panel.SetData(nil)
	a.status = "Signed out"
	return a.navigate(ScreenNotes)
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.viewForm(a.loginForm)
	case ScreenNotes:
		content = a.board.View()
	case ScreenEditor:
		content = a.viewForm(a.editor)
	case ScreenAdmin:
		content = a.panel.View()
	case ScreenDenied:
		content = a.viewDenied()
	default:
		content = a.spinner.View() + " Restoring session..."
	}

	if line := a.statusLine(); line != "" {
		content += "\n\n" + line
	}
	return a.wrapWithFrame(content)
}

func (a *App) viewForm(m tea.Model) string {
	switch f := m.(type) {
	case *login.Form:
		if f != nil {
			return f.View()
		}
	case *editor.Editor:
		if f != nil {
			return f.View()
		}
	}
	return ""
}

// viewDenied renders the access-denied view shown on a role mismatch
func (a *App) viewDenied() string {
	body := styles.StatusCritical.Render(icons.Lock.String()+" Access denied") + "\n\n"
	body += a.denied.Reason + "\n"
	body += fmt.Sprintf("You are signed in as %s.", a.store.Role())
	return styles.Panel.Render(body)
}

func (a *App) statusLine() string {
	switch {
	case a.confirm != nil:
		kind := "note"
		if a.confirm.user {
			kind = "user and all their notes"
		}
		return styles.StatusWarning.Render(fmt.Sprintf("Delete %s %q? (y/n)", kind, a.confirm.label))
	case a.busy:
		return a.spinner.View() + " Working..."
	case a.err != nil:
		return styles.StatusCritical.Render(icons.Critical.String() + " " + a.err.Error())
	case a.status != "":
		return styles.StatusOK.Render(a.status)
	}
	return ""
}

func (a *App) contentWidth() int {
	if a.width < minTerminalWidth {
		return minTerminalWidth - 2
	}
	return a.width - 2
}

func (a *App) contentHeight() int {
	h := a.height - frameOverhead - 2 // status line
	if h < 0 {
		return 0
	}
	return h
}

// renderHeader creates the header bar with app branding and the account
func (a *App) renderHeader() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Keep Notes"))

	rightText := ""
	if u := a.store.User(); a.store.IsAuthenticated() && u != nil {
		icon := icons.User.String()
		if a.store.IsAdmin() {
			icon = icons.Admin.String()
		}
		rightText = contextStyle.Render(fmt.Sprintf(" %s %s (%s) ", icon, u.Email, a.store.Role()))
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
}

// renderFooter creates the footer with keyboard shortcuts and last update
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	rightText := ""
	if !a.lastUpdate.IsZero() && (a.screen == ScreenNotes || a.screen == ScreenAdmin) {
		rightText = statusStyle.Render(" Updated "+formatTimeSince(a.lastUpdate)) + " "
	}

	a.help.Width = width - 6 - lipgloss.Width(rightText)
	leftText := " " + a.help.ShortHelpView(bindingsFor(a.screen, a.confirm != nil, a.store.IsAdmin())) + " "

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

func noteLabel(n notes.Note) string {
	if n.Title != "" {
		return n.Title
	}
	if n.Content != "" {
		first := strings.SplitN(n.Content, "\n", 2)[0]
		if len([]rune(first)) > 30 {
			first = string([]rune(first)[:29]) + "…"
		}
		return first
	}
	return n.ID
}

func loginErrorText(err error) string {
	var ve *client.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, client.ErrAuthentication):
		return "Incorrect email or password"
	}
	return err.Error()
}

// Run starts the TUI. sessionPath is watched so a login or logout from
// another keep process reaches the running program.
func Run(ctx context.Context, c *client.Client, g *guard.Guard, sessionPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := New(c, g)
	app.ctx = ctx

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	// Send from a goroutine: Logout changes the session inside Update
	c.Session().OnChange(func() { go p.Send(sessionChangedMsg{}) })
	// The program redirects to login itself when a request comes back 401
	c.SetUnauthorizedHandler(func() { slog.Info("Session cleared after 401") })

	if sessionPath != "" {
		w, err := session.NewWatcher(c.Session(), sessionPath)
		if err != nil {
			slog.Warn("Session watcher disabled", "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
