// ABOUTME: Sign-in screen as a bubbletea model
// ABOUTME: Wraps a huh form and reports the entered credentials as a message

package login

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// SubmittedMsg is sent when the user completes the form
type SubmittedMsg struct {
	Email    string
	Password string
}

// CancelledMsg is sent when the user leaves the form with esc
type CancelledMsg struct{}

// Form is the sign-in form
type Form struct {
	form     *huh.Form
	email    string
	password string
	reason   string
	err      string
}

// New creates a sign-in form. email pre-fills the first field; reason is
// shown above the form (why login is needed).
func New(email, reason string) *Form {
	f := &Form{email: email, reason: reason}
	f.form = f.build()
	return f
}

// SetError shows msg under the form, e.g. after rejected credentials
func (f *Form) SetError(msg string) {
	f.err = msg
}

// Email returns what was typed in the email field
func (f *Form) Email() string {
	return f.email
}

func (f *Form) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&f.email).
				Validate(func(s string) error {
					if !strings.Contains(strings.TrimSpace(s), "@") {
						return errors.New("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		).Title("Sign in").
			Description("Use the account you registered with keep register"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		email, password := strings.TrimSpace(f.email), f.password
		return f, func() tea.Msg { return SubmittedMsg{Email: email, Password: password} }
	}
	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	if f.reason != "" {
		sb.WriteString(styles.Subtitle.Render(f.reason))
		sb.WriteString("\n")
	}
	sb.WriteString(f.form.View())
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(f.err))
	}
	return sb.String()
}
