// ABOUTME: Key bindings for the TUI screens
// ABOUTME: Rendered in the footer through the bubbles help component

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Edit    key.Binding
	Pin     key.Binding
	Check   key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Admin   key.Binding
	Back    key.Binding
	Logout  key.Binding
	Quit    key.Binding
	Yes     key.Binding
	No      key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Pin:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
	Check:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "check")),
	Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Admin:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "admin")),
	Back:    key.NewBinding(key.WithKeys("b", "esc"), key.WithHelp("b", "back")),
	Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	No:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
}

// bindingsFor returns the shortcuts shown in the footer for a screen
func bindingsFor(s Screen, confirming, isAdmin bool) []key.Binding {
	if confirming {
		return []key.Binding{keys.Yes, keys.No}
	}
	switch s {
	case ScreenNotes:
		b := []key.Binding{keys.New, keys.Edit, keys.Pin, keys.Check, keys.Delete, keys.Refresh}
		if isAdmin {
			b = append(b, keys.Admin)
		}
		return append(b, keys.Logout, keys.Quit)
	case ScreenAdmin:
		return []key.Binding{keys.Up, keys.Down, keys.Delete, keys.Refresh, keys.Back, keys.Quit}
	case ScreenDenied:
		return []key.Binding{keys.Back, keys.Logout, keys.Quit}
	case ScreenLogin:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
		}
	case ScreenEditor:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{keys.Quit}
}
