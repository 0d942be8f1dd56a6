// ABOUTME: Interactive prompts for commands run without all their flags
// ABOUTME: Uses huh forms; tests replace the prompt functions

package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/markalston/keepnotes/internal/tui/styles"
)

// promptCredentials asks for whichever of email and password is blank
var promptCredentials = func(title string, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid email address")
				}
				return nil
			}))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...).Title(title)).
		WithTheme(styles.FormTheme()).
		Run()
}

// confirm asks a yes/no question, defaulting to no
var confirm = func(title string) (bool, error) {
	ok := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&ok),
	)).WithTheme(styles.FormTheme()).Run()
	return ok, err
}
