// ABOUTME: Admin commands for the keep CLI
// ABOUTME: Restricted to the admin role by the access guard

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/keepnotes/internal/admin"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:         "admin",
	Short:       "Manage all users and notes (admins only)",
	Annotations: map[string]string{rolesAnnotation: "admin"},
}

var adminNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List every user's notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runAdminNotes(ctx, current, cmd.OutOrStdout()))
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runAdminUsers(ctx, current, cmd.OutOrStdout()))
	},
}

var adminRmUserCmd = &cobra.Command{
	Use:   "rm-user <id>",
	Short: "Delete an account and its notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runAdminRmUser(ctx, current, cmd.OutOrStdout(), args[0], assumeYes))
	},
}

var adminRmNoteCmd = &cobra.Command{
	Use:   "rm-note <id>",
	Short: "Delete any user's note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runAdminRmNote(ctx, current, cmd.OutOrStdout(), args[0], assumeYes))
	},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarize accounts and their notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runAdminDashboard(ctx, current, cmd.OutOrStdout()))
	},
}

func init() {
	for _, c := range []*cobra.Command{adminRmUserCmd, adminRmNoteCmd} {
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
	}
	adminCmd.AddCommand(adminNotesCmd, adminUsersCmd, adminRmUserCmd, adminRmNoteCmd, adminDashboardCmd)
	rootCmd.AddCommand(adminCmd)
}

// runAdminNotes prints all notes and returns exit code
func runAdminNotes(ctx context.Context, a *app, w io.Writer) int {
	list, err := admin.New(a.client).Notes().Refresh(ctx)
	if err != nil {
		return fail(w, err)
	}
	printNotes(w, list, true)
	return exitOK
}

// runAdminUsers prints accounts and returns exit code
func runAdminUsers(ctx context.Context, a *app, w io.Writer) int {
	users, err := admin.New(a.client).ListUsers(ctx)
	if err != nil {
		return fail(w, err)
	}
	printUsers(w, users)
	return exitOK
}

// runAdminRmUser deletes an account after confirmation and returns exit code
func runAdminRmUser(ctx context.Context, a *app, w io.Writer, id string, yes bool) int {
	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete user %s and all their notes?", id))
		if err != nil {
			return fail(w, err)
		}
		if !ok {
			fmt.Fprintln(w, "Canceled")
			return exitOK
		}
	}

	svc := admin.New(a.client)
	if err := svc.DeleteUser(ctx, id); err != nil {
		return fail(w, err)
	}
	users, err := svc.ListUsers(ctx)
	if err != nil {
		return fail(w, err)
	}
	if !IsJSONOutput() {
		fmt.Fprintf(w, "Deleted user %s\n\n", id)
	}
	printUsers(w, users)
	return exitOK
}

// runAdminRmNote deletes any note after confirmation and returns exit code
func runAdminRmNote(ctx context.Context, a *app, w io.Writer, id string, yes bool) int {
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

	svc := admin.New(a.client)
	if err := svc.DeleteNote(ctx, id); err != nil {
		return fail(w, err)
	}
	return reloadAfter(ctx, w, svc.Notes(), fmt.Sprintf("Deleted note %s", id), nil)
}

// runAdminDashboard prints the per-user summary and returns exit code
func runAdminDashboard(ctx context.Context, a *app, w io.Writer) int {
	d, err := admin.New(a.client).Dashboard(ctx)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, formatDashboardJSON(d))
		return exitOK
	}
	fmt.Fprint(w, formatDashboardHuman(d))
	return exitOK
}

func printUsers(w io.Writer, users []admin.Account) {
	if IsJSONOutput() {
		writeJSON(w, users)
		return
	}
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-6s  %s\n", "ID", "ROLE", "EMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%-36s  %-6s  %s\n", u.ID, u.Role, u.Email)
	}
}

// formatDashboardHuman formats the dashboard for human readability
func formatDashboardHuman(d *admin.Dashboard) string {
	s := fmt.Sprintf("Users: %d   Notes: %d\n\n", len(d.Users), d.TotalNotes)
	s += fmt.Sprintf("%-30s  %-6s  %5s  %6s\n", "EMAIL", "ROLE", "NOTES", "PINNED")
	for _, u := range d.Users {
		s += fmt.Sprintf("%-30s  %-6s  %5d  %6d\n", u.Email, u.Role, u.NoteCount, u.PinnedCount)
	}
	if d.Orphaned > 0 {
		s += fmt.Sprintf("\n%d notes belong to no listed user\n", d.Orphaned)
	}
	return s
}

// formatDashboardJSON shapes the dashboard for JSON output
func formatDashboardJSON(d *admin.Dashboard) map[string]any {
	users := make([]map[string]any, 0, len(d.Users))
	for _, u := range d.Users {
		users = append(users, map[string]any{
			"id":     u.ID,
			"email":  u.Email,
			"role":   u.Role,
			"notes":  u.NoteCount,
			"pinned": u.PinnedCount,
		})
	}
	return map[string]any{
		"users":       users,
		"total_notes": d.TotalNotes,
		"orphaned":    d.Orphaned,
	}
}
