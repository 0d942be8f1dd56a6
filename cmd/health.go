// ABOUTME: Health command for the keep CLI
// ABOUTME: Checks backend connectivity without requiring a session

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the Keep Notes backend and show whether a session is stored.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runHealth(ctx, current, cmd.OutOrStdout()))
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, a *app, w io.Writer) int {
	resp, err := a.client.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, formatHealthJSON(a, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(a, resp))
	}
	return exitOK
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(a *app, resp *client.HealthResponse) string {
	signedIn := "no"
	if u := a.store.User(); a.store.IsAuthenticated() && u != nil && u.Email != "" {
		signedIn = fmt.Sprintf("%s (%s)", u.Email, a.store.Role())
	} else if a.store.IsAuthenticated() {
		signedIn = fmt.Sprintf("yes (%s)", a.store.Role())
	}
	return fmt.Sprintf(`Backend:   %s
Status:    %s
Signed in: %s`, a.client.BaseURL(), valueOr(resp.Message, "ok"), signedIn)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(a *app, resp *client.HealthResponse) map[string]any {
	return map[string]any{
		"backend":       a.client.BaseURL(),
		"message":       resp.Message,
		"authenticated": a.store.IsAuthenticated(),
	}
}
