// ABOUTME: TUI command for the keep CLI
// ABOUTME: Opens the interactive notes board; logs go to the config directory

package cmd

import (
	"fmt"

	"github.com/markalston/keepnotes/internal/logger"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/markalston/keepnotes/internal/tui"
	"github.com/spf13/cobra"
)

// tuiCmd has no roles annotation: the TUI runs its own guard and shows the
// login form when no session is stored
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive notes board",
	Long: `Open the interactive terminal UI. Without a session it starts at the
login form and continues to the notes board once signed in.

Logs are written to debug.log in the config directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := logger.OpenFile(current.cfg.ConfigDir)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger.Init(f, current.cfg.LogLevel, current.cfg.LogFormat)

		ctx, cancel := commandContext()
		defer cancel()
		path := session.NewFileStorage(current.cfg.ConfigDir).Path()
		return tui.Run(ctx, current.client, current.guard, path)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
