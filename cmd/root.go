// ABOUTME: Root command for the keep CLI
// ABOUTME: Handles global flags, configuration, and the access guard for every command

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/keepnotes/internal/client"
	"github.com/markalston/keepnotes/internal/config"
	"github.com/markalston/keepnotes/internal/guard"
	"github.com/markalston/keepnotes/internal/logger"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK     = 0
	exitError  = 2
	exitDenied = 3 // login required or access denied
)

// rolesAnnotation lists the roles a command admits, comma-separated.
// Commands without it (on themselves or a parent) are public.
const rolesAnnotation = "keep/roles"

var (
	apiURL     string
	configDir  string
	timeout    string
	jsonOutput bool
)

// current is the runtime built by the root PersistentPreRunE
var current *app

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "keep",
	Short: "Command-line client for Keep Notes",
	Long: `keep is a command-line and terminal UI client for the Keep Notes API.

Sign in with "keep login", then manage notes with "keep notes" or open the
interactive UI with "keep tui". Admin accounts also get "keep admin".

Exit codes:
  0 - Success
  2 - Error (connectivity, validation, backend error)
  3 - Login required or access denied

Environment Variables:
  KEEP_API_URL     Backend API URL (default: http://localhost:8000)
  KEEP_TIMEOUT     Request timeout (default: 10s)
  KEEP_CONFIG_DIR  Directory for session.json and config.yaml
  LOG_LEVEL        debug, info, warn, error (default: info)
  LOG_FORMAT       text, json (default: text)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		current = a
		return exitWith(authorize(a, cmd, cmd.ErrOrStderr()))
	},
}

// exitCode carries a process exit code up through cobra
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides KEEP_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (overrides KEEP_CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "", "Request timeout, e.g. 5s (overrides KEEP_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// app is the runtime shared by every command: configuration, the session
// restored from disk, the API client bound to it, and the guard over it
type app struct {
	cfg    *config.Config
	store  *session.Store
	client *client.Client
	guard  *guard.Guard
}

// loadApp resolves configuration (flag > env > config.yaml > default),
// restores the session, and wires the client's 401 handling to a message
// on stderr
func loadApp(stderr io.Writer) (*app, error) {
	cfg, err := config.LoadDir(configDir)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = config.NormalizeURL(apiURL)
	}
	if timeout != "" {
		d, err := config.ParseTimeout(timeout)
		if err != nil {
			return nil, err
		}
		cfg.Timeout = d
	}
	logger.Init(stderr, cfg.LogLevel, cfg.LogFormat)

	return newApp(cfg, session.NewFileStorage(cfg.ConfigDir), stderr)
}

func newApp(cfg *config.Config, storage session.Storage, stderr io.Writer) (*app, error) {
	store := session.New(storage)
	if err := store.Restore(); err != nil {
		return nil, err
	}
	c := client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.Timeout),
		client.WithUnauthorizedHandler(func() {
			fmt.Fprintln(stderr, `Session expired or invalid; run "keep login" to sign in again.`)
		}),
	)
	return &app{cfg: cfg, store: store, client: c, guard: guard.New(store)}, nil
}

// authorize applies the guard to cmd using the nearest roles annotation
func authorize(a *app, cmd *cobra.Command, w io.Writer) int {
	roles, ok := requiredRoles(cmd)
	if !ok {
		return exitOK
	}

	location := cmd.CommandPath()
	d := a.guard.Check(location, roles...)
	switch d.Outcome {
	case guard.Allow:
		return exitOK
	case guard.RedirectLogin:
		fmt.Fprintf(w, "Error: login required. Run \"keep login\", then retry: %s\n", d.ReturnTo)
	case guard.Deny:
		fmt.Fprintf(w, "Error: %s (signed in as %s)\n", d.Reason, a.guard.Role())
	default:
		fmt.Fprintln(w, "Error: session not loaded")
		return exitError
	}
	return exitDenied
}

func requiredRoles(cmd *cobra.Command) ([]session.Role, bool) {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[rolesAnnotation]; ok {
			return guard.ParseRoles(v), true
		}
	}
	return nil, false
}

// commandContext cancels on SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// exitWith turns a runX exit code into cobra's error return
func exitWith(code int) error {
	if code == exitOK {
		return nil
	}
	return exitCode(code)
}

// fail prints err and maps it to an exit code
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden) {
		return exitDenied
	}
	return exitError
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
