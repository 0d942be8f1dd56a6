// ABOUTME: Account commands for the keep CLI: login, register, logout, whoami
// ABOUTME: Login stores the token in session.json; logout removes it

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/markalston/keepnotes/internal/auth"
	"github.com/markalston/keepnotes/internal/session"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	registerRole  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. Missing values are prompted for.

The password may also be given in KEEP_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runLogin(ctx, current, cmd.OutOrStdout(), loginEmail, passwordOrEnv(loginPassword)))
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return exitWith(runRegister(ctx, current, cmd.OutOrStdout(), loginEmail, passwordOrEnv(loginPassword), session.Role(registerRole)))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runLogout(current, cmd.OutOrStdout()))
	},
}

var whoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the signed-in account",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{rolesAnnotation: "user,admin"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runWhoami(current, cmd.OutOrStdout()))
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "Account email")
		c.Flags().StringVar(&loginPassword, "password", "", "Account password (prefer KEEP_PASSWORD or the prompt)")
	}
	registerCmd.Flags().StringVar(&registerRole, "role", string(session.RoleUser), "Account role: user or admin")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("KEEP_PASSWORD")
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, a *app, w io.Writer, email, password string) int {
	if err := promptCredentials("Sign in to Keep Notes", &email, &password); err != nil {
		return fail(w, err)
	}

	user, err := auth.New(a.client).Login(ctx, email, password)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, user)
	} else {
		fmt.Fprintf(w, "Logged in as %s (%s)\n", user.Email, user.Role)
	}
	return exitOK
}

// runRegister creates an account and returns exit code
func runRegister(ctx context.Context, a *app, w io.Writer, email, password string, role session.Role) int {
	if err := promptCredentials("Create a Keep Notes account", &email, &password); err != nil {
		return fail(w, err)
	}

	if err := auth.New(a.client).Register(ctx, email, password, role); err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, map[string]string{"email": email, "role": string(role)})
	} else {
		fmt.Fprintf(w, "Registered %s. Run \"keep login\" to sign in.\n", email)
	}
	return exitOK
}

// runLogout clears the session and returns exit code
func runLogout(a *app, w io.Writer) int {
	was := a.store.User()
	if err := auth.New(a.client).Logout(); err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, map[string]bool{"logged_out": true})
		return exitOK
	}
	if was != nil && was.Email != "" {
		fmt.Fprintf(w, "Logged out %s\n", was.Email)
	} else {
		fmt.Fprintln(w, "Logged out")
	}
	return exitOK
}

// runWhoami prints the session's account and returns exit code
func runWhoami(a *app, w io.Writer) int {
	user := a.store.User()
	if user == nil {
		user = &session.User{}
	}
	role := a.store.Role()
	exp, hasExp := a.store.ExpiresAt()

	if IsJSONOutput() {
		out := map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  role,
		}
		if hasExp {
			out["expires_at"] = exp.UTC().Format(time.RFC3339)
		}
		writeJSON(w, out)
		return exitOK
	}

	fmt.Fprintf(w, "Email:   %s\n", valueOr(user.Email, "(unknown)"))
	fmt.Fprintf(w, "Role:    %s\n", role)
	fmt.Fprintf(w, "User ID: %s\n", valueOr(user.ID, "(unknown)"))
	if hasExp {
		fmt.Fprintf(w, "Expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return exitOK
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
