// ABOUTME: Access guard deciding whether a location may be shown
// ABOUTME: Derives Loading / Unauthenticated / Authenticated from the session store

package guard

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/markalston/keepnotes/internal/session"
)

// State is the authentication state seen by the guard
type State int

const (
	// Loading means the session has not been restored yet
	Loading State = iota
	// Unauthenticated means there is no token
	Unauthenticated
	// Authenticated means a token is held; see Guard.Role for the role
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Outcome is what the caller should do with a location
type Outcome int

const (
	// Wait renders a placeholder until the session is restored
	Wait Outcome = iota
	// RedirectLogin sends the user to login, remembering ReturnTo
	RedirectLogin
	// Deny shows an access-denied view in place of the location
	Deny
	// Allow renders the location
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect-login"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decision is the result of Check
type Decision struct {
	Outcome  Outcome
	ReturnTo string // set for RedirectLogin
	Reason   string // set for Deny and RedirectLogin
}

// Guard gates protected locations on the session's state and role
type Guard struct {
	store *session.Store
}

// New creates a guard reading from store
func New(store *session.Store) *Guard {
	return &Guard{store: store}
}

// State reports the current authentication state
func (g *Guard) State() State {
	switch {
	case !g.store.Restored():
		return Loading
	case !g.store.IsAuthenticated():
		return Unauthenticated
	default:
		return Authenticated
	}
}

// Role is the role used for decisions. Missing or unknown roles count as user.
func (g *Guard) Role() session.Role {
	return g.store.Role()
}

// Check decides whether location may be shown to the current session.
// An empty allowed list admits any authenticated role.
func (g *Guard) Check(location string, allowed ...session.Role) Decision {
	switch g.State() {
	case Loading:
		return Decision{Outcome: Wait}
	case Unauthenticated:
		return Decision{Outcome: RedirectLogin, ReturnTo: location, Reason: "login required"}
	}

	role := g.Role()
	if len(allowed) == 0 || slices.Contains(allowed, role) {
		return Decision{Outcome: Allow}
	}

	email := ""
	if u := g.store.User(); u != nil {
		email = u.Email
	}
	slog.Warn("Access denied",
		"location", location,
		"required_roles", allowed,
		"user_role", role,
		"email", email,
	)
	return Decision{Outcome: Deny, Reason: denyReason(allowed)}
}

func denyReason(allowed []session.Role) string {
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = string(r)
	}
	if len(names) == 1 {
		return fmt.Sprintf("access denied: %ss only", names[0])
	}
	return "access denied: requires one of " + strings.Join(names, ", ")
}

// ParseRoles reads a comma-separated role list such as "user,admin".
// Blank entries are skipped; unknown names are kept so they never match.
func ParseRoles(s string) []session.Role {
	var roles []session.Role
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		roles = append(roles, session.Role(strings.ToLower(part)))
	}
	return roles
}
