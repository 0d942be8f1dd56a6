// ABOUTME: Tests for the access guard
// ABOUTME: Verifies state derivation and role-gated decisions

package guard

import (
	"testing"

	"github.com/markalston/keepnotes/internal/session"
)

func storeWith(t *testing.T, token string, user *session.User) *session.Store {
	t.Helper()
	s := session.New(session.NewMemoryStorage())
	if token == "" {
		if err := s.Restore(); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		return s
	}
	if err := s.Set(token, user); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	return s
}

func TestCheck_LoadingWaits(t *testing.T) {
	g := New(session.New(session.NewMemoryStorage()))

	if g.State() != Loading {
		t.Fatalf("State = %v, want %v", g.State(), Loading)
	}
	d := g.Check("/notes", session.RoleUser)
	if d.Outcome != Wait {
		t.Errorf("Outcome = %v, want %v", d.Outcome, Wait)
	}
}

func TestCheck_UnauthenticatedRedirectsWithReturnTo(t *testing.T) {
	g := New(storeWith(t, "", nil))

	d := g.Check("/admin", session.RoleAdmin)
	if d.Outcome != RedirectLogin {
		t.Fatalf("Outcome = %v, want %v", d.Outcome, RedirectLogin)
	}
	if d.ReturnTo != "/admin" {
		t.Errorf("ReturnTo = %q, want %q", d.ReturnTo, "/admin")
	}
}

// role user is denied {admin}; role admin is admitted to {user, admin} and {admin}
func TestCheck_RoleMembership(t *testing.T) {
	tests := []struct {
		name    string
		role    session.Role
		allowed []session.Role
		want    Outcome
	}{
		{"user on admin view", session.RoleUser, []session.Role{session.RoleAdmin}, Deny},
		{"user on shared view", session.RoleUser, []session.Role{session.RoleUser, session.RoleAdmin}, Allow},
		{"admin on shared view", session.RoleAdmin, []session.Role{session.RoleUser, session.RoleAdmin}, Allow},
		{"admin on admin view", session.RoleAdmin, []session.Role{session.RoleAdmin}, Allow},
		{"admin on user-only view", session.RoleAdmin, []session.Role{session.RoleUser}, Deny},
		{"unknown role on admin view", session.Role("root"), []session.Role{session.RoleAdmin}, Deny},
		{"unknown role treated as user", session.Role("root"), []session.Role{session.RoleUser}, Allow},
		{"no roles listed", session.RoleUser, nil, Allow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := New(storeWith(t, "tok", &session.User{Email: "a@example.com", Role: tc.role}))

			if g.State() != Authenticated {
				t.Fatalf("State = %v, want %v", g.State(), Authenticated)
			}
			d := g.Check("/somewhere", tc.allowed...)
			if d.Outcome != tc.want {
				t.Errorf("Outcome = %v, want %v", d.Outcome, tc.want)
			}
			if d.Outcome == Deny && d.Reason == "" {
				t.Error("Deny decision should carry a reason for the denial view")
			}
		})
	}
}

func TestCheck_MissingUserCountsAsUser(t *testing.T) {
	g := New(storeWith(t, "tok", nil))

	if d := g.Check("/admin", session.RoleAdmin); d.Outcome != Deny {
		t.Errorf("Outcome = %v, want %v", d.Outcome, Deny)
	}
	if d := g.Check("/notes", session.RoleUser); d.Outcome != Allow {
		t.Errorf("Outcome = %v, want %v", d.Outcome, Allow)
	}
}

func TestCheck_FollowsSessionChanges(t *testing.T) {
	s := storeWith(t, "tok", &session.User{Role: session.RoleAdmin})
	g := New(s)

	if d := g.Check("/admin", session.RoleAdmin); d.Outcome != Allow {
		t.Fatalf("Outcome = %v, want %v", d.Outcome, Allow)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if d := g.Check("/admin", session.RoleAdmin); d.Outcome != RedirectLogin {
		t.Errorf("Outcome after logout = %v, want %v", d.Outcome, RedirectLogin)
	}
}

func TestDenyReason(t *testing.T) {
	if got := denyReason([]session.Role{session.RoleAdmin}); got != "access denied: admins only" {
		t.Errorf("denyReason = %q", got)
	}
	if got := denyReason([]session.Role{session.RoleUser, session.RoleAdmin}); got != "access denied: requires one of user, admin" {
		t.Errorf("denyReason = %q", got)
	}
}

func TestParseRoles(t *testing.T) {
	got := ParseRoles(" user, ADMIN ,,")
	if len(got) != 2 || got[0] != session.RoleUser || got[1] != session.RoleAdmin {
		t.Errorf("ParseRoles = %v", got)
	}
	if got := ParseRoles(""); len(got) != 0 {
		t.Errorf("ParseRoles(\"\") = %v, want empty", got)
	}
}
