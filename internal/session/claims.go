// ABOUTME: Reads identity claims from an access token without verifying it
// ABOUTME: The server verifies; the client only needs the role and expiry

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the fields keep reads out of a server-issued access token.
// The signature is not checked: the server is the only party that verifies
// tokens, the client only displays what the server put there.
type Claims struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// ParseClaims decodes the payload of a JWT without verifying it. Opaque
// (non-JWT) tokens return an error; callers treat that as "no claims".
func ParseClaims(token string) (Claims, error) {
	var c Claims
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return c, fmt.Errorf("token is not a readable JWT: %w", err)
	}

	// The backend uses user_id; other issuers use sub
	c.UserID = stringClaim(mc, "user_id")
	if c.UserID == "" {
		if sub, err := mc.GetSubject(); err == nil {
			c.UserID = sub
		}
	}
	c.Email = stringClaim(mc, "email")
	c.Role = Role(stringClaim(mc, "role"))

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	switch v := mc[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
