package auth

import (
	"context"
	"time"
)

// Principal is the read-only projection of an account used for
// authentication and authorization decisions. It is resolved once per
// request and carries no persistence behavior.
type Principal struct {
	ID       int64
	Username string
	// PasswordHash is an opaque credential reference. It is never logged
	// and never compared outside VerifyPassword.
	PasswordHash string
	Division     string
	Roles        RoleSet
	// Tokens issued before either timestamp are invalid.
	LastPasswordReset *time.Time
	LastLogout        *time.Time
}

// Directory resolves usernames to principals and records account-level
// security events. Implementations own the consistency of the underlying
// user records; every decision in this package reads one snapshot.
type Directory interface {
	Lookup(ctx context.Context, username string) (Principal, error)
	ListUsernames(ctx context.Context) ([]string, error)
	ListByDivision(ctx context.Context, division string) ([]Principal, error)
	// TouchLogout stamps the account's last-logout instant, retroactively
	// invalidating tokens issued before it.
	TouchLogout(ctx context.Context, username string, at time.Time) error
	// TouchPasswordReset stores the new credential hash together with the
	// reset instant that invalidates older tokens.
	TouchPasswordReset(ctx context.Context, username, passwordHash string, at time.Time) error
}
