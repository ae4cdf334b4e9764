package model

import "time"

// Role is the closed set of authorization roles a user may hold.  The
// value is stored verbatim in the `users.role` column and in the `role`
// claim of issued access tokens.  Unknown values read from either place
// must be treated as invalid rather than silently mapped to a default.
type Role string

const (
	RoleUser  Role = "user"  // regular account, owns only its own resources
	RoleAdmin Role = "admin" // full access to the admin surface
)

// ParseRole validates a raw role string against the closed enum.  It
// returns false for anything outside {user, admin} so that callers fail
// closed on unrecognized values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// User mirrors a row of the `users` table.  Username and email carry
// unique indexes; uniqueness is enforced by MySQL, not by pre-checks in
// the service layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (user or admin), defaults to user.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token string handed to the client is never stored; only its SHA-256
// hash.  Rows are never deleted: revocation flips the Revoked flag
// one-way, preserving an audit trail of every session ever issued.
//
// A token is usable for refresh or logout only while Revoked is false
// and ExpiresAt is in the future.  The table, not the token's embedded
// expiry, is the source of truth for revocation.
type RefreshToken struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	TokenHash string    `json:"-"`
	Revoked   bool      `json:"revoked"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the token can still be exchanged at the given
// instant.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// UserTokenCount pairs a user with the number of refresh tokens ever
// issued to them.  Used by the admin user listing.
type UserTokenCount struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	TokenCount int64  `json:"token_count"`
}
