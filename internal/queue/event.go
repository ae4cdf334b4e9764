// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit event types published to the auth.audit queue.
const (
	EventUserRegistered = "user.registered"
	EventUserLogin      = "user.login"
	EventTokenRefreshed = "token.refreshed"
	EventTokenRevoked   = "token.revoked"
	EventTokensRevoked  = "tokens.revoked_all"
	EventRoleChanged    = "role.changed"
)

// AuthEvent is published whenever the auth subsystem changes security
// state.  It carries enough information for downstream consumers to
// build an audit trail without querying the primary database.
type AuthEvent struct {
	Type     string `json:"type"`
	UserID   uint64 `json:"user_id"`
	Username string `json:"username,omitempty"`
	Detail   string `json:"detail,omitempty"`
	At       string `json:"at"` // RFC 3339 UTC
}
