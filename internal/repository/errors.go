// Package repository implements the persistence layer over database/sql.
// Sentinel errors defined here let the service and handler layers map
// storage outcomes onto stable HTTP statuses without inspecting driver
// error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup matches no live row.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists and ErrEmailExists are returned when an insert or
// update trips the corresponding unique index.  MySQL, not the service
// layer, is the arbiter of uniqueness, so concurrent registrations of
// the same name resolve to exactly one success.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// ErrDuplicate covers a unique-index violation that could not be
// attributed to a specific column.
var ErrDuplicate = errors.New("duplicate entry")

// mapDuplicate inspects a MySQL error for a duplicate-entry violation
// (error 1062) and maps it onto the sentinel for the offending index.
// Index names follow the schema: uq_users_username, uq_users_email,
// uq_refresh_tokens_hash.
func mapDuplicate(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	switch {
	case strings.Contains(msg, "username"):
		return ErrUsernameExists
	case strings.Contains(msg, "email"):
		return ErrEmailExists
	default:
		return ErrDuplicate
	}
}
