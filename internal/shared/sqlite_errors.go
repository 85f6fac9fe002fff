// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "strings"

// IsSQLiteConstraintError checks if the error is a SQLITE_CONSTRAINT error.
// This covers both primary-key violations (duplicate session id) and
// foreign-key violations (message referencing an unknown session).
func IsSQLiteConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_CONSTRAINT") ||
		strings.Contains(msg, "constraint failed")
}

// IsSQLiteBusyError checks if the error is a SQLITE_BUSY or "database is
// locked" error. These are concurrency errors that may warrant retry at the
// caller's discretion; this process never retries them itself.
func IsSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked")
}
