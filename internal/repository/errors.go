// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// to distinguish between different failure scenarios.  ErrNotFound covers
// both a missing row and a row filtered out by an owner-scoped query, while
// ErrForbidden is returned when a repository checks ownership itself and the
// row belongs to someone else.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested row does not exist (or, for
// owner-scoped lookups, does not exist for that owner).
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness constraint,
// such as registering a username that is already taken.
var ErrConflict = errors.New("conflict")

// isDuplicate recognises unique-key violations from both drivers: MySQL
// error 1062 and SQLite's "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}
