package storage

import "errors"

// Sentinel errors returned by every store implementation. Handlers translate
// these to HTTP statuses; services may branch on them with errors.Is.
var (
	// ErrNotFound means the referenced entity does not exist (or, for
	// sessions, has expired).
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint was violated: duplicate
	// email, badge or exercise name, a second participation for the same
	// (user, challenge) pair, or a second pending invitation for the same
	// (challenge, from, to) triple.
	ErrConflict = errors.New("already exists")
)
