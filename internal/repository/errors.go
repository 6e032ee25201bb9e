// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrAlreadyVoted is returned when an insert into `votes` trips the
// (user_id, movie_id) uniqueness constraint. The constraint is the
// backstop against two concurrent first-time ballots; callers should
// direct the user to the update path instead. Handlers translate this
// into an HTTP 409 response.
var ErrAlreadyVoted = errors.New("already voted")

// ErrDuplicateRole is returned when an insert into `roles` trips the
// (movie_id, person_id, name) uniqueness constraint: the same actor
// cannot be credited twice with the identical character on one movie.
var ErrDuplicateRole = errors.New("duplicate role")
