package model

import "time"

// Vote values.  A ballot is either thumbs up or thumbs down.
const (
	VoteUp   int8 = 1
	VoteDown int8 = -1
)

// ValidVoteValue reports whether v is one of the two accepted ballot values.
func ValidVoteValue(v int8) bool {
	return v == VoteUp || v == VoteDown
}

// Vote is a row in the `votes` table: one user's ballot on one movie.
// The pair (user_id, movie_id) is unique at the schema level, so a
// user changes their mind by updating the value of their existing row,
// never by inserting a second one.  VotedOn is refreshed by the
// database on every save.
//
// Fields:
//  ID      – primary key identifier; zero on a vote not yet persisted.
//  Value   – +1 or -1.
//  UserID  – the voter; only this user may mutate the row.
//  MovieID – the movie the ballot is for.
//  VotedOn – timestamp of the last save.
type Vote struct {
	ID      uint64    // votes.id
	Value   int8      // votes.value
	UserID  uint64    // votes.user_id
	MovieID uint64    // votes.movie_id
	VotedOn time.Time // votes.voted_on
}
