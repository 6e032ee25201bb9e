// Package queue defines message payloads exchanged over the message broker.
package queue

// VoteCastEvent is published whenever a vote is created or its value is
// changed. It carries enough information for downstream consumers to log or
// feed analytics without querying the primary database.
type VoteCastEvent struct {
	VoteID  uint64 `json:"vote_id"`
	UserID  uint64 `json:"user_id"`
	MovieID uint64 `json:"movie_id"`
	Value   int8   `json:"value"`
	VotedOn string `json:"voted_on"`
}
