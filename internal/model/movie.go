package model

import "fmt"

// Movie is a row in the `movies` table.  DirectorID is nullable: a
// movie survives the deletion of its director, the reference is simply
// cleared.  Writers and actors are many-to-many links resolved by the
// repository layer (actors are derived from roles).
//
// Fields:
//  ID         – primary key identifier.
//  Title      – movie title.
//  Plot       – synopsis text.
//  Year       – release year; listings sort by (year DESC, title ASC).
//  Runtime    – runtime in minutes.
//  Website    – optional official site URL, empty when unknown.
//  DirectorID – directing person, nil when unset or the person was deleted.
type Movie struct {
	ID         uint64  // movies.id
	Title      string  // movies.title
	Plot       string  // movies.plot
	Year       uint16  // movies.year
	Runtime    uint16  // movies.runtime
	Website    string  // movies.website ('' when absent)
	DirectorID *uint64 // movies.director_id (nullable)
}

// Display renders the movie for listings: "Title (1999)".
func (m Movie) Display() string {
	return fmt.Sprintf("%s (%d)", m.Title, m.Year)
}

// MovieDetail is the read-optimized movie projection: the movie with
// its director resolved, writers and cast batch-loaded, and the ballot
// tally attached.  Score is nil when nobody has voted yet, otherwise
// the sum of all vote values for the movie.
type MovieDetail struct {
	Movie
	Director *Person      // nil when the movie has no director
	Writers  []Person     // ordered by (last_name, first_name)
	Cast     []CastCredit // one entry per role row
	Score    *int64       // SUM(votes.value), nil when unvoted
}

// CastCredit pairs an actor with the character they played in one movie.
type CastCredit struct {
	RoleID    uint64 // roles.id
	Character string // roles.name
	Person    Person // the credited actor
}
