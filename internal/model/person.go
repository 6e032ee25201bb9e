package model

import (
	"fmt"
	"time"
)

// Person is a row in the `persons` table.  A person can direct movies,
// write movies and appear in them through roles; none of those links
// live on this struct, they are loaded by the repository layer.
//
// Fields:
//  ID        – primary key identifier.
//  FirstName – given name.
//  LastName  – family name; listings sort by (last_name, first_name).
//  Born      – date of birth.
//  Died      – date of death, nil while the person is alive.
type Person struct {
	ID        uint64     // persons.id
	FirstName string     // persons.first_name
	LastName  string     // persons.last_name
	Born      time.Time  // persons.born
	Died      *time.Time // persons.died (nullable)
}

// Display renders the person for listings and credits: "Last, First (1940)"
// while alive, "Last, First (1940-2000)" once a death date is recorded.
func (p Person) Display() string {
	if p.Died != nil {
		return fmt.Sprintf("%s, %s (%d-%d)", p.LastName, p.FirstName, p.Born.Year(), p.Died.Year())
	}
	return fmt.Sprintf("%s, %s (%d)", p.LastName, p.FirstName, p.Born.Year())
}

// Filmography is the person detail projection: the person plus every
// movie they directed or wrote and every acting credit, each credit
// carrying the character name and the movie it belongs to.
type Filmography struct {
	Person
	Directed []Movie        // movies where this person is the director
	Written  []Movie        // movies listing this person as a writer
	ActedIn  []ActingCredit // roles played, joined with their movies
}

// ActingCredit is one acting credit inside a Filmography.
type ActingCredit struct {
	RoleID    uint64 // roles.id
	Character string // roles.name
	Movie     Movie  // the movie the role belongs to
}
