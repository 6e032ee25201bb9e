package model

// Role links one person to one movie with the name of the character
// they played.  The triple (movie_id, person_id, name) is unique: the
// same actor cannot be credited twice with the identical character on
// one movie, but may play several distinct characters in it.
//
// Roles deliberately carry no foreign-key constraints: deleting a
// movie or a person leaves its role rows in place.
type Role struct {
	ID       uint64 // roles.id
	MovieID  uint64 // roles.movie_id
	PersonID uint64 // roles.person_id
	Name     string // roles.name (character name)
}
