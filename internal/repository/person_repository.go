// Package repository contains data access logic for the movie catalog.
// This file covers persons: directors, writers and actors are all rows
// in the same `persons` table, the distinction only exists in how a
// movie references them.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stasyao/mymdb/internal/model"
)

// ErrPersonNotFound indicates that a person was not located in the DB.
var ErrPersonNotFound = errors.New("person not found")

// PersonRepo manages persistence for persons.
type PersonRepo struct {
	db *sql.DB
}

// NewPersonRepo constructs a PersonRepo with the given DB handle.
func NewPersonRepo(db *sql.DB) *PersonRepo {
	return &PersonRepo{db: db}
}

const personCols = `id, first_name, last_name, born, died`

func scanPerson(row interface{ Scan(...any) error }, p *model.Person) error {
	var died sql.NullTime
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Born, &died); err != nil {
		return err
	}
	if died.Valid {
		t := died.Time
		p.Died = &t
	}
	return nil
}

// Create inserts a new person and assigns the generated ID back to the
// struct.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) error {
	const q = `INSERT INTO persons (first_name, last_name, born, died) VALUES (?, ?, ?, ?)`
	var died any
	if p.Died != nil {
		died = *p.Died
	}
	res, err := r.db.ExecContext(ctx, q, p.FirstName, p.LastName, p.Born, died)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID retrieves a person by ID.  It returns ErrPersonNotFound when
// there is no matching row.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	const q = `SELECT ` + personCols + ` FROM persons WHERE id = ?`
	var p model.Person
	if err := scanPerson(r.db.QueryRowContext(ctx, q, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update rewrites a person's attributes.  Returns ErrPersonNotFound
// when the row does not exist.
func (r *PersonRepo) Update(ctx context.Context, p *model.Person) error {
	const q = `UPDATE persons SET first_name = ?, last_name = ?, born = ?, died = ? WHERE id = ?`
	var died any
	if p.Died != nil {
		died = *p.Died
	}
	res, err := r.db.ExecContext(ctx, q, p.FirstName, p.LastName, p.Born, died, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or unchanged; distinguish with a lookup.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM persons WHERE id = ?`, p.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPersonNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a person.  Movies that reference the person as
// director keep existing with a cleared director (FK SET NULL), and
// role rows crediting the person stay in place untouched.
func (r *PersonRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPersonNotFound
	}
	return nil
}

// GetFilmography assembles the person detail projection: the person
// plus movies directed, movies written and acting credits.  It issues
// exactly four queries regardless of how many movies are related.
func (r *PersonRepo) GetFilmography(ctx context.Context, id uint64) (*model.Filmography, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f := &model.Filmography{Person: *p}

	const directedQ = `SELECT ` + movieCols + ` FROM movies
                       WHERE director_id = ?
                       ORDER BY year DESC, title ASC`
	if f.Directed, err = r.queryMovies(ctx, directedQ, id); err != nil {
		return nil, err
	}

	const writtenQ = `SELECT m.id, m.title, m.plot, m.year, m.runtime, m.website, m.director_id
                      FROM movies m
                      JOIN movie_writers w ON w.movie_id = m.id
                      WHERE w.person_id = ?
                      ORDER BY m.year DESC, m.title ASC`
	if f.Written, err = r.queryMovies(ctx, writtenQ, id); err != nil {
		return nil, err
	}

	const actedQ = `SELECT r.id, r.name, m.id, m.title, m.plot, m.year, m.runtime, m.website, m.director_id
                    FROM roles r
                    JOIN movies m ON m.id = r.movie_id
                    WHERE r.person_id = ?
                    ORDER BY m.year DESC, m.title ASC, r.name ASC`
	rows, err := r.db.QueryContext(ctx, actedQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.ActingCredit
		var director sql.NullInt64
		if err := rows.Scan(&c.RoleID, &c.Character,
			&c.Movie.ID, &c.Movie.Title, &c.Movie.Plot, &c.Movie.Year,
			&c.Movie.Runtime, &c.Movie.Website, &director); err != nil {
			return nil, err
		}
		if director.Valid {
			d := uint64(director.Int64)
			c.Movie.DirectorID = &d
		}
		f.ActedIn = append(f.ActedIn, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PersonRepo) queryMovies(ctx context.Context, q string, args ...any) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		var director sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Title, &m.Plot, &m.Year, &m.Runtime, &m.Website, &director); err != nil {
			return nil, err
		}
		if director.Valid {
			d := uint64(director.Int64)
			m.DirectorID = &d
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
