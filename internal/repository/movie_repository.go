// This file contains data access logic for movies, including the
// read-optimized projections used by the list and detail pages.  The
// loading contract matters here: related persons are fetched with one
// extra query per relation over the whole result set, never one query
// per movie.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/stasyao/mymdb/internal/model"
)

// PageSize is the fixed number of movies per page on the list endpoint.
const PageSize = 10

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

const movieCols = `id, title, plot, year, runtime, website, director_id`

// MovieRepo manages persistence for movies and their writer links.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *MovieRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new movie and assigns the generated ID back to the
// struct.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, plot, year, runtime, website, director_id) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Plot, m.Year, m.Runtime, m.Website, directorArg(m))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update rewrites a movie's attributes.  Returns ErrMovieNotFound when
// the row does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET title = ?, plot = ?, year = ?, runtime = ?, website = ?, director_id = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Plot, m.Year, m.Runtime, m.Website, directorArg(m), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a movie together with its writer links; votes go with
// it through the FK cascade.  Role rows crediting the movie stay in
// place untouched.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_writers WHERE movie_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrMovieNotFound
		return err
	}
	return nil
}

// Exists reports whether a movie row with the given ID is present.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the total number of movies, used for pagination.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

// SetWriters replaces the writer list of a movie inside one
// transaction.
func (r *MovieRepo) SetWriters(ctx context.Context, movieID uint64, personIDs []uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_writers WHERE movie_id = ?`, movieID); err != nil {
		return err
	}
	for _, pid := range personIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO movie_writers (movie_id, person_id) VALUES (?, ?)`, movieID, pid); err != nil {
			return err
		}
	}
	return nil
}

// scoredMovieQ joins the director row and a pre-aggregated vote tally.
// The tally is NULL for unvoted movies and carried through as such.
const scoredMovieQ = `SELECT m.id, m.title, m.plot, m.year, m.runtime, m.website, m.director_id,
                             d.first_name, d.last_name, d.born, d.died,
                             t.score
                      FROM movies m
                      LEFT JOIN persons d ON d.id = m.director_id
                      LEFT JOIN (SELECT movie_id, SUM(value) AS score
                                 FROM votes GROUP BY movie_id) t ON t.movie_id = m.id`

// ListWithScore returns one page of movies ordered by (year DESC,
// title ASC), each with director, writers, cast and vote score
// attached.  Pages are 1-based; an out-of-range page yields an empty
// slice.  Three queries total: the page itself, one for writers, one
// for cast.
func (r *MovieRepo) ListWithScore(ctx context.Context, page int) ([]model.MovieDetail, error) {
	if page < 1 {
		page = 1
	}
	q := scoredMovieQ + ` ORDER BY m.year DESC, m.title ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MovieDetail
	for rows.Next() {
		var d model.MovieDetail
		if err := scanScoredMovie(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRelated(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWithScore returns one movie with director, writers, cast and vote
// score attached.  It returns ErrMovieNotFound when there is no
// matching row.
func (r *MovieRepo) GetWithScore(ctx context.Context, id uint64) (*model.MovieDetail, error) {
	q := scoredMovieQ + ` WHERE m.id = ?`
	var d model.MovieDetail
	if err := scanScoredMovie(r.db.QueryRowContext(ctx, q, id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	page := []model.MovieDetail{d}
	if err := r.attachRelated(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

func scanScoredMovie(row interface{ Scan(...any) error }, d *model.MovieDetail) error {
	var (
		directorID sql.NullInt64
		first, last sql.NullString
		born, died sql.NullTime
		score      sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Plot, &d.Year, &d.Runtime, &d.Website,
		&directorID, &first, &last, &born, &died, &score); err != nil {
		return err
	}
	if directorID.Valid {
		id := uint64(directorID.Int64)
		d.DirectorID = &id
		p := model.Person{ID: id, FirstName: first.String, LastName: last.String, Born: born.Time}
		if died.Valid {
			t := died.Time
			p.Died = &t
		}
		d.Director = &p
	}
	if score.Valid {
		s := score.Int64
		d.Score = &s
	}
	return nil
}

// attachRelated batch-loads writers and cast for every movie in the
// slice: one IN(...) query per relation over the whole set.
func (r *MovieRepo) attachRelated(ctx context.Context, movies []model.MovieDetail) error {
	if len(movies) == 0 {
		return nil
	}
	idx := make(map[uint64]*model.MovieDetail, len(movies))
	args := make([]any, 0, len(movies))
	for i := range movies {
		idx[movies[i].ID] = &movies[i]
		args = append(args, movies[i].ID)
	}
	in := "(?" + strings.Repeat(",?", len(args)-1) + ")"

	writersQ := `SELECT w.movie_id, p.id, p.first_name, p.last_name, p.born, p.died
                 FROM movie_writers w
                 JOIN persons p ON p.id = w.person_id
                 WHERE w.movie_id IN ` + in + `
                 ORDER BY p.last_name, p.first_name`
	rows, err := r.db.QueryContext(ctx, writersQ, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var movieID uint64
		var p model.Person
		var died sql.NullTime
		if err := rows.Scan(&movieID, &p.ID, &p.FirstName, &p.LastName, &p.Born, &died); err != nil {
			return err
		}
		if died.Valid {
			t := died.Time
			p.Died = &t
		}
		if d, ok := idx[movieID]; ok {
			d.Writers = append(d.Writers, p)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	castQ := `SELECT r.movie_id, r.id, r.name, p.id, p.first_name, p.last_name, p.born, p.died
              FROM roles r
              JOIN persons p ON p.id = r.person_id
              WHERE r.movie_id IN ` + in + `
              ORDER BY p.last_name, p.first_name, r.name`
	crows, err := r.db.QueryContext(ctx, castQ, args...)
	if err != nil {
		return err
	}
	defer crows.Close()
	for crows.Next() {
		var movieID uint64
		var c model.CastCredit
		var died sql.NullTime
		if err := crows.Scan(&movieID, &c.RoleID, &c.Character,
			&c.Person.ID, &c.Person.FirstName, &c.Person.LastName, &c.Person.Born, &died); err != nil {
			return err
		}
		if died.Valid {
			t := died.Time
			c.Person.Died = &t
		}
		if d, ok := idx[movieID]; ok {
			d.Cast = append(d.Cast, c)
		}
	}
	return crows.Err()
}

func directorArg(m *model.Movie) any {
	if m.DirectorID != nil {
		return *m.DirectorID
	}
	return nil
}
