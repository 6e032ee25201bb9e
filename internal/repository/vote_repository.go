// This file contains data access logic for votes.  The single
// correctness-critical shared resource in the system is the
// (user_id, movie_id) uniqueness constraint on the votes table: two
// concurrent first-time ballots cannot both land, the second insert
// trips the constraint and is surfaced as ErrAlreadyVoted.  There is
// deliberately no exists-check before the insert.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/stasyao/mymdb/internal/model"
)

// ErrVoteNotFound indicates that a vote was not located in the DB.
// "No vote yet" is the normal state for a (movie, user) pair, so
// callers branch on this sentinel rather than treating it as failure.
var ErrVoteNotFound = errors.New("vote not found")

// VoteRepo manages persistence for votes.
type VoteRepo struct {
	db *sql.DB
}

// NewVoteRepo constructs a VoteRepo with the given DB handle.
func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

const voteCols = `id, value, user_id, movie_id, voted_on`

// GetByMovieAndUser resolves the caller's existing ballot on a movie.
// It returns ErrVoteNotFound when the user has not voted on the movie,
// which is how the detail page decides between the create and update
// endpoints.
func (r *VoteRepo) GetByMovieAndUser(ctx context.Context, movieID, userID uint64) (*model.Vote, error) {
	const q = `SELECT ` + voteCols + ` FROM votes WHERE movie_id = ? AND user_id = ? LIMIT 1`
	return r.getOne(ctx, q, movieID, userID)
}

// GetByID retrieves a vote by its primary key.
func (r *VoteRepo) GetByID(ctx context.Context, id uint64) (*model.Vote, error) {
	const q = `SELECT ` + voteCols + ` FROM votes WHERE id = ?`
	return r.getOne(ctx, q, id)
}

func (r *VoteRepo) getOne(ctx context.Context, q string, args ...any) (*model.Vote, error) {
	var v model.Vote
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&v.ID, &v.Value, &v.UserID, &v.MovieID, &v.VotedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a first-time ballot.  The generated ID and the
// DB-assigned voted_on timestamp are populated on the given Vote.  A
// duplicate (user, movie) pair returns ErrAlreadyVoted; the prior row
// is left untouched.
func (r *VoteRepo) Create(ctx context.Context, v *model.Vote) error {
	const q = `INSERT INTO votes (value, user_id, movie_id) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Value, v.UserID, v.MovieID)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrAlreadyVoted
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT voted_on FROM votes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, v.ID).Scan(&v.VotedOn)
}

// UpdateValue mutates the value of an existing ballot.  User and movie
// are immutable once set; only the value column is written and the DB
// refreshes voted_on.  Returns ErrVoteNotFound when the row does not
// exist.  Ownership is the caller's concern and must be checked before
// this runs.
func (r *VoteRepo) UpdateValue(ctx context.Context, id uint64, value int8) error {
	res, err := r.db.ExecContext(ctx, `UPDATE votes SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Same-value updates also report zero rows; only a missing
		// row is an error.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM votes WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrVoteNotFound
			}
			return err
		}
	}
	return nil
}

// isDuplicateEntry reports whether err is a MySQL duplicate-key
// violation (error 1062).
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
