package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stasyao/mymdb/internal/model"
)

// ErrRoleNotFound indicates that a role was not located in the DB.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepo manages persistence for acting credits.  Role rows are
// intentionally unconstrained by foreign keys: deleting a movie or a
// person leaves its credits behind.
type RoleRepo struct {
	db *sql.DB
}

// NewRoleRepo constructs a RoleRepo with the given DB handle.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// Create inserts an acting credit and assigns the generated ID back to
// the struct.  A repeat of an existing (movie, person, name) triple
// returns ErrDuplicateRole.
func (r *RoleRepo) Create(ctx context.Context, role *model.Role) error {
	const q = `INSERT INTO roles (movie_id, person_id, name) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, role.MovieID, role.PersonID, role.Name)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateRole
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	role.ID = uint64(id)
	return nil
}

// GetByID retrieves a role by its primary key.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (*model.Role, error) {
	const q = `SELECT id, movie_id, person_id, name FROM roles WHERE id = ?`
	var role model.Role
	err := r.db.QueryRowContext(ctx, q, id).Scan(&role.ID, &role.MovieID, &role.PersonID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// Delete removes an acting credit.
func (r *RoleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoleNotFound
	}
	return nil
}
