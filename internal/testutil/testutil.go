// Package testutil provides a shared MySQL fixture for repository and handler
// tests. Tests are skipped when no database is reachable, so the suite stays
// runnable on machines without local infrastructure.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stasyao/mymdb/internal/database"
	"github.com/stasyao/mymdb/internal/model"
)

// tables in reverse dependency order, so they can be dropped front to back.
var tables = []string{
	"votes",
	"roles",
	"movie_writers",
	"movies",
	"persons",
	"refresh_tokens",
	"users",
	"schema_migrations",
}

// OpenTestDB connects to the database named by TEST_DATABASE_DSN, drops any
// leftover tables and reapplies the schema migrations so every test starts
// from an empty catalog. The DSN must include parseTime=true. The test is
// skipped when the variable is unset or the server cannot be reached.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database test")
	}

	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Skipf("test database unreachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
		t.Fatalf("disable fk checks: %v", err)
	}
	for _, tbl := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tbl); err != nil {
			t.Fatalf("drop table %s: %v", tbl, err)
		}
	}
	if _, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1"); err != nil {
		t.Fatalf("enable fk checks: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// SeedUser inserts a user with a throwaway password hash and returns its id.
func SeedUser(t *testing.T, db *sql.DB, email, role string) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`,
		email, "$2a$10$test-hash-not-verifiable-here", role,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return lastID(t, res)
}

// SeedPerson inserts a person. born and died use the 2006-01-02 layout; died
// may be empty for a living person.
func SeedPerson(t *testing.T, db *sql.DB, first, last, born, died string) uint64 {
	t.Helper()
	var diedArg any
	if died != "" {
		diedArg = died
	}
	res, err := db.Exec(
		`INSERT INTO persons (first_name, last_name, born, died) VALUES (?, ?, ?, ?)`,
		first, last, born, diedArg,
	)
	if err != nil {
		t.Fatalf("seed person %s %s: %v", first, last, err)
	}
	return lastID(t, res)
}

// SeedMovie inserts a movie with the given title, year and optional director.
func SeedMovie(t *testing.T, db *sql.DB, title string, year uint16, directorID *uint64) uint64 {
	t.Helper()
	var dirArg any
	if directorID != nil {
		dirArg = *directorID
	}
	res, err := db.Exec(
		`INSERT INTO movies (title, plot, year, runtime, website, director_id)
		 VALUES (?, '', ?, 120, '', ?)`,
		title, year, dirArg,
	)
	if err != nil {
		t.Fatalf("seed movie %s: %v", title, err)
	}
	return lastID(t, res)
}

// SeedWriter links a person to a movie as a writer.
func SeedWriter(t *testing.T, db *sql.DB, movieID, personID uint64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO movie_writers (movie_id, person_id) VALUES (?, ?)`,
		movieID, personID,
	)
	if err != nil {
		t.Fatalf("seed writer movie=%d person=%d: %v", movieID, personID, err)
	}
}

// SeedRole inserts an acting credit and returns its id.
func SeedRole(t *testing.T, db *sql.DB, movieID, personID uint64, name string) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO roles (movie_id, person_id, name) VALUES (?, ?, ?)`,
		movieID, personID, name,
	)
	if err != nil {
		t.Fatalf("seed role %s: %v", name, err)
	}
	return lastID(t, res)
}

// SeedVote inserts a vote and returns its id.
func SeedVote(t *testing.T, db *sql.DB, userID, movieID uint64, value int8) uint64 {
	t.Helper()
	if !model.ValidVoteValue(value) {
		t.Fatalf("seed vote: invalid value %d", value)
	}
	res, err := db.Exec(
		`INSERT INTO votes (value, user_id, movie_id) VALUES (?, ?, ?)`,
		value, userID, movieID,
	)
	if err != nil {
		t.Fatalf("seed vote user=%d movie=%d: %v", userID, movieID, err)
	}
	return lastID(t, res)
}

func lastID(t *testing.T, res sql.Result) uint64 {
	t.Helper()
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return uint64(id)
}
