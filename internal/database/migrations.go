package database

import (
	"database/sql"
	"fmt"
)

// Migration is one versioned schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations lists every schema step in order.  Statements are written
// for MySQL.  Points worth calling out:
//   - votes carries UNIQUE (user_id, movie_id): the storage layer, not
//     application code, guarantees one ballot per user per movie.
//   - movies.director_id is ON DELETE SET NULL: deleting a person
//     orphans nothing, the movie just loses its director.
//   - roles carries UNIQUE (movie_id, person_id, name) and, on
//     purpose, no foreign keys: deleting a movie or person leaves its
//     credits behind.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'USER',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		)`,
	},
	{
		Version: 2,
		Name:    "refresh_tokens",
		SQL: `CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_refresh_tokens_hash (token_hash),
			KEY idx_refresh_tokens_user (user_id),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE
		)`,
	},
	{
		Version: 3,
		Name:    "persons",
		SQL: `CREATE TABLE IF NOT EXISTS persons (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(140) NOT NULL,
			last_name VARCHAR(140) NOT NULL,
			born DATE NOT NULL,
			died DATE NULL,
			KEY idx_persons_name (last_name, first_name)
		)`,
	},
	{
		Version: 4,
		Name:    "movies",
		SQL: `CREATE TABLE IF NOT EXISTS movies (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(140) NOT NULL,
			plot TEXT NOT NULL,
			year SMALLINT UNSIGNED NOT NULL,
			runtime SMALLINT UNSIGNED NOT NULL,
			website VARCHAR(255) NOT NULL DEFAULT '',
			director_id BIGINT UNSIGNED NULL,
			KEY idx_movies_year_title (year, title),
			CONSTRAINT fk_movies_director FOREIGN KEY (director_id)
				REFERENCES persons (id) ON DELETE SET NULL
		)`,
	},
	{
		Version: 5,
		Name:    "movie_writers",
		SQL: `CREATE TABLE IF NOT EXISTS movie_writers (
			movie_id BIGINT UNSIGNED NOT NULL,
			person_id BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (movie_id, person_id),
			KEY idx_movie_writers_person (person_id),
			CONSTRAINT fk_movie_writers_movie FOREIGN KEY (movie_id)
				REFERENCES movies (id) ON DELETE CASCADE,
			CONSTRAINT fk_movie_writers_person FOREIGN KEY (person_id)
				REFERENCES persons (id) ON DELETE CASCADE
		)`,
	},
	{
		Version: 6,
		Name:    "roles",
		SQL: `CREATE TABLE IF NOT EXISTS roles (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			movie_id BIGINT UNSIGNED NOT NULL,
			person_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(140) NOT NULL,
			UNIQUE KEY uq_roles_credit (movie_id, person_id, name),
			KEY idx_roles_person (person_id)
		)`,
	},
	{
		Version: 7,
		Name:    "votes",
		SQL: `CREATE TABLE IF NOT EXISTS votes (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			value TINYINT NOT NULL,
			user_id BIGINT UNSIGNED NOT NULL,
			movie_id BIGINT UNSIGNED NOT NULL,
			voted_on DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_votes_user_movie (user_id, movie_id),
			KEY idx_votes_movie (movie_id),
			CONSTRAINT fk_votes_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE,
			CONSTRAINT fk_votes_movie FOREIGN KEY (movie_id)
				REFERENCES movies (id) ON DELETE CASCADE
		)`,
	},
}

// Migrate applies every pending migration in version order.  Applied
// versions are tracked in schema_migrations, so running it repeatedly
// is a no-op.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		name VARCHAR(140) NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
