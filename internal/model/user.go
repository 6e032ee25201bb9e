package model

import "time"

// User roles.  USER accounts browse and vote; CURATOR accounts may
// additionally edit the catalog.
const (
	RoleUser    = "USER"
	RoleCurator = "CURATOR"
)

// User represents an application account as stored in the `users`
// table.  The json tags are omitted because these structs are used
// internally by the repository layer; handlers define separate
// response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or CURATOR.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; only the SHA-256 hash of the token
// value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
