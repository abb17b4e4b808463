package model

import "time"

// Role names stored in the users.role column.  Authorization decisions
// compare against these values, never against a specific account name.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  Handlers define separate response types with JSON
// tags; this struct is used by the repository layer.
//
// Fields:
//  ID           - primary key identifier of the user.
//  Email        - unique email address, stored lower-cased.
//  PasswordHash - bcrypt hashed password.
//  Role         - CUSTOMER or ADMIN.
//  IsActive     - whether the account is active.
//  CreatedAt    - timestamp of creation.
//  UpdatedAt    - timestamp of last update.
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
// refresh token belongs to a user and carries expiry and revocation
// metadata.  The plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
