package model

import "time"

// Role names carried in the users.role column and in the JWT "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  A user owns contacts, projects and actions, and may be assigned
// to actions owned by other users.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name; the JWT subject.
//	PasswordHash – bcrypt hashed password.
//	Role         – USER or ADMIN.
//	Name         – given name.
//	Surname      – family name.
//	Gender       – free-form gender marker shown next to the name.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Name         string    // users.name
	Surname      string    // users.surname
	Gender       string    // users.gender
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
