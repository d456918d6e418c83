package model

import "time"

// Account roles and statuses stored in users.role and users.status.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	UserActive    = "active"
	UserSuspended = "suspended"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the process; handlers
// serialise users directly so the field is excluded from JSON.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique login name.
//  Name          – display name, may be empty.
//  Email         – contact address used to prefill bookings.
//  PasswordHash  – bcrypt hashed password.
//  Role          – customer or admin.
//  Status        – active or suspended; suspended users cannot sign in.
//  BehaviorScore – free-form score maintained by administrators.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    `json:"id"`             // users.id
	Username      string    `json:"username"`       // users.username
	Name          string    `json:"name"`           // users.name
	Email         string    `json:"email"`          // users.email
	PasswordHash  string    `json:"-"`              // users.password_hash
	Role          string    `json:"role"`           // users.role
	Status        string    `json:"status"`         // users.status
	BehaviorScore int       `json:"behavior_score"` // users.behavior_score
	CreatedAt     time.Time `json:"created_at"`     // users.created_at
	UpdatedAt     time.Time `json:"updated_at"`     // users.updated_at
}

// DisplayName returns the name shown on bookings: the full name when set,
// otherwise the username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Principal builds the identity handed to the reservation core.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, Role: u.Role}
}

// ValidRole reports whether r is a known account role.
func ValidRole(r string) bool { return r == RoleCustomer || r == RoleAdmin }

// ValidUserStatus reports whether s is a known account status.
func ValidUserStatus(s string) bool { return s == UserActive || s == UserSuspended }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
