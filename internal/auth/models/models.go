// Package models holds the auth domain entities: staff accounts and their
// login sessions.
package models

import (
	"time"

	id "rehabdocs/pkg/domain"
)

// Roles assignable to staff accounts.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a staff account. PasswordHash is a bcrypt hash and never leaves
// the auth module.
type User struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a server-side login record. Tokens whose session has been
// deleted or expired are rejected even before their JWT expiry. Device is a
// short rendering of the login User-Agent, kept for session audits.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Role      string
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
