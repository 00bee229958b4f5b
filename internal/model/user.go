package model

import (
	"fmt"
	"time"
)

// User represents an account. Students register themselves; the admin account
// is bootstrapped on first admin login.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// UserSummary is the public view of a user, returned by login and embedded in
// items and claims.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Summary returns the public view of u.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleAdmin
}

// MinPasswordLength is the minimum accepted password length on registration.
const MinPasswordLength = 8

// ValidatePassword checks a new password against the length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
