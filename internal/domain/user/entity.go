package user

import "time"

// User represents a registered account.
type User struct {
	ID           string    // ID is the opaque unique identifier for the user
	Name         string    // Name is the display name shown next to reviews
	Email        string    // Email is the unique, normalized login address
	PasswordHash string    // PasswordHash is the bcrypt hash; never serialized to clients
	CreatedAt    time.Time // CreatedAt is the signup time
	UpdatedAt    time.Time
}

// Identity is the caller identity resolved from a session token.
// It deliberately carries no credential material.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// Identity returns the public identity of u.
func (u *User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
