package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account for the HTTP API.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// DisplayName is what the account signed up as; it seeds the business
	// name on the profile when one isn't set yet.
	DisplayName string `json:"displayName"`

	// PasswordHash is the bcrypt hash of the user's password. Never leaves
	// the server.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`
}

// NewUser creates a user with a generated ID and creation timestamp.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
