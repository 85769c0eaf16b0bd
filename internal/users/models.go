package users

import "time"

// User represents a user entity in the database.
type User struct {
	ID           string    `json:"id"`      // UUID
	Name         string    `json:"name"`    // Display name shown on partner notifications
	Email        string    `json:"email"`   // Unique login email
	Roles        []string  `json:"roles"`   // USER and/or ADMIN
	PasswordHash string    `json:"-"`       // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
