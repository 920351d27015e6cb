package domain

import "time"

// Address is the single delivery address attached to a user.
type Address struct {
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// User is the customer profile returned by GET /user.
type User struct {
	ID           string    `json:"-"`
	Name         string    `json:"name" validate:"required"`
	Email        string    `json:"email" validate:"required,email"`
	Address      Address   `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
