package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock indicates a requested quantity exceeds what the catalog holds.
	ErrInsufficientStock = errors.New("insufficient stock")
)
