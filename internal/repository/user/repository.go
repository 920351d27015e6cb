package user

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists and fetches users. Emails are unique ignoring case.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Update stores the profile fields of u: name, email and address.
	Update(ctx context.Context, u domain.User) (*domain.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}
