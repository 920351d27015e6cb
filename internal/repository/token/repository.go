package token

import (
	"context"
	"time"
)

// Kinds of stored tokens.
const (
	KindAccess = "access"
	KindReset  = "reset"
)

type Token struct {
	Token     string
	UserID    string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteByUser removes every token of the given kind owned by userID.
	DeleteByUser(ctx context.Context, userID, kind string) error
}
