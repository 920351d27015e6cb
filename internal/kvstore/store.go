// Package kvstore is the durable string key-value storage the client keeps its
// session and cart snapshot in.
package kvstore

import "context"

// Well-known keys.
const (
	KeyToken = "userToken"
	KeyEmail = "userEmail"
	KeyCart  = "userCart"
)

// Store persists string values by key.
//
// Get reports found=false for an absent key without an error. Remove of an
// absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
