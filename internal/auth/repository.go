package auth

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when no api_keys row matches the given key.
var ErrKeyNotFound = errors.New("api key not found")

// ErrDuplicateKey is returned when inserting a key that already exists.
var ErrDuplicateKey = errors.New("api key already exists")

// KeyRepository provides operations on the api_keys table.
type KeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	// FindIdentity resolves an exact key match to its owning team.
	FindIdentity(ctx context.Context, key string) (*Identity, error)
}
