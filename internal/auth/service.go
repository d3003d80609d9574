package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when the provided API key does not match any stored key.
var ErrInvalidKey = errors.New("invalid or missing API key")

// KeyPrefix is prepended to generated keys so they are recognisable in configs.
const KeyPrefix = "tp_"

// Service provides authentication operations.
type Service struct {
	keys KeyRepository
}

// NewService creates a new auth Service.
func NewService(keys KeyRepository) *Service {
	return &Service{keys: keys}
}

// Authenticate resolves a raw API key to an Identity. An empty or unknown key
// yields ErrInvalidKey; storage failures are returned wrapped.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if rawKey == "" {
		return nil, ErrInvalidKey
	}

	identity, err := s.keys.FindIdentity(ctx, rawKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("looking up api key: %w", err)
	}

	return identity, nil
}

// IssueKey stores rawKey for the team, generating a fresh key when rawKey is empty.
func (s *Service) IssueKey(ctx context.Context, teamID, rawKey string) (*APIKey, error) {
	if rawKey == "" {
		var err error
		if rawKey, err = GenerateKey(); err != nil {
			return nil, err
		}
	}

	k := &APIKey{Key: rawKey, TeamID: teamID}
	if err := s.keys.Create(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// GenerateKey creates a new random API key: 32 random bytes, base64url
// encoded, with KeyPrefix prepended.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}
