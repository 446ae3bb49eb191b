// Package token provides Valkey-backed opaque API tokens. A token is a
// random identifier presented as a bearer credential and stored as JSON in
// Valkey with automatic TTL expiry.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long an issued token lives before automatic expiry.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces token keys in Valkey to avoid collisions.
	keyPrefix = "token:"

	// idLength is the byte length of the random token (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the token payload stored in Valkey: the authenticated
// account's identity.
type Data struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store manages token lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Issue generates a new token for the given payload and stores it in
// Valkey. The returned string is the plaintext credential handed to the
// client; it is never persisted anywhere else.
func (s *Store) Issue(ctx context.Context, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("token issue: %w", err)
	}

	data.IssuedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("token marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}

	return id, nil
}

// Lookup resolves a presented token to its payload. Returns nil if the
// token is unknown or expired (not an error).
func (s *Store) Lookup(ctx context.Context, id string) (*Data, error) {
	if id == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}

	return &data, nil
}

// Revoke removes a token from Valkey. Revoking an unknown token is a no-op.
func (s *Store) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("token revoke: %w", err)
	}
	return nil
}

// generateID creates a cryptographically random token identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
