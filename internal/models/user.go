// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace account. Ads are owned by their creator.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary returns the public representation embedded in ad responses.
func (u *User) Summary() map[string]any {
	return map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}
