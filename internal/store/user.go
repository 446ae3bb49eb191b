// Package store provides database access methods for all marketplace
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"adsouk/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, totp_secret, totp_enabled, created_at, updated_at`

// scanUser scans a row into a User struct.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := scanner.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		name, email, string(hash),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(userID uuid.UUID, secret string) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
