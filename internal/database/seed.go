package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a demo
// account and one category carrying a required dynamic field, enough to
// exercise ad creation end to end before a taxonomy import has run.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
	`, "Demo User", "demo@adsouk.local", string(hash))
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	// A sample category matching the mirrored source's numbering, plus one
	// required text field so validation has something to reject.
	var categoryID string
	err = db.QueryRow(`
		INSERT INTO categories (external_id, source_id, name, slug, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, "23", 23, "Test Category", "test-category", "Placeholder category for trying out ad submission").Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO category_fields
			(category_id, external_id, field_key, field_label, field_type, is_required, validation_rules, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, categoryID, "23_test_field", "test_field", "Test Field", "text", true, "required", 0)
	if err != nil {
		return fmt.Errorf("seed insert field: %w", err)
	}

	slog.Info("database seeded with demo data",
		"email", "demo@adsouk.local",
		"password", "password",
		"category", "test-category",
	)

	return nil
}
