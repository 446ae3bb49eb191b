// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"adsouk/internal/models"
)

// CategoryStore manages the mirrored category tree in the database.
// Rows are created and updated only by the taxonomy import; everything
// else reads.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, external_id, source_id, name, slug, description, icon, parent_id, sort_order, is_active, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.ExternalID, &c.SourceID, &c.Name, &c.Slug,
		&c.Description, &c.Icon, &c.ParentID, &c.SortOrder, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered for display.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindByExternalID retrieves a category by its source-system external
// identifier. Returns nil if not found.
func (s *CategoryStore) FindByExternalID(externalID string) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE external_id = $1`, externalID)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by external id: %w", err)
	}
	return c, nil
}

// FindBySourceID retrieves a category by the source system's numeric
// identifier. Used when re-resolving parent links after an import pass.
func (s *CategoryStore) FindBySourceID(sourceID int) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE source_id = $1`, sourceID)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by source id: %w", err)
	}
	return c, nil
}

// Exists reports whether a category with the given ID exists.
func (s *CategoryStore) Exists(id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

// Upsert inserts or updates a category keyed by its external identifier.
// The parent link is never touched here; it is resolved in a separate
// import pass once all nodes are present.
func (s *CategoryStore) Upsert(c *models.Category) (*models.Category, error) {
	row := s.db.QueryRow(`
		INSERT INTO categories (external_id, source_id, name, slug, description, icon, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			sort_order = EXCLUDED.sort_order,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING `+categoryColumns,
		c.ExternalID, c.SourceID, c.Name, c.Slug, c.Description, c.Icon, c.SortOrder, c.IsActive,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("upsert category: %w", err)
	}
	return result, nil
}

// SetParent links a category to its parent.
func (s *CategoryStore) SetParent(id, parentID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE categories SET parent_id = $1, updated_at = NOW() WHERE id = $2
	`, parentID, id)
	if err != nil {
		return fmt.Errorf("set category parent: %w", err)
	}
	return nil
}

// ExternalIDs returns every known category external identifier. Used for
// per-key cache invalidation when the backend does not support grouped
// flushes.
func (s *CategoryStore) ExternalIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT external_id FROM categories ORDER BY external_id`)
	if err != nil {
		return nil, fmt.Errorf("list category external ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
