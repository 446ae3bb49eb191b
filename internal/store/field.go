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

// FieldStore manages category field definitions and their options, the
// attribute schema the dynamic validator and the sparse attribute store
// are built on.
type FieldStore struct {
	db *sql.DB
}

// NewFieldStore returns a new FieldStore.
func NewFieldStore(db *sql.DB) *FieldStore {
	return &FieldStore{db: db}
}

const fieldColumns = `id, category_id, external_id, field_key, field_label, field_type, is_required, is_searchable, validation_rules, placeholder, help_text, sort_order, metadata, created_at, updated_at`

const optionColumns = `id, category_field_id, external_id, option_key, option_label, option_value, sort_order, is_default, metadata, created_at, updated_at`

// scanField scans a row into a CategoryField struct.
func scanField(scanner interface{ Scan(...any) error }) (*models.CategoryField, error) {
	var f models.CategoryField
	err := scanner.Scan(
		&f.ID, &f.CategoryID, &f.ExternalID, &f.FieldKey, &f.FieldLabel,
		&f.FieldType, &f.IsRequired, &f.IsSearchable, &f.ValidationRules,
		&f.Placeholder, &f.HelpText, &f.SortOrder, &f.Metadata,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// scanOption scans a row into a FieldOption struct.
func scanOption(scanner interface{ Scan(...any) error }) (*models.FieldOption, error) {
	var o models.FieldOption
	err := scanner.Scan(
		&o.ID, &o.FieldID, &o.ExternalID, &o.OptionKey, &o.OptionLabel,
		&o.OptionValue, &o.SortOrder, &o.IsDefault, &o.Metadata,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ForCategory returns the ordered schema for a category: its own fields
// plus global fields (NULL category), each with its ordered option list.
// An unknown category simply yields the global fields, or none.
func (s *FieldStore) ForCategory(categoryID uuid.UUID) ([]models.CategoryField, error) {
	rows, err := s.db.Query(`
		SELECT `+fieldColumns+`
		FROM category_fields
		WHERE category_id = $1 OR category_id IS NULL
		ORDER BY sort_order, field_key
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("fields for category: %w", err)
	}
	defer rows.Close()

	var fields []models.CategoryField
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		byID[f.ID] = len(fields)
		fields = append(fields, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	// Attach options in one pass over the same selection.
	optRows, err := s.db.Query(`
		SELECT `+optionColumns+`
		FROM category_field_options o
		JOIN category_fields f ON f.id = o.category_field_id
		WHERE f.category_id = $1 OR f.category_id IS NULL
		ORDER BY o.sort_order, o.option_value
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("options for category: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		o, err := scanOption(optRows)
		if err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		if idx, ok := byID[o.FieldID]; ok {
			fields[idx].Options = append(fields[idx].Options, *o)
		}
	}
	return fields, optRows.Err()
}

// UpsertField inserts or updates a field definition keyed by its external
// identifier.
func (s *FieldStore) UpsertField(f *models.CategoryField) (*models.CategoryField, error) {
	row := s.db.QueryRow(`
		INSERT INTO category_fields (category_id, external_id, field_key, field_label, field_type,
		                             is_required, is_searchable, validation_rules, placeholder,
		                             help_text, sort_order, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (external_id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			field_key = EXCLUDED.field_key,
			field_label = EXCLUDED.field_label,
			field_type = EXCLUDED.field_type,
			is_required = EXCLUDED.is_required,
			is_searchable = EXCLUDED.is_searchable,
			validation_rules = EXCLUDED.validation_rules,
			placeholder = EXCLUDED.placeholder,
			help_text = EXCLUDED.help_text,
			sort_order = EXCLUDED.sort_order,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING `+fieldColumns,
		f.CategoryID, f.ExternalID, f.FieldKey, f.FieldLabel, f.FieldType,
		f.IsRequired, f.IsSearchable, f.ValidationRules, f.Placeholder,
		f.HelpText, f.SortOrder, nullableJSON(f.Metadata),
	)
	result, err := scanField(row)
	if err != nil {
		return nil, fmt.Errorf("upsert field: %w", err)
	}
	return result, nil
}

// UpsertOption inserts or updates one option for a field, keyed by
// (field, external identifier).
func (s *FieldStore) UpsertOption(o *models.FieldOption) (*models.FieldOption, error) {
	row := s.db.QueryRow(`
		INSERT INTO category_field_options (category_field_id, external_id, option_key,
		                                    option_label, option_value, sort_order, is_default, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (category_field_id, external_id) DO UPDATE SET
			option_key = EXCLUDED.option_key,
			option_label = EXCLUDED.option_label,
			option_value = EXCLUDED.option_value,
			sort_order = EXCLUDED.sort_order,
			is_default = EXCLUDED.is_default,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING `+optionColumns,
		o.FieldID, o.ExternalID, o.OptionKey, o.OptionLabel, o.OptionValue,
		o.SortOrder, o.IsDefault, nullableJSON(o.Metadata),
	)
	result, err := scanOption(row)
	if err != nil {
		return nil, fmt.Errorf("upsert option: %w", err)
	}
	return result, nil
}

// nullableJSON maps an empty metadata blob to NULL for the jsonb column.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
