// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"adsouk/internal/models"
	"adsouk/internal/rules"
)

// AdStore handles listings and their sparse attribute values. Ad creation
// and the attribute writes share one transaction: either all rows commit
// or none do.
type AdStore struct {
	db *sql.DB
}

// NewAdStore returns a new AdStore.
func NewAdStore(db *sql.DB) *AdStore {
	return &AdStore{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx so aggregate reads can
// run inside the creation transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

const adColumns = `id, user_id, category_id, title, description, price, status, created_at, updated_at`

// scanAd scans a row into an Ad struct.
func scanAd(scanner interface{ Scan(...any) error }) (*models.Ad, error) {
	var a models.Ad
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.CategoryID, &a.Title, &a.Description,
		&a.Price, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateWithValues inserts the ad row and its sparse attribute rows in a
// single transaction and returns the fully assembled aggregate, read back
// inside the same transaction. On any failure everything rolls back and no
// partial ad or attribute rows remain.
//
// Submitted keys that match no schema field are dropped silently; nil
// values write no row; composite values are stored as serialized JSON.
func (s *AdStore) CreateWithValues(a *models.Ad, submission map[string]any, schema []models.CategoryField) (*models.Ad, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.Status == "" {
		a.Status = models.AdStatusActive
	}

	row := tx.QueryRow(`
		INSERT INTO ads (user_id, category_id, title, description, price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+adColumns,
		a.UserID, a.CategoryID, a.Title, a.Description, a.Price, a.Status,
	)
	created, err := scanAd(row)
	if err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}

	if err := insertValues(tx, created.ID, submission, schema); err != nil {
		return nil, err
	}

	result, err := findAd(tx, created.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ad: %w", err)
	}
	return result, nil
}

// insertValues resolves submitted keys against the schema and batch-inserts
// the resulting attribute rows. The unique (ad_id, category_field_id)
// constraint guarantees at most one value row per field per ad.
func insertValues(q querier, adID uuid.UUID, submission map[string]any, schema []models.CategoryField) error {
	byKey := make(map[string]*models.CategoryField, len(schema))
	for i := range schema {
		byKey[schema[i].FieldKey] = &schema[i]
	}

	var placeholders []string
	var args []any
	for key, value := range submission {
		field, ok := byKey[key]
		if !ok || value == nil {
			continue // unknown key or explicit null: no row
		}

		stored, err := encodeValue(value)
		if err != nil {
			return fmt.Errorf("encode value for %q: %w", key, err)
		}

		n := len(args)
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, adID, field.ID, stored)
	}

	if len(args) == 0 {
		return nil
	}

	_, err := q.Exec(`
		INSERT INTO ad_field_values (ad_id, category_field_id, value)
		VALUES `+strings.Join(placeholders, ", "),
		args...,
	)
	if err != nil {
		return fmt.Errorf("insert ad field values: %w", err)
	}
	return nil
}

// encodeValue renders a submitted value for the text value column:
// composites become serialized JSON, scalars their string form.
func encodeValue(v any) (string, error) {
	switch v.(type) {
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return rules.Stringify(v), nil
}

// FindByID retrieves the full ad aggregate: the ad row with its category,
// owner, and attribute values resolved against their field definitions.
// Returns nil if not found.
func (s *AdStore) FindByID(id uuid.UUID) (*models.Ad, error) {
	return findAd(s.db, id)
}

func findAd(q querier, id uuid.UUID) (*models.Ad, error) {
	row := q.QueryRow(`SELECT `+adColumns+` FROM ads WHERE id = $1`, id)
	a, err := scanAd(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ad by id: %w", err)
	}
	if err := loadRelations(q, a); err != nil {
		return nil, err
	}
	return a, nil
}

// loadRelations attaches the category, owner, and resolved attribute
// values to an ad.
func loadRelations(q querier, a *models.Ad) error {
	catRow := q.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, a.CategoryID)
	category, err := scanCategory(catRow)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("load ad category: %w", err)
	}
	a.Category = category

	userRow := q.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, a.UserID)
	user, err := scanUser(userRow)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("load ad user: %w", err)
	}
	a.User = user

	return loadValues(q, a)
}

// loadValues reads the sparse attribute rows joined with their field
// definitions, then attaches option lists for value_label resolution.
func loadValues(q querier, a *models.Ad) error {
	rows, err := q.Query(`
		SELECT v.id, v.ad_id, v.category_field_id, v.value, v.created_at, v.updated_at,
		       f.id, f.category_id, f.external_id, f.field_key, f.field_label, f.field_type,
		       f.is_required, f.is_searchable, f.validation_rules, f.placeholder,
		       f.help_text, f.sort_order, f.metadata, f.created_at, f.updated_at
		FROM ad_field_values v
		JOIN category_fields f ON f.id = v.category_field_id
		WHERE v.ad_id = $1
		ORDER BY f.sort_order, f.field_key
	`, a.ID)
	if err != nil {
		return fmt.Errorf("load ad values: %w", err)
	}
	defer rows.Close()

	a.Values = nil
	fieldIdx := make(map[uuid.UUID][]int)
	for rows.Next() {
		var v models.AdFieldValue
		var f models.CategoryField
		err := rows.Scan(
			&v.ID, &v.AdID, &v.FieldID, &v.Value, &v.CreatedAt, &v.UpdatedAt,
			&f.ID, &f.CategoryID, &f.ExternalID, &f.FieldKey, &f.FieldLabel, &f.FieldType,
			&f.IsRequired, &f.IsSearchable, &f.ValidationRules, &f.Placeholder,
			&f.HelpText, &f.SortOrder, &f.Metadata, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan ad value: %w", err)
		}
		v.Field = &f
		fieldIdx[f.ID] = append(fieldIdx[f.ID], len(a.Values))
		a.Values = append(a.Values, v)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(a.Values) == 0 {
		return nil
	}

	optRows, err := q.Query(`
		SELECT `+optionColumns+`
		FROM category_field_options
		WHERE category_field_id IN (SELECT category_field_id FROM ad_field_values WHERE ad_id = $1)
		ORDER BY sort_order, option_value
	`, a.ID)
	if err != nil {
		return fmt.Errorf("load value options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		o, err := scanOption(optRows)
		if err != nil {
			return fmt.Errorf("scan value option: %w", err)
		}
		for _, idx := range fieldIdx[o.FieldID] {
			a.Values[idx].Field.Options = append(a.Values[idx].Field.Options, *o)
		}
	}
	return optRows.Err()
}

// ListFilter narrows and pages the public ad listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Status     string
	Search     string // substring match on title or description
	Page       int
	PerPage    int
}

// List returns one page of ads, newest first, with the total match count
// for pagination metadata. Each ad carries its full aggregate.
func (s *AdStore) List(filter ListFilter) ([]models.Ad, int, error) {
	where, args := filter.clauses()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}

	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 15
	}

	n := len(args)
	rows, err := s.db.Query(
		`SELECT `+adColumns+` FROM ads`+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2),
		append(args, perPage, (page-1)*perPage)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ad: %w", err)
		}
		ads = append(ads, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range ads {
		if err := loadRelations(s.db, &ads[i]); err != nil {
			return nil, 0, err
		}
	}
	return ads, total, nil
}

// ListByOwner returns one page of ads created by the given user.
func (s *AdStore) ListByOwner(userID uuid.UUID, page, perPage int) ([]models.Ad, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ads WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user ads: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 15
	}

	rows, err := s.db.Query(`
		SELECT `+adColumns+` FROM ads
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list user ads: %w", err)
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ad: %w", err)
		}
		ads = append(ads, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range ads {
		if err := loadRelations(s.db, &ads[i]); err != nil {
			return nil, 0, err
		}
	}
	return ads, total, nil
}

// clauses builds the WHERE fragment and its arguments for the filter.
func (f ListFilter) clauses() (string, []any) {
	var conds []string
	var args []any

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountValues returns the number of stored attribute rows for an ad.
func (s *AdStore) CountValues(adID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ad_field_values WHERE ad_id = $1`, adID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ad values: %w", err)
	}
	return count, nil
}
