// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the marketplace classification tree, mirrored from
// the external taxonomy source and keyed by its external identifier.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	ExternalID  string     `json:"external_id"`
	SourceID    int        `json:"source_id"` // numeric identifier in the source system
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	Icon        *string    `json:"icon,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual field populated by store methods.
	Fields []CategoryField `json:"fields,omitempty"`
}

// FieldType enumerates the canonical typed-field kinds a category can carry.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
)

// HasOptions reports whether the field type carries an option list.
// Checkbox is included because the import seeds multi-choice source fields
// as checkbox with their choices attached.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeCheckbox
}

// IsChoice reports whether submissions for the field are validated against
// its option values.
func (t FieldType) IsChoice() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// CategoryField is a typed attribute definition scoped to one category, or
// global when CategoryID is nil. FieldKey is the submission key and the
// join key for stored attribute values.
type CategoryField struct {
	ID              uuid.UUID  `json:"id"`
	CategoryID      *uuid.UUID `json:"category_id"`
	ExternalID      string     `json:"external_id"`
	FieldKey        string     `json:"field_key"`
	FieldLabel      string     `json:"field_label"`
	FieldType       FieldType  `json:"field_type"`
	IsRequired      bool       `json:"is_required"`
	IsSearchable    bool       `json:"is_searchable"`
	ValidationRules *string    `json:"validation_rules"` // pipe-delimited rule tokens
	Placeholder     *string    `json:"placeholder"`
	HelpText        *string    `json:"help_text"`
	SortOrder       int        `json:"sort_order"`
	Metadata        []byte     `json:"-"` // original source record, for diagnostics
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Virtual field populated by store methods, ordered by sort_order.
	Options []FieldOption `json:"options,omitempty"`
}

// OptionValues returns the allowed values for a choice-type field.
func (f *CategoryField) OptionValues() []string {
	values := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		values = append(values, o.OptionValue)
	}
	return values
}

// OptionLabel resolves a stored value to its human-readable label.
// Returns false when no option matches (not an error).
func (f *CategoryField) OptionLabel(value string) (string, bool) {
	for _, o := range f.Options {
		if o.OptionValue == value {
			return o.OptionLabel, true
		}
	}
	return "", false
}

// FieldOption is one allowed value for a choice-type field. Owned
// exclusively by its field and removed with it.
type FieldOption struct {
	ID          uuid.UUID `json:"id"`
	FieldID     uuid.UUID `json:"field_id"`
	ExternalID  string    `json:"external_id"`
	OptionKey   string    `json:"option_key"`
	OptionLabel string    `json:"option_label"`
	OptionValue string    `json:"option_value"`
	SortOrder   int       `json:"sort_order"`
	IsDefault   bool      `json:"is_default"`
	Metadata    []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
