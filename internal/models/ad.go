// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// AdStatus represents the lifecycle state of a listing.
type AdStatus string

const (
	AdStatusDraft    AdStatus = "draft"
	AdStatusActive   AdStatus = "active"
	AdStatusInactive AdStatus = "inactive"
	AdStatusSold     AdStatus = "sold"
)

// ValidAdStatus reports whether s is one of the known statuses.
func ValidAdStatus(s string) bool {
	switch AdStatus(s) {
	case AdStatusDraft, AdStatusActive, AdStatusInactive, AdStatusSold:
		return true
	}
	return false
}

// Ad is a user-submitted listing belonging to one category. Its dynamic
// attributes live in ad_field_values, one row per (ad, field) pair.
type Ad struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       *float64  `json:"price"`
	Status      AdStatus  `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Virtual fields populated by store methods.
	Category *Category      `json:"-"`
	User     *User          `json:"-"`
	Values   []AdFieldValue `json:"-"`
}

// AdFieldValue is the stored value of one field for one ad. The value is a
// string regardless of logical type; composite submissions are stored as
// serialized JSON. Absence of a row means "no value".
type AdFieldValue struct {
	ID        uuid.UUID `json:"id"`
	AdID      uuid.UUID `json:"ad_id"`
	FieldID   uuid.UUID `json:"field_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Virtual field populated by store methods: the field definition with
	// its options, for label and value_label resolution.
	Field *CategoryField `json:"-"`
}

// DynamicField is one resolved attribute in an ad response: the field's
// label, the stored value, the field type, and, for choice-type fields
// whose value matches an option, the option's human-readable label.
type DynamicField struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	Type       string `json:"type"`
	ValueLabel string `json:"value_label,omitempty"`
}

// DynamicFields assembles the dynamic-attribute mapping for an ad response
// by resolving each stored value against its field definition.
func (a *Ad) DynamicFields() map[string]DynamicField {
	out := make(map[string]DynamicField, len(a.Values))
	for _, v := range a.Values {
		if v.Field == nil {
			continue
		}
		df := DynamicField{
			Label: v.Field.FieldLabel,
			Value: v.Value,
			Type:  string(v.Field.FieldType),
		}
		if v.Field.FieldType.IsChoice() {
			if label, ok := v.Field.OptionLabel(v.Value); ok {
				df.ValueLabel = label
			}
		}
		out[v.Field.FieldKey] = df
	}
	return out
}
