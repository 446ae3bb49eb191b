// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// records.go defines the source-record shapes of the taxonomy API and
// tolerant accessors over its heterogeneous vocabulary: the same logical
// attribute may arrive under several names (attribute/key/name,
// valueType/filterType/type, isMandatory/required) depending on endpoint
// and category.
package olx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString accepts either a JSON string or number and stores its
// string form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// SourceCategory is one node of the source category tree. Children are
// nested one level deep in the categories response.
type SourceCategory struct {
	ID              int64            `json:"id"`
	ExternalID      FlexString       `json:"externalID"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     *string          `json:"description"`
	Icon            *string          `json:"icon"`
	ParentID        *int64           `json:"parentID"`
	DisplayPriority *int             `json:"displayPriority"`
	Order           *int             `json:"order"`
	IsActive        *bool            `json:"isActive"`
	Children        []SourceCategory `json:"children"`
}

// SortOrder picks the display order hint, preferring displayPriority.
func (c *SourceCategory) SortOrder() int {
	if c.DisplayPriority != nil {
		return *c.DisplayPriority
	}
	if c.Order != nil {
		return *c.Order
	}
	return 0
}

// Active defaults to true when the source omits the flag.
func (c *SourceCategory) Active() bool {
	if c.IsActive != nil {
		return *c.IsActive
	}
	return true
}

// ParseCategories decodes the (unwrapped) categories payload.
func ParseCategories(raw []byte) ([]SourceCategory, error) {
	var categories []SourceCategory
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	return categories, nil
}

// SourceField is one field definition from the category-fields response.
// Raw preserves the original record for the diagnostic metadata column.
type SourceField struct {
	ID              FlexString     `json:"id"`
	Attribute       string         `json:"attribute"`
	Key             string         `json:"key"`
	Name            string         `json:"name"`
	Label           string         `json:"label"`
	ValueType       string         `json:"valueType"`
	FilterType      string         `json:"filterType"`
	Type            string         `json:"type"`
	IsMandatory     *bool          `json:"isMandatory"`
	Required        *bool          `json:"required"`
	Searchable      *bool          `json:"searchable"`
	Roles           []string       `json:"roles"`
	Placeholder     *string        `json:"placeholder"`
	Help            *string        `json:"help"`
	DisplayPriority *int           `json:"displayPriority"`
	Order           *int           `json:"order"`
	MinValue        *float64       `json:"minValue"`
	MaxValue        *float64       `json:"maxValue"`
	Min             *float64       `json:"min"`
	Max             *float64       `json:"max"`
	MinLength       *int           `json:"minLength"`
	MaxLength       *int           `json:"maxLength"`
	Choices         []SourceChoice `json:"choices"`

	Raw json.RawMessage `json:"-"`
}

// FieldKey resolves the submission key: attribute, then key, then name.
func (f *SourceField) FieldKey() string {
	for _, v := range []string{f.Attribute, f.Key, f.Name} {
		if v != "" {
			return v
		}
	}
	return "unknown"
}

// FieldLabel resolves the human label, falling back to the key.
func (f *SourceField) FieldLabel() string {
	for _, v := range []string{f.Name, f.Label} {
		if v != "" {
			return v
		}
	}
	return f.FieldKey()
}

// RawType resolves the source type token: valueType, then filterType,
// then type.
func (f *SourceField) RawType() string {
	for _, v := range []string{f.ValueType, f.FilterType, f.Type} {
		if v != "" {
			return v
		}
	}
	return "text"
}

// Mandatory resolves the required flag from either vocabulary.
func (f *SourceField) Mandatory() bool {
	if f.IsMandatory != nil {
		return *f.IsMandatory
	}
	if f.Required != nil {
		return *f.Required
	}
	return false
}

// SearchableFlag is set by the "searchable" role or the explicit flag.
func (f *SourceField) SearchableFlag() bool {
	for _, role := range f.Roles {
		if role == "searchable" {
			return true
		}
	}
	return f.Searchable != nil && *f.Searchable
}

// SortOrder picks the display order hint, preferring displayPriority.
func (f *SourceField) SortOrder() int {
	if f.DisplayPriority != nil {
		return *f.DisplayPriority
	}
	if f.Order != nil {
		return *f.Order
	}
	return 0
}

// ExternalID returns the field's source identifier, synthesizing a stable
// fallback from the category external ID and field key when absent.
func (f *SourceField) ExternalID(categoryExternalID string) string {
	if f.ID != "" {
		return string(f.ID)
	}
	return categoryExternalID + "_" + f.FieldKey()
}

// SourceChoice is one allowed value of a choice-type source field.
type SourceChoice struct {
	ID              FlexString      `json:"id"`
	Slug            string          `json:"slug"`
	Key             string          `json:"key"`
	Value           FlexString      `json:"value"`
	Label           string          `json:"label"`
	Name            string          `json:"name"`
	DisplayPriority *int            `json:"displayPriority"`
	Order           *int            `json:"order"`
	Default         bool            `json:"default"`
	Raw             json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the choice and keeps the original record in Raw
// for the option metadata column.
func (c *SourceChoice) UnmarshalJSON(b []byte) error {
	type plain SourceChoice
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = SourceChoice(p)
	c.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// OptionKey resolves the option key: slug, then key, then value, then the
// positional index.
func (c *SourceChoice) OptionKey(index int) string {
	for _, v := range []string{c.Slug, c.Key, string(c.Value)} {
		if v != "" {
			return v
		}
	}
	return strconv.Itoa(index)
}

// OptionValue resolves the value compared against submissions.
func (c *SourceChoice) OptionValue(index int) string {
	for _, v := range []string{string(c.Value), c.Key} {
		if v != "" {
			return v
		}
	}
	return strconv.Itoa(index)
}

// OptionLabel resolves the human label, falling back to the value.
func (c *SourceChoice) OptionLabel(index int) string {
	for _, v := range []string{c.Label, c.Name} {
		if v != "" {
			return v
		}
	}
	return c.OptionValue(index)
}

// SortOrder picks the display order hint, defaulting to the position.
func (c *SourceChoice) SortOrder(index int) int {
	if c.DisplayPriority != nil {
		return *c.DisplayPriority
	}
	if c.Order != nil {
		return *c.Order
	}
	return index
}

// ExternalID returns the choice's source identifier, synthesizing a
// fallback from the owning field when absent.
func (c *SourceChoice) ExternalID(fieldExternalID string, index int) string {
	if c.ID != "" {
		return string(c.ID)
	}
	return fieldExternalID + "_option_" + strconv.Itoa(index)
}

// ExtractFields pulls the flat field list for one category out of the
// (unwrapped) category-fields payload, which is keyed by the category's
// internal source ID. Each field keeps its raw record in Raw.
func ExtractFields(raw []byte, sourceID string) ([]SourceField, error) {
	var byCategory map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byCategory); err != nil {
		return nil, fmt.Errorf("parse category fields: %w", err)
	}

	entry, ok := byCategory[sourceID]
	if !ok {
		return nil, nil
	}

	// The usual shape is {"flatFields": [...]}; some categories return the
	// bare array.
	var wrapper struct {
		FlatFields []json.RawMessage `json:"flatFields"`
	}
	var rawFields []json.RawMessage
	if err := json.Unmarshal(entry, &wrapper); err == nil && wrapper.FlatFields != nil {
		rawFields = wrapper.FlatFields
	} else if err := json.Unmarshal(entry, &rawFields); err != nil {
		return nil, nil
	}

	fields := make([]SourceField, 0, len(rawFields))
	for _, rf := range rawFields {
		var f SourceField
		if err := json.Unmarshal(rf, &f); err != nil {
			return nil, fmt.Errorf("parse field record: %w", err)
		}
		f.Raw = rf
		fields = append(fields, f)
	}
	return fields, nil
}
