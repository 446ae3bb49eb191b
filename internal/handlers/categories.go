// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adsouk/internal/models"
	"adsouk/internal/store"
)

// Categories groups the read-only category schema endpoints.
type Categories struct {
	categories *store.CategoryStore
	fields     *store.FieldStore
}

// NewCategories creates a new Categories handler group.
func NewCategories(categories *store.CategoryStore, fields *store.FieldStore) *Categories {
	return &Categories{categories: categories, fields: fields}
}

// List returns all categories in display order.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	categories, err := c.categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	items := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		items = append(items, map[string]any{
			"id":          cat.ID,
			"name":        cat.Name,
			"slug":        cat.Slug,
			"description": cat.Description,
			"parent_id":   cat.ParentID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

// Fields returns the dynamic-field schema for one category, with a
// summary clients can use to build submission forms.
func (c *Categories) Fields(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errorJSON(w, http.StatusNotFound, "Category not found")
		return
	}

	category, err := c.categories.FindByID(id)
	if err != nil {
		slog.Error("find category failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if category == nil {
		errorJSON(w, http.StatusNotFound, "Category not found")
		return
	}

	fields, err := c.fields.ForCategory(category.ID)
	if err != nil {
		slog.Error("load category fields failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	required := 0
	resources := make([]map[string]any, 0, len(fields))
	for i := range fields {
		if fields[i].IsRequired {
			required++
		}
		resources = append(resources, fieldResource(&fields[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category": map[string]any{
			"id":   category.ID,
			"name": category.Name,
			"slug": category.Slug,
		},
		"fields": resources,
		"summary": map[string]any{
			"total_fields":    len(fields),
			"required_fields": required,
			"optional_fields": len(fields) - required,
		},
	})
}

// fieldResource renders one field definition for schema responses,
// attaching the option list for choice-type fields.
func fieldResource(f *models.CategoryField) map[string]any {
	resource := map[string]any{
		"field_key":        f.FieldKey,
		"field_label":      f.FieldLabel,
		"field_type":       f.FieldType,
		"is_required":      f.IsRequired,
		"is_searchable":    f.IsSearchable,
		"placeholder":      f.Placeholder,
		"help_text":        f.HelpText,
		"validation_rules": f.ValidationRules,
		"order":            f.SortOrder,
	}

	if f.FieldType.IsChoice() && len(f.Options) > 0 {
		options := make([]map[string]any, 0, len(f.Options))
		for _, o := range f.Options {
			options = append(options, map[string]any{
				"value":      o.OptionValue,
				"label":      o.OptionLabel,
				"is_default": o.IsDefault,
			})
		}
		resource["options"] = options
	}

	return resource
}
