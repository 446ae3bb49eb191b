// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package taxonomy mirrors the external category/field taxonomy into the
// local schema store. The import is idempotent: every row is upserted
// keyed by its source external identifier, and parent links are resolved
// in a second pass since children may arrive before their parents.
package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"adsouk/internal/cache"
	"adsouk/internal/models"
	"adsouk/internal/olx"
	"adsouk/internal/slug"
	"adsouk/internal/store"
)

// Source fetches raw taxonomy payloads. *olx.Client satisfies it; tests
// substitute a fake.
type Source interface {
	FetchCategories(ctx context.Context) ([]byte, error)
	FetchCategoryFields(ctx context.Context, externalID string) ([]byte, error)
}

// Importer runs the one-way taxonomy mirror.
type Importer struct {
	source     Source
	cache      *cache.TaxonomyCache
	categories *store.CategoryStore
	fields     *store.FieldStore
}

// NewImporter creates an Importer over the given source, cache, and stores.
func NewImporter(source Source, tc *cache.TaxonomyCache, categories *store.CategoryStore, fields *store.FieldStore) *Importer {
	return &Importer{source: source, cache: tc, categories: categories, fields: fields}
}

// Run imports the full taxonomy. A failure fetching the top-level category
// list aborts the import; a failure fetching one category's fields is
// logged and that category is left without fields.
func (im *Importer) Run(ctx context.Context) error {
	raw, err := im.cache.Remember(ctx, cache.CategoriesKey(), func() ([]byte, error) {
		return im.source.FetchCategories(ctx)
	})
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}

	sourceCategories, err := olx.ParseCategories(raw)
	if err != nil {
		return err
	}

	// The source nests subcategories one level deep; flatten so every node
	// is imported the same way.
	var all []olx.SourceCategory
	for _, c := range sourceCategories {
		children := c.Children
		c.Children = nil
		all = append(all, c)
		all = append(all, children...)
	}

	slog.Info("taxonomy import started", "categories", len(all))

	var fieldCount int
	for i := range all {
		category, err := im.importCategory(&all[i])
		if err != nil {
			return err
		}
		n, err := im.importFields(ctx, category)
		if err != nil {
			// Per-category field fetch failures do not stop the import.
			slog.Warn("could not import fields for category",
				"category", category.Name,
				"external_id", category.ExternalID,
				"error", err,
			)
			continue
		}
		fieldCount += n
	}

	if err := im.linkParents(all); err != nil {
		return err
	}

	slog.Info("taxonomy import finished", "categories", len(all), "fields", fieldCount)
	return nil
}

// importCategory upserts one category keyed by its external identifier.
// The parent link is deliberately left alone; linkParents resolves it.
func (im *Importer) importCategory(src *olx.SourceCategory) (*models.Category, error) {
	name := src.Name
	if name == "" {
		name = "Unknown"
	}
	catSlug := src.Slug
	if catSlug == "" {
		catSlug = slug.Generate(name)
	}

	category, err := im.categories.Upsert(&models.Category{
		ExternalID:  string(src.ExternalID),
		SourceID:    int(src.ID),
		Name:        name,
		Slug:        catSlug,
		Description: src.Description,
		Icon:        src.Icon,
		SortOrder:   src.SortOrder(),
		IsActive:    src.Active(),
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("imported category",
		"name", category.Name,
		"source_id", category.SourceID,
		"external_id", category.ExternalID,
	)
	return category, nil
}

// importFields fetches and upserts the field definitions for one category.
// Returns the number of fields imported.
func (im *Importer) importFields(ctx context.Context, category *models.Category) (int, error) {
	raw, err := im.cache.Remember(ctx, cache.FieldsKey(category.ExternalID), func() ([]byte, error) {
		return im.source.FetchCategoryFields(ctx, category.ExternalID)
	})
	if err != nil {
		return 0, err
	}

	sourceFields, err := olx.ExtractFields(raw, strconv.Itoa(category.SourceID))
	if err != nil {
		return 0, err
	}
	if len(sourceFields) == 0 {
		slog.Debug("no fields for category", "category", category.Name)
		return 0, nil
	}

	imported := 0
	for i := range sourceFields {
		if err := im.importField(category, &sourceFields[i]); err != nil {
			// One bad field record should not sink the category.
			slog.Warn("could not import field",
				"category", category.Name,
				"field", sourceFields[i].FieldKey(),
				"error", err,
			)
			continue
		}
		imported++
	}
	return imported, nil
}

// importField upserts one field definition and, for option-carrying types,
// its choices.
func (im *Importer) importField(category *models.Category, src *olx.SourceField) error {
	fieldType := InferFieldType(src.RawType())
	rules := SynthesizeRules(src)

	field, err := im.fields.UpsertField(&models.CategoryField{
		CategoryID:      &category.ID,
		ExternalID:      src.ExternalID(category.ExternalID),
		FieldKey:        src.FieldKey(),
		FieldLabel:      src.FieldLabel(),
		FieldType:       fieldType,
		IsRequired:      src.Mandatory(),
		IsSearchable:    src.SearchableFlag(),
		ValidationRules: rules,
		Placeholder:     src.Placeholder,
		HelpText:        src.Help,
		SortOrder:       src.SortOrder(),
		Metadata:        src.Raw,
	})
	if err != nil {
		return err
	}

	if !fieldType.HasOptions() || len(src.Choices) == 0 {
		return nil
	}

	for i := range src.Choices {
		choice := &src.Choices[i]
		_, err := im.fields.UpsertOption(&models.FieldOption{
			FieldID:     field.ID,
			ExternalID:  choice.ExternalID(field.ExternalID, i),
			OptionKey:   choice.OptionKey(i),
			OptionLabel: choice.OptionLabel(i),
			OptionValue: choice.OptionValue(i),
			SortOrder:   choice.SortOrder(i),
			IsDefault:   choice.Default,
			Metadata:    choice.Raw,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// linkParents is the second import pass: every source record carrying a
// parent reference is matched against the already-imported categories by
// the parent's internal source ID.
func (im *Importer) linkParents(all []olx.SourceCategory) error {
	for i := range all {
		src := &all[i]
		if src.ParentID == nil {
			continue
		}

		child, err := im.categories.FindByExternalID(string(src.ExternalID))
		if err != nil {
			return err
		}
		if child == nil {
			continue
		}

		parent, err := im.categories.FindBySourceID(int(*src.ParentID))
		if err != nil {
			return err
		}
		if parent == nil {
			slog.Warn("parent not found for category",
				"category", child.Name,
				"parent_source_id", *src.ParentID,
			)
			continue
		}

		if err := im.categories.SetParent(child.ID, parent.ID); err != nil {
			return err
		}
		slog.Debug("linked category to parent", "category", child.Name, "parent", parent.Name)
	}
	return nil
}

// fieldTypeMap maps the source type vocabulary onto the five canonical
// field types.
var fieldTypeMap = map[string]models.FieldType{
	"input":           models.FieldTypeText,
	"textarea":        models.FieldTypeText,
	"string":          models.FieldTypeText,
	"select":          models.FieldTypeSelect,
	"enum":            models.FieldTypeSelect,
	"single_choice":   models.FieldTypeSelect,
	"radio":           models.FieldTypeRadio,
	"checkbox":        models.FieldTypeCheckbox,
	"boolean":         models.FieldTypeCheckbox,
	"multiple_choice": models.FieldTypeCheckbox,
	"number":          models.FieldTypeNumber,
	"price":           models.FieldTypeNumber,
	"float":           models.FieldTypeNumber,
	"integer":         models.FieldTypeNumber,
	"range":           models.FieldTypeNumber,
	"date":            models.FieldTypeDate,
}

// InferFieldType maps a source type token onto a canonical field type,
// defaulting to text for anything unrecognized.
func InferFieldType(raw string) models.FieldType {
	if t, ok := fieldTypeMap[strings.ToLower(raw)]; ok {
		return t
	}
	return models.FieldTypeText
}

// SynthesizeRules mirrors the source record's required/min/max/length
// hints into the pipe-delimited custom rule string stored on the field.
// Returns nil when the record carries no hints.
func SynthesizeRules(src *olx.SourceField) *string {
	var tokens []string

	if src.Mandatory() {
		tokens = append(tokens, "required")
	}

	switch InferFieldType(src.RawType()) {
	case models.FieldTypeNumber:
		tokens = append(tokens, "numeric")
	case models.FieldTypeDate:
		tokens = append(tokens, "date")
	}

	if src.MinValue != nil {
		tokens = append(tokens, "min:"+formatBound(*src.MinValue))
	} else if src.Min != nil {
		tokens = append(tokens, "min:"+formatBound(*src.Min))
	}

	if src.MaxValue != nil {
		tokens = append(tokens, "max:"+formatBound(*src.MaxValue))
	} else if src.Max != nil {
		tokens = append(tokens, "max:"+formatBound(*src.Max))
	}

	if src.MinLength != nil {
		tokens = append(tokens, "min:"+strconv.Itoa(*src.MinLength))
	}
	if src.MaxLength != nil {
		tokens = append(tokens, "max:"+strconv.Itoa(*src.MaxLength))
	}

	if len(tokens) == 0 {
		return nil
	}
	joined := strings.Join(tokens, "|")
	return &joined
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
