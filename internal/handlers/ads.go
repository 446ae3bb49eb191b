// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adsouk/internal/middleware"
	"adsouk/internal/models"
	"adsouk/internal/rules"
	"adsouk/internal/store"
)

// Ads groups the listing endpoints: public browse/read and authenticated
// creation.
type Ads struct {
	ads        *store.AdStore
	categories *store.CategoryStore
	fields     *store.FieldStore
}

// NewAds creates a new Ads handler group.
func NewAds(ads *store.AdStore, categories *store.CategoryStore, fields *store.FieldStore) *Ads {
	return &Ads{ads: ads, categories: categories, fields: fields}
}

// List returns one page of ads, filterable by category, status, and a
// title/description substring.
func (h *Ads) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	if raw := q.Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			validationJSON(w, map[string][]string{
				"category_id": {"The selected category is invalid."},
			}, nil)
			return
		}
		filter.CategoryID = &id
	}
	if filter.Status != "" && !models.ValidAdStatus(filter.Status) {
		validationJSON(w, map[string][]string{
			"status": {"The selected status is invalid."},
		}, nil)
		return
	}

	ads, total, err := h.ads.List(filter)
	if err != nil {
		slog.Error("list ads failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writePage(w, ads, total, filter.Page, filter.PerPage)
}

// Show returns one ad aggregate by ID.
func (h *Ads) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errorJSON(w, http.StatusNotFound, "Ad not found")
		return
	}

	ad, err := h.ads.FindByID(id)
	if err != nil {
		slog.Error("find ad failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if ad == nil {
		errorJSON(w, http.StatusNotFound, "Ad not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": adResource(ad)})
}

// MyAds returns one page of the authenticated caller's own ads.
func (h *Ads) MyAds(w http.ResponseWriter, r *http.Request) {
	identity := middleware.TokenFromCtx(r.Context())

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	ads, total, err := h.ads.ListByOwner(identity.UserID, page, perPage)
	if err != nil {
		slog.Error("list own ads failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writePage(w, ads, total, page, perPage)
}

// createAdRequest is the submission body for POST /v1/ads. Dynamic field
// values arrive under "fields", keyed by field_key.
type createAdRequest struct {
	CategoryID  string         `json:"category_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       *float64       `json:"price"`
	Status      string         `json:"status"`
	Fields      map[string]any `json:"fields"`
}

// Create validates the submission against the ad-level constraints and the
// category's dynamic schema, then persists the ad and its attribute values
// in one transaction. Validation failures return 422 with per-field errors
// and, for dynamic-field failures, a help block describing the category's
// schema.
func (h *Ads) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.TokenFromCtx(r.Context())

	var req createAdRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	errs := rules.FieldErrors{}
	category := h.validateAdLevel(&req, errs)

	// Dynamic-field validation needs a schema snapshot; without a valid
	// category there is nothing to validate against.
	var schema []models.CategoryField
	if category != nil {
		var err error
		schema, err = h.fields.ForCategory(category.ID)
		if err != nil {
			slog.Error("load schema failed", "error", err)
			errorJSON(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if _, fieldErrs := rules.Validate(schema, req.Fields); fieldErrs != nil {
			for key, messages := range fieldErrs {
				errs[key] = append(errs[key], messages...)
			}
		}
	}

	if len(errs) > 0 {
		var extra map[string]any
		if category != nil && errs.HasFieldErrors() {
			extra = map[string]any{"help": helpPayload(r, category, schema)}
		}
		validationJSON(w, errs, extra)
		return
	}

	status := models.AdStatus(req.Status)
	if req.Status == "" {
		status = models.AdStatusActive
	}

	ad, err := h.ads.CreateWithValues(&models.Ad{
		UserID:      identity.UserID,
		CategoryID:  category.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      status,
	}, req.Fields, schema)
	if err != nil {
		slog.Error("create ad failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Failed to create ad",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"data": adResource(ad)})
}

// validateAdLevel checks the constraints that apply regardless of the
// category schema. Returns the category when the reference is valid.
func (h *Ads) validateAdLevel(req *createAdRequest, errs rules.FieldErrors) *models.Category {
	if req.Title == "" {
		errs.Add("title", "The ad title is required.")
	} else if len([]rune(req.Title)) > maxAdTitleLen {
		errs.Add("title", fmt.Sprintf("The title may not be greater than %d characters.", maxAdTitleLen))
	}

	if req.Description == "" {
		errs.Add("description", "The ad description is required.")
	}

	if req.Price != nil && *req.Price < 0 {
		errs.Add("price", "The price must be at least 0.")
	}

	if req.Status != "" && !models.ValidAdStatus(req.Status) {
		errs.Add("status", "The selected status is invalid.")
	}

	if req.CategoryID == "" {
		errs.Add("category_id", "Please select a category.")
		return nil
	}

	id, err := uuid.Parse(req.CategoryID)
	if err != nil {
		errs.Add("category_id", "The selected category is invalid.")
		return nil
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		errs.Add("category_id", "The selected category is invalid.")
		return nil
	}
	if category == nil {
		errs.Add("category_id", "The selected category is invalid.")
		return nil
	}
	return category
}

// helpPayload turns a dynamic-field validation failure into schema
// guidance: every field of the category with its key, label, type, and
// required flag, plus the valid option values for choice types, and the
// endpoint serving the live schema.
func helpPayload(r *http.Request, category *models.Category, schema []models.CategoryField) map[string]any {
	available := make([]map[string]any, 0, len(schema))
	for i := range schema {
		f := &schema[i]
		info := map[string]any{
			"field_key":   f.FieldKey,
			"field_label": f.FieldLabel,
			"field_type":  f.FieldType,
			"is_required": f.IsRequired,
		}
		if f.FieldType.IsChoice() && len(f.Options) > 0 {
			info["valid_options"] = f.OptionValues()
		}
		available = append(available, info)
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return map[string]any{
		"message": "Check the available fields for this category",
		"category": map[string]any{
			"id":   category.ID,
			"name": category.Name,
		},
		"available_fields": available,
		"endpoint":         fmt.Sprintf("%s://%s/api/v1/categories/%s/fields", scheme, r.Host, category.ID),
	}
}

// adResource renders the full ad aggregate for responses.
func adResource(ad *models.Ad) map[string]any {
	resource := map[string]any{
		"id":             ad.ID,
		"title":          ad.Title,
		"description":    ad.Description,
		"price":          ad.Price,
		"status":         ad.Status,
		"dynamic_fields": ad.DynamicFields(),
		"created_at":     ad.CreatedAt.Format(time.RFC3339),
		"updated_at":     ad.UpdatedAt.Format(time.RFC3339),
	}

	if ad.Category != nil {
		resource["category"] = map[string]any{
			"id":   ad.Category.ID,
			"name": ad.Category.Name,
			"slug": ad.Category.Slug,
		}
	}
	if ad.User != nil {
		resource["user"] = ad.User.Summary()
	}
	return resource
}

// writePage renders one page of ads with pagination metadata.
func writePage(w http.ResponseWriter, ads []models.Ad, total, page, perPage int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 15
	}

	items := make([]map[string]any, 0, len(ads))
	for i := range ads {
		items = append(items, adResource(&ads[i]))
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"current_page": page,
			"per_page":     perPage,
			"total":        total,
			"last_page":    lastPage,
		},
	})
}
