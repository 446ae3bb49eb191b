// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"adsouk/internal/models"
)

// adFixture is the shared scaffolding for ad tests: an owner, a category,
// and a small schema (one select with options, one optional number).
type adFixture struct {
	user     *models.User
	category *models.Category
	schema   []models.CategoryField
}

func seedAdFixture(t *testing.T, db *sql.DB, ext string, sourceID int) *adFixture {
	t.Helper()

	email := ext + "@store-test.local"
	user, err := NewUserStore(db).Create("Ad Owner", email, "pass")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })

	category := seedCategory(t, db, ext, sourceID)

	fields := NewFieldStore(db)
	brand, err := fields.UpsertField(&models.CategoryField{
		CategoryID: &category.ID,
		ExternalID: ext + "_brand",
		FieldKey:   "brand",
		FieldLabel: "Brand",
		FieldType:  models.FieldTypeSelect,
		IsRequired: true,
		SortOrder:  0,
	})
	if err != nil {
		t.Fatalf("seed brand field: %v", err)
	}
	for i, value := range []string{"bmw", "audi"} {
		if _, err := fields.UpsertOption(&models.FieldOption{
			FieldID:     brand.ID,
			ExternalID:  brand.ExternalID + "_option_" + value,
			OptionKey:   value,
			OptionLabel: map[string]string{"bmw": "BMW", "audi": "Audi"}[value],
			OptionValue: value,
			SortOrder:   i,
		}); err != nil {
			t.Fatalf("seed option %s: %v", value, err)
		}
	}
	if _, err := fields.UpsertField(&models.CategoryField{
		CategoryID: &category.ID,
		ExternalID: ext + "_year",
		FieldKey:   "year",
		FieldLabel: "Year",
		FieldType:  models.FieldTypeNumber,
		SortOrder:  1,
	}); err != nil {
		t.Fatalf("seed year field: %v", err)
	}

	schema, err := fields.ForCategory(category.ID)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	return &adFixture{user: user, category: category, schema: schema}
}

func TestAdStoreCreateWithValues(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-create", 92001)

	price := 15500.0
	ad, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "BMW 320i",
		Description: "Clean title, single owner",
		Price:       &price,
	}, map[string]any{
		"brand": "bmw",
		"year":  float64(2018),
	}, fx.schema)
	if err != nil {
		t.Fatalf("CreateWithValues: %v", err)
	}

	if ad.ID == uuid.Nil {
		t.Error("expected non-nil ad ID")
	}
	if ad.Status != models.AdStatusActive {
		t.Errorf("empty status should default to active, got %q", ad.Status)
	}

	// The returned aggregate carries relations and resolved values.
	if ad.Category == nil || ad.Category.ID != fx.category.ID {
		t.Error("aggregate should include the category")
	}
	if ad.User == nil || ad.User.ID != fx.user.ID {
		t.Error("aggregate should include the owner")
	}
	if len(ad.Values) != 2 {
		t.Fatalf("expected 2 attribute values, got %d", len(ad.Values))
	}

	dynamic := ad.DynamicFields()
	brand, ok := dynamic["brand"]
	if !ok {
		t.Fatal("expected brand in dynamic fields")
	}
	if brand.Value != "bmw" {
		t.Errorf("brand value: got %q", brand.Value)
	}
	if brand.ValueLabel != "BMW" {
		t.Errorf("brand value label: got %q, want option label", brand.ValueLabel)
	}

	count, err := s.CountValues(ad.ID)
	if err != nil {
		t.Fatalf("CountValues: %v", err)
	}
	if count != 2 {
		t.Errorf("stored rows: got %d, want 2", count)
	}
}

func TestAdStoreSparseValues(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-sparse", 92002)

	// Unknown keys and explicit nulls produce no rows; only known,
	// non-null values are stored.
	ad, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "Sparse ad",
		Description: "Only brand submitted",
	}, map[string]any{
		"brand":     "audi",
		"year":      nil,
		"undefined": "ignored",
	}, fx.schema)
	if err != nil {
		t.Fatalf("CreateWithValues: %v", err)
	}

	count, err := s.CountValues(ad.ID)
	if err != nil {
		t.Fatalf("CountValues: %v", err)
	}
	if count != 1 {
		t.Errorf("stored rows: got %d, want 1 (brand only)", count)
	}

	if _, ok := ad.DynamicFields()["year"]; ok {
		t.Error("null value must not appear in dynamic fields")
	}
}

func TestAdStoreCompositeValueStoredAsJSON(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-json", 92003)

	ad, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "Composite ad",
		Description: "Array value",
	}, map[string]any{
		"brand": []any{"bmw", "audi"},
	}, fx.schema)
	if err != nil {
		t.Fatalf("CreateWithValues: %v", err)
	}

	var stored string
	err = db.QueryRow(
		"SELECT value FROM ad_field_values WHERE ad_id = $1", ad.ID,
	).Scan(&stored)
	if err != nil {
		t.Fatalf("read stored value: %v", err)
	}
	if stored != `["bmw","audi"]` {
		t.Errorf("stored value: got %q, want JSON array", stored)
	}
}

func TestAdStoreCreateRollsBackOnValueFailure(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-atomic", 92008)

	// A schema entry pointing at a nonexistent field makes the attribute
	// insert violate its FK after the ad row is already written inside
	// the transaction.
	ghost := append([]models.CategoryField{}, fx.schema...)
	ghost = append(ghost, models.CategoryField{
		ID:       uuid.New(),
		FieldKey: "ghost",
	})

	_, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "Atomic",
		Description: "desc",
	}, map[string]any{"brand": "bmw", "ghost": "x"}, ghost)
	if err == nil {
		t.Fatal("expected the attribute insert to fail")
	}

	// Neither the ad row nor any attribute row may survive.
	var ads int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM ads WHERE category_id = $1", fx.category.ID,
	).Scan(&ads); err != nil {
		t.Fatalf("count ads: %v", err)
	}
	if ads != 0 {
		t.Errorf("ad row survived a failed attribute insert: %d", ads)
	}

	var values int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM ad_field_values v
		 JOIN category_fields f ON f.id = v.category_field_id
		 WHERE f.category_id = $1`, fx.category.ID,
	).Scan(&values); err != nil {
		t.Fatalf("count values: %v", err)
	}
	if values != 0 {
		t.Errorf("attribute rows survived rollback: %d", values)
	}
}

func TestAdStoreFindByID(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-find", 92004)

	created, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "Find me",
		Description: "desc",
		Status:      models.AdStatusDraft,
	}, map[string]any{"brand": "bmw"}, fx.schema)
	if err != nil {
		t.Fatalf("CreateWithValues: %v", err)
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected ad, got nil")
	}
	if found.Status != models.AdStatusDraft {
		t.Errorf("status: got %q", found.Status)
	}
	if len(found.Values) != 1 {
		t.Errorf("values: got %d, want 1", len(found.Values))
	}

	// Miss returns nil without error.
	missing, err := s.FindByID(uuid.New())
	if err != nil {
		t.Fatalf("FindByID miss: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown ad")
	}
}

func TestAdStoreList(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-list", 92005)

	mk := func(title, desc string, status models.AdStatus) {
		t.Helper()
		if _, err := s.CreateWithValues(&models.Ad{
			UserID:      fx.user.ID,
			CategoryID:  fx.category.ID,
			Title:       title,
			Description: desc,
			Status:      status,
		}, map[string]any{"brand": "bmw"}, fx.schema); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}
	mk("Red bicycle", "city bike", models.AdStatusActive)
	mk("Blue bicycle", "mountain bike", models.AdStatusActive)
	mk("Old couch", "worn but comfy", models.AdStatusSold)

	t.Run("filter by category", func(t *testing.T) {
		ads, total, err := s.List(ListFilter{CategoryID: &fx.category.ID})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 3 || len(ads) != 3 {
			t.Errorf("got total=%d len=%d, want 3/3", total, len(ads))
		}
		// Relations come loaded for listings too.
		if ads[0].Category == nil || ads[0].User == nil {
			t.Error("listed ads should carry category and owner")
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		_, total, err := s.List(ListFilter{CategoryID: &fx.category.ID, Status: "sold"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 {
			t.Errorf("sold total: got %d, want 1", total)
		}
	})

	t.Run("search matches title and description", func(t *testing.T) {
		_, total, err := s.List(ListFilter{CategoryID: &fx.category.ID, Search: "bicycle"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 {
			t.Errorf("bicycle total: got %d, want 2", total)
		}

		_, total, err = s.List(ListFilter{CategoryID: &fx.category.ID, Search: "comfy"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 {
			t.Errorf("description search total: got %d, want 1", total)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		ads, total, err := s.List(ListFilter{CategoryID: &fx.category.ID, Page: 2, PerPage: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 3 {
			t.Errorf("total: got %d, want 3", total)
		}
		if len(ads) != 1 {
			t.Errorf("page 2 size: got %d, want 1", len(ads))
		}
	})
}

func TestAdStoreListByOwner(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-owner", 92006)

	other, err := NewUserStore(db).Create("Other", "test-ad-other@store-test.local", "pass")
	if err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, "test-ad-other@store-test.local") })

	for _, owner := range []uuid.UUID{fx.user.ID, fx.user.ID, other.ID} {
		if _, err := s.CreateWithValues(&models.Ad{
			UserID:      owner,
			CategoryID:  fx.category.ID,
			Title:       "Owner ad",
			Description: "desc",
		}, map[string]any{"brand": "bmw"}, fx.schema); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ads, total, err := s.ListByOwner(fx.user.ID, 1, 15)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if total != 2 || len(ads) != 2 {
		t.Errorf("got total=%d len=%d, want 2/2", total, len(ads))
	}
	for _, ad := range ads {
		if ad.UserID != fx.user.ID {
			t.Errorf("foreign ad in listing: owner %s", ad.UserID)
		}
	}
}

func TestAdValueUniquePerField(t *testing.T) {
	db := testDB(t)
	s := NewAdStore(db)
	fx := seedAdFixture(t, db, "test-ad-unique", 92007)

	ad, err := s.CreateWithValues(&models.Ad{
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		Title:       "Unique",
		Description: "desc",
	}, map[string]any{"brand": "bmw"}, fx.schema)
	if err != nil {
		t.Fatalf("CreateWithValues: %v", err)
	}

	// A second row for the same (ad, field) pair violates the constraint.
	var fieldID uuid.UUID
	if err := db.QueryRow(
		"SELECT category_field_id FROM ad_field_values WHERE ad_id = $1", ad.ID,
	).Scan(&fieldID); err != nil {
		t.Fatalf("read field id: %v", err)
	}

	_, err = db.Exec(
		"INSERT INTO ad_field_values (ad_id, category_field_id, value) VALUES ($1, $2, $3)",
		ad.ID, fieldID, "audi",
	)
	if err == nil {
		t.Error("expected unique violation for duplicate (ad, field) value")
	}
}
