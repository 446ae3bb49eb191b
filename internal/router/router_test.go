// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"

	"adsouk/internal/handlers"
	"adsouk/internal/token"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

// testRouter builds the router with handler groups that have no backing
// stores. Routes that never reach a store (health, auth guards, unknown
// paths) can still be exercised.
func testRouter() http.Handler {
	// The client never dials; requests without a bearer token skip it.
	tokens := token.NewStore(redis.NewClient(&redis.Options{Addr: "localhost:0"}))
	auth := handlers.NewAuth(nil, tokens)
	categories := handlers.NewCategories(nil, nil)
	ads := handlers.NewAds(nil, nil, nil)
	return New(tokens, auth, categories, ads)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter()

	protected := []struct {
		method, path string
	}{
		{"POST", "/api/v1/ads"},
		{"GET", "/api/v1/my-ads"},
		{"POST", "/api/v1/logout"},
		{"POST", "/api/v1/2fa/setup"},
		{"POST", "/api/v1/2fa/verify"},
	}

	for _, tc := range protected {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", tc.method, tc.path, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s %s: decode body: %v", tc.method, tc.path, err)
		}
		if body["message"] != "Unauthenticated." {
			t.Errorf("%s %s: message: got %q", tc.method, tc.path, body["message"])
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	r := testRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route: got %d, want 404", w.Code)
	}
}
