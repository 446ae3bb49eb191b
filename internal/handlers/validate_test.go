package handlers

import (
	"strings"
	"testing"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name       string
		userName   string
		email      string
		password   string
		wantFields []string
	}{
		{"valid", "Jane Doe", "jane@example.com", "longenough", nil},
		{"empty name", "", "jane@example.com", "longenough", []string{"name"}},
		{"name too long", strings.Repeat("a", 256), "jane@example.com", "longenough", []string{"name"}},
		{"empty email", "Jane", "", "longenough", []string{"email"}},
		{"bad email", "Jane", "not-an-email", "longenough", []string{"email"}},
		{"empty password", "Jane", "jane@example.com", "", []string{"password"}},
		{"short password", "Jane", "jane@example.com", "short", []string{"password"}},
		{"everything wrong", "", "nope", "x", []string{"name", "email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateRegistration(tt.userName, tt.email, tt.password)

			if tt.wantFields == nil {
				if errs != nil {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}

			if len(errs) != len(tt.wantFields) {
				t.Errorf("error fields: got %v, want %v", errs, tt.wantFields)
			}
			for _, field := range tt.wantFields {
				if len(errs[field]) == 0 {
					t.Errorf("expected an error for %q, got none", field)
				}
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantError bool
	}{
		{"valid", "jane@example.com", false},
		{"with plus", "jane+tag@example.com", false},
		{"empty", "", true},
		{"missing at", "janeexample.com", true},
		{"missing domain", "jane@", true},
		{"too long", strings.Repeat("a", 250) + "@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateEmail(tt.email)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}
