package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for account and ad fields.
const (
	maxNameLen     = 255
	maxEmailLen    = 255
	maxAdTitleLen  = 255
	minPasswordLen = 8
)

// validateRegistration checks registration inputs and returns the first
// error per field.
func validateRegistration(name, email, password string) map[string][]string {
	errs := map[string][]string{}

	name = strings.TrimSpace(name)
	if name == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	} else if utf8.RuneCountInString(name) > maxNameLen {
		errs["name"] = append(errs["name"], "The name may not be greater than 255 characters.")
	}

	if msg := validateEmail(email); msg != "" {
		errs["email"] = append(errs["email"], msg)
	}

	if password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	} else if utf8.RuneCountInString(password) < minPasswordLen {
		errs["password"] = append(errs["password"], "The password must be at least 8 characters.")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateEmail returns an empty string when the address is acceptable.
func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "The email field is required."
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return "The email may not be greater than 255 characters."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "The email must be a valid email address."
	}
	return ""
}
