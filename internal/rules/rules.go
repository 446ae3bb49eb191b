// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package rules builds and evaluates validation rule sets for dynamic
// category fields. Rules are derived at request time from a schema snapshot
// (the category's field definitions with their options), so the package has
// no database dependency and is testable in isolation.
//
// A rule set is a pipe-delimited expression, e.g. "required|numeric|min:0".
// Tokens are evaluated left to right; "nullable" short-circuits the rest of
// the chain when the value is absent.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"adsouk/internal/models"
)

// FieldNamespace prefixes dynamic-field error keys to separate them from
// ad-level keys in validation responses.
const FieldNamespace = "fields."

// FieldErrors maps an error key (field path) to its messages.
type FieldErrors map[string][]string

// Add appends a message for the given key.
func (e FieldErrors) Add(key, msg string) {
	e[key] = append(e[key], msg)
}

// HasFieldErrors reports whether any error key falls under the
// dynamic-field namespace.
func (e FieldErrors) HasFieldErrors() bool {
	for key := range e {
		if strings.HasPrefix(key, FieldNamespace) {
			return true
		}
	}
	return false
}

// BuildFieldRules derives the rule expression for one schema field:
// required-ness first, then the type constraint, then the field's custom
// tokens with duplicates skipped.
func BuildFieldRules(f *models.CategoryField) string {
	var tokens []string

	if f.IsRequired {
		tokens = append(tokens, "required")
	} else {
		tokens = append(tokens, "nullable")
	}

	switch f.FieldType {
	case models.FieldTypeNumber:
		tokens = append(tokens, "numeric")
	case models.FieldTypeDate:
		tokens = append(tokens, "date")
	case models.FieldTypeSelect, models.FieldTypeRadio:
		// Membership constraint against the option values fetched with the
		// schema snapshot. Option sets may change between requests, so the
		// list is never cached.
		if values := f.OptionValues(); len(values) > 0 {
			tokens = append(tokens, "in:"+strings.Join(values, ","))
		}
	case models.FieldTypeCheckbox:
		tokens = append(tokens, "boolean")
	default:
		// text and any unrecognized type
		tokens = append(tokens, "string")
	}

	if f.ValidationRules != nil {
		for _, custom := range strings.Split(*f.ValidationRules, "|") {
			custom = strings.TrimSpace(custom)
			if custom == "" || contains(tokens, custom) {
				continue
			}
			tokens = append(tokens, custom)
		}
	}

	return strings.Join(tokens, "|")
}

// BuildRules maps each submission key of the schema to its rule expression,
// keyed by field path ("fields.<key>").
func BuildRules(fields []models.CategoryField) map[string]string {
	out := make(map[string]string, len(fields))
	for i := range fields {
		f := &fields[i]
		out[FieldNamespace+f.FieldKey] = BuildFieldRules(f)
	}
	return out
}

// Validate checks a submission against a schema snapshot. It returns the
// normalized value set (submitted values restricted to schema keys, with
// explicit nulls dropped) or the structured error report. Submitted keys
// that no schema field defines are ignored here; the attribute store drops
// them at write time as well.
func Validate(fields []models.CategoryField, submission map[string]any) (map[string]any, FieldErrors) {
	errs := FieldErrors{}
	normalized := make(map[string]any)

	for i := range fields {
		f := &fields[i]
		raw, present := submission[f.FieldKey]
		path := FieldNamespace + f.FieldKey

		ok := applyRules(f, strings.Split(BuildFieldRules(f), "|"), raw, present, path, errs)
		if ok && present && raw != nil {
			normalized[f.FieldKey] = raw
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return normalized, nil
}

// applyRules evaluates a token chain against one submitted value. Returns
// false when any token failed. Unknown tokens are ignored.
func applyRules(f *models.CategoryField, tokens []string, raw any, present bool, path string, errs FieldErrors) bool {
	numeric := contains(tokens, "numeric")
	before := len(errs[path])

	for _, token := range tokens {
		switch {
		case token == "required":
			if !present || isEmpty(raw) {
				errs.Add(path, fmt.Sprintf("The %s field is required.", f.FieldLabel))
				return false
			}

		case token == "nullable":
			if !present || raw == nil {
				return true
			}

		case token == "numeric":
			if _, ok := asNumber(raw); !ok {
				errs.Add(path, fmt.Sprintf("The %s field must be a number.", f.FieldLabel))
			}

		case token == "date":
			if !isDate(raw) {
				errs.Add(path, fmt.Sprintf("The %s field must be a valid date.", f.FieldLabel))
			}

		case token == "boolean":
			if !isBoolean(raw) {
				errs.Add(path, fmt.Sprintf("The %s field must be true or false.", f.FieldLabel))
			}

		case token == "string":
			if _, ok := raw.(string); !ok {
				errs.Add(path, fmt.Sprintf("The %s field must be a string.", f.FieldLabel))
			}

		case strings.HasPrefix(token, "in:"):
			allowed := strings.Split(strings.TrimPrefix(token, "in:"), ",")
			if !contains(allowed, Stringify(raw)) {
				errs.Add(path, fmt.Sprintf("The selected %s is invalid.", f.FieldLabel))
			}

		case strings.HasPrefix(token, "min:"):
			checkBound(f, token, raw, numeric, false, path, errs)

		case strings.HasPrefix(token, "max:"):
			checkBound(f, token, raw, numeric, true, path, errs)
		}
	}

	return len(errs[path]) == before
}

// checkBound enforces a min:/max: token: a numeric bound when the chain
// carries a numeric constraint, a length bound otherwise.
func checkBound(f *models.CategoryField, token string, raw any, numeric, isMax bool, path string, errs FieldErrors) {
	parts := strings.SplitN(token, ":", 2)
	limit, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return // malformed token from the source metadata; ignore
	}

	if numeric {
		n, ok := asNumber(raw)
		if !ok {
			return // the numeric token already reported this
		}
		if (isMax && n > limit) || (!isMax && n < limit) {
			word := "at least"
			if isMax {
				word = "at most"
			}
			errs.Add(path, fmt.Sprintf("The %s field must be %s %s.", f.FieldLabel, word, parts[1]))
		}
		return
	}

	length := float64(utf8.RuneCountInString(Stringify(raw)))
	if (isMax && length > limit) || (!isMax && length < limit) {
		word := "at least"
		if isMax {
			word = "at most"
		}
		errs.Add(path, fmt.Sprintf("The %s field must be %s %s characters.", f.FieldLabel, word, parts[1]))
	}
}

// isEmpty reports whether a submitted value counts as "no value" for the
// required check: nil, an empty or whitespace string, or an empty composite.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// asNumber coerces JSON scalars to float64.
func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n, err == nil
	}
	return 0, false
}

// dateFormats are the accepted date layouts, most specific first.
var dateFormats = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func isDate(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBoolean(v any) bool {
	switch val := v.(type) {
	case bool:
		return true
	case float64:
		return val == 0 || val == 1
	case string:
		switch val {
		case "true", "false", "0", "1":
			return true
		}
	}
	return false
}

// Stringify renders a scalar submission value the way it is compared and
// stored: floats without a trailing exponent, booleans as true/false.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
