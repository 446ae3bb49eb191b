// Package handlers implements the JSON API endpoints: authentication,
// the category/field schema surface, and the ad listing surface.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// errorJSON writes a plain {"message": ...} error body.
func errorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

// validationJSON writes the 422 body shared by all endpoints: a message,
// the per-field errors, and optional extra payloads (the help block).
func validationJSON(w http.ResponseWriter, errs map[string][]string, extra map[string]any) {
	body := map[string]any{
		"message": "The given data was invalid.",
		"errors":  errs,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusUnprocessableEntity, body)
}

// decodeJSON reads the request body into dst, rejecting malformed JSON.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
