// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import "strings"

// Generate creates a URL-friendly slug from the given string.
// Example: "BMW 320i (2018)" → "bmw-320i-2018"
//
// Lowercase letters, digits, and hyphens pass through; spaces become
// hyphens; anything else is dropped. Runs of hyphens collapse to one and
// never lead or trail.
func Generate(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case r == ' ', r == '-':
			if !hyphen {
				b.WriteByte('-')
			}
			hyphen = true
		case r == '\t', r == '\n', r == '\f', r == '\r':
			b.WriteRune(r)
			hyphen = false
		}
	}

	return strings.Trim(b.String(), "-")
}
