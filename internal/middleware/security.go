// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders adds security-related HTTP headers to every response.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Prevent the browser from MIME-sniffing the Content-Type.
		h.Set("X-Content-Type-Options", "nosniff")

		// API responses must never render in a frame.
		h.Set("X-Frame-Options", "DENY")

		// Control what information is sent in the Referer header.
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
