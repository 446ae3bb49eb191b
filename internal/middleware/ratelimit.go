// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// clientWindow holds the request timestamps still inside the window for
// one client.
type clientWindow struct {
	hits []time.Time
}

// prune drops timestamps at or before the cutoff and reports whether any
// remain.
func (c *clientWindow) prune(cutoff time.Time) bool {
	kept := c.hits[:0]
	for _, ts := range c.hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.hits = kept
	return len(c.hits) > 0
}

// RateLimiter caps requests per client IP over a sliding window.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	done    chan struct{}
}

// NewRateLimiter allows limit requests per window per client. A background
// goroutine evicts idle clients until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		done:    make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok {
		client = &clientWindow{}
		rl.clients[key] = client
	}

	client.prune(now.Add(-rl.window))
	if len(client.hits) >= rl.limit {
		return false
	}
	client.hits = append(client.hits, now)
	return true
}

// cleanup evicts clients whose every request has aged out of the window.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, client := range rl.clients {
		if !client.prune(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects over-limit clients with a JSON 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"Too Many Requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the originating client address, honoring proxy
// headers before falling back to the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost entry is the original client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
