// Package cache provides the in-memory, per-resource-class TTL cache that sits
// in front of the upstream sports-data API.
package cache

import (
	"time"
)

// Entry represents a cached upstream payload.
type Entry struct {
	// Data is the unwrapped payload (opaque to the cache)
	Data any

	// CreatedAt is when the payload was fetched
	CreatedAt time.Time

	// TTL is how long the entry may be served after CreatedAt
	TTL time.Duration
}

// IsValid reports whether the entry may still be served at now.
// An entry is valid iff now - CreatedAt < TTL.
func (e *Entry) IsValid(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// Age returns how long ago the entry was fetched.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Remaining returns the time until the entry goes stale.
// Returns 0 if already stale.
func (e *Entry) Remaining(now time.Time) time.Duration {
	left := e.TTL - now.Sub(e.CreatedAt)
	if left < 0 {
		return 0
	}
	return left
}
