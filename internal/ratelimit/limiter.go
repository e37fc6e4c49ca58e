// Package ratelimit implements per-user, per-category sliding-window
// admission control for the bot's ingestion path.
//
// State is in-memory and process-wide with no persistence guarantee across
// restarts. If cross-instance enforcement is ever needed, the map can be
// swapped for a shared counter store behind the same interface.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Category names the kind of action being limited.
type Category string

const (
	CategoryMessages Category = "messages"
	CategoryLinks    Category = "links"
)

// Limit is a (max count, window) pair for one category.
type Limit struct {
	Max    int
	Window time.Duration
}

type key struct {
	userID   int64
	category Category
}

// Limiter is a sliding-window counter keyed by (user, category).
// Unknown categories and internal faults fail open: not blocking a
// legitimate user matters more than strict enforcement under error
// conditions.
type Limiter struct {
	mu      sync.Mutex
	entries map[key][]time.Time
	limits  map[Category]Limit
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Limiter with the given per-category limits.
func New(limits map[Category]Limit, log *zap.Logger) *Limiter {
	return &Limiter{
		entries: make(map[key][]time.Time),
		limits:  limits,
		log:     log,
		now:     time.Now,
	}
}

// Allow checks and consumes one unit for the user's category. When the
// window is full it rejects without consuming and returns a user-facing
// message.
func (l *Limiter) Allow(userID int64, category Category) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[category]
	if !ok {
		// A caller bug, not abuse.
		l.log.Warn("unknown rate limit category", zap.String("category", string(category)))
		return true, ""
	}

	now := l.now()
	k := key{userID: userID, category: category}

	kept := l.entries[k][:0]
	for _, ts := range l.entries[k] {
		if now.Sub(ts) < limit.Window {
			kept = append(kept, ts)
		}
	}
	l.entries[k] = kept

	if len(kept) >= limit.Max {
		l.log.Warn("rate limit exceeded",
			zap.Int64("user", userID),
			zap.String("category", string(category)),
		)
		return false, fmt.Sprintf("Rate limit exceeded. Please wait a moment before sending more %s.", category)
	}

	l.entries[k] = append(kept, now)
	return true, ""
}

// Cleanup drops users with no activity inside any window. Called from the
// scheduler's housekeeping so the map does not grow without bound.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, tss := range l.entries {
		window := time.Minute
		if lim, ok := l.limits[k.category]; ok {
			window = lim.Window
		}
		stale := true
		for _, ts := range tss {
			if now.Sub(ts) < window {
				stale = false
				break
			}
		}
		if stale {
			delete(l.entries, k)
		}
	}
}
