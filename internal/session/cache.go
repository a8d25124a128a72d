// Package session keeps per-browser state in a TTL-bounded memory cache.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName identifies the browser session.
const CookieName = "agroscan_sid"

// Cache is a memory cache with per-entry TTL and a maximum size. When full,
// the least recently accessed entry is evicted.
type Cache[V any] struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[V]
}

type entry[V any] struct {
	value      V
	expiresAt  time.Time
	lastAccess time.Time
}

// New creates a cache. A maxSize <= 0 means unbounded.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		entries: make(map[string]*entry[V]),
	}
}

// Get returns the value for key and refreshes its expiry.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	now := c.now()
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	e.lastAccess = now
	e.expiresAt = now.Add(c.ttl)
	return e.value, true
}

// Set stores value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}
	c.entries[key] = &entry[V]{
		value:      value,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// evictLocked drops expired entries, or the least recently used one if
// none have expired.
func (c *Cache[V]) evictLocked(now time.Time) {
	var oldestKey string
	var oldestTime time.Time
	expired := false
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			expired = true
			continue
		}
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastAccess
		}
	}
	if !expired && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// ID returns the session ID from the request cookie, issuing a new cookie
// when the request has none.
func ID(w http.ResponseWriter, r *http.Request, secure bool) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Lookup returns the session ID from the request cookie without issuing one.
func Lookup(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
