// Package allowlist implements the email authorization gate. Membership is
// the sole first-login authorization check: an empty or unloadable list
// denies everyone.
package allowlist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// List is a normalized set of permitted email addresses. Lookups are
// case-insensitive; the zero value denies everything.
type List struct {
	emails map[string]struct{}
}

// New builds a list from raw addresses, trimming whitespace and lowering
// case. Empty entries are dropped.
func New(emails []string) List {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return List{emails: set}
}

// Contains reports whether email is permitted. An empty list never matches.
func (l List) Contains(email string) bool {
	if len(l.emails) == 0 {
		return false
	}
	_, ok := l.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Len returns the number of distinct permitted addresses.
func (l List) Len() int {
	return len(l.emails)
}

// ParseJSON decodes the secret-store representation: a JSON array of email
// strings. Non-string entries are skipped rather than failing the whole list,
// matching how the list is curated by hand.
func ParseJSON(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var entries []any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("allow-list is not a JSON array: %w", err)
	}
	emails := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			emails = append(emails, strings.ToLower(strings.TrimSpace(s)))
		}
	}
	return emails, nil
}

// Loader fetches the raw allow-list addresses from wherever they live.
type Loader func(ctx context.Context) ([]string, error)

// Cache holds a List refreshed through an injected loader. It replaces the
// lazily-populated global of the earlier design: the owner constructs it,
// injects the loader, and controls refresh.
//
// A loader failure keeps the previous list if one was loaded and denies
// everything otherwise. The gate stays fail-closed either way.
type Cache struct {
	loader Loader
	ttl    time.Duration

	mu      sync.RWMutex
	list    List
	loaded  bool
	fetched time.Time
}

// NewCache builds a cache. ttl <= 0 disables refresh: the first successful
// load is kept for the life of the process.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{loader: loader, ttl: ttl}
}

// Get returns the current list, loading or refreshing it when stale.
func (c *Cache) Get(ctx context.Context) List {
	c.mu.RLock()
	fresh := c.loaded && (c.ttl <= 0 || time.Since(c.fetched) < c.ttl)
	list := c.list
	c.mu.RUnlock()
	if fresh {
		return list
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && (c.ttl <= 0 || time.Since(c.fetched) < c.ttl) {
		return c.list
	}
	emails, err := c.loader(ctx)
	if err != nil {
		if c.loaded {
			return c.list
		}
		return List{}
	}
	c.list = New(emails)
	c.loaded = true
	c.fetched = time.Now()
	return c.list
}

// Invalidate drops the cached list so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}

// StaticLoader adapts a fixed slice into a Loader, for configuration-sourced
// lists resolved once at startup.
func StaticLoader(emails []string) Loader {
	return func(context.Context) ([]string, error) {
		return emails, nil
	}
}
