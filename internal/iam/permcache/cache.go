// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package permcache caches role → permission-name resolutions in memory.

Web session requests authorize against the live directory on every request.
Without a cache that is one JOIN query per page load per operator; with it,
each role costs at most one query per TTL window regardless of traffic.

Behavior contract:

  - Fresh entry: served from memory, no query.
  - Missing or expired entry: exactly ONE directory query is in flight per
    role at any moment (singleflight); concurrent requests for the same role
    share its result.
  - Directory failure: the request is answered with an EMPTY permission set
    (fail closed — an outage must never grant access), and the failure is
    NOT cached, so the next request retries.
  - Bounded: when the entry count exceeds the limit, the oldest fifth of the
    entries is evicted.
*/
package permcache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults applied when the corresponding Config field is zero.
const (
	// DefaultTTL bounds how stale a cached resolution can get. Permission
	// edits reach web sessions within this window at worst.
	DefaultTTL = 5 * time.Minute

	// DefaultMaxEntries bounds memory: the cache holds one entry per role
	// name, and deployments rarely define more than a few dozen roles.
	DefaultMaxEntries = 100
)

// Directory is the read side of the role/permission store.
type Directory interface {
	// PermissionNamesByRole returns the sorted permission names of the role.
	// Unknown roles yield an empty slice, not an error.
	PermissionNamesByRole(context context.Context, roleName string) ([]string, error)
}

// Config tunes the cache. Zero values fall back to the package defaults.
type Config struct {
	TTL        time.Duration
	MaxEntries int

	// Now overrides the clock. Used by tests; leave nil in production.
	Now func() time.Time
}

type entry struct {
	names     []string
	fetchedAt time.Time
}

// Cache is a TTL-bounded, singleflight-deduplicated role resolution cache.
//
// # Concurrency
//
// All methods are safe for concurrent use.
type Cache struct {
	directory  Directory
	logger     *slog.Logger
	ttl        time.Duration
	maxEntries int

	// now is swappable for deterministic tests.
	now func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache constructs a [Cache] over the given directory.
func NewCache(directory Directory, logger *slog.Logger, config Config) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Cache{
		directory:  directory,
		logger:     logger,
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        config.Now,
		entries:    make(map[string]*entry),
	}
}

/*
PermissionNames resolves the permission names of a role, serving from cache
when the entry is younger than the TTL.

Description: On a miss or expiry, concurrent callers for the same role are
collapsed into a single directory query. If that query fails, every waiting
caller receives an empty slice — access is denied rather than guessed — and
nothing is cached, so the next request retries the directory.

Parameters:
  - context: context.Context
  - roleName: string

Returns:
  - []string: The role's permission names (a private copy; never nil)
*/
func (cache *Cache) PermissionNames(context context.Context, roleName string) []string {
	cache.mu.Lock()
	if cached, ok := cache.entries[roleName]; ok && cache.now().Sub(cached.fetchedAt) < cache.ttl {
		names := copyNames(cached.names)
		cache.mu.Unlock()
		return names
	}
	cache.mu.Unlock()

	result, err, _ := cache.group.Do(roleName, func() (interface{}, error) {
		names, err := cache.directory.PermissionNamesByRole(context, roleName)
		if err != nil {
			return nil, err
		}

		cache.store(roleName, names)
		return names, nil
	})

	if err != nil {
		// Fail closed: a directory outage denies, never grants.
		cache.logger.WarnContext(context, "permcache_directory_unavailable",
			slog.String("role", roleName),
			slog.Any("error", err),
		)
		return []string{}
	}

	return copyNames(result.([]string))
}

// Refresh forces a fresh directory fetch for the role, replacing any cached
// entry. Errors leave the previous entry untouched.
func (cache *Cache) Refresh(context context.Context, roleName string) error {
	names, err := cache.directory.PermissionNamesByRole(context, roleName)
	if err != nil {
		return err
	}

	cache.store(roleName, names)
	return nil
}

// Invalidate drops the cached entry for one role. The next request for that
// role pays a directory query.
func (cache *Cache) Invalidate(roleName string) {
	cache.mu.Lock()
	delete(cache.entries, roleName)
	cache.mu.Unlock()
}

// InvalidateAll drops every cached entry.
func (cache *Cache) InvalidateAll() {
	cache.mu.Lock()
	cache.entries = make(map[string]*entry)
	cache.mu.Unlock()
}

// Len reports the current number of cached roles.
func (cache *Cache) Len() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.entries)
}

// store inserts an entry and evicts the oldest fifth when over capacity.
func (cache *Cache) store(roleName string, names []string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries[roleName] = &entry{
		names:     copyNames(names),
		fetchedAt: cache.now(),
	}

	if len(cache.entries) <= cache.maxEntries {
		return
	}

	// Evict the oldest 20% (at least one) to avoid thrashing at the boundary.
	type aged struct {
		role      string
		fetchedAt time.Time
	}
	all := make([]aged, 0, len(cache.entries))
	for role, cached := range cache.entries {
		all = append(all, aged{role: role, fetchedAt: cached.fetchedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].fetchedAt.Before(all[j].fetchedAt) })

	evictCount := len(cache.entries) / 5
	if evictCount < 1 {
		evictCount = 1
	}
	for _, victim := range all[:evictCount] {
		delete(cache.entries, victim.role)
	}
}

// copyNames returns a defensive copy so callers can never mutate a cached slice.
func copyNames(names []string) []string {
	duplicate := make([]string, len(names))
	copy(duplicate, names)
	return duplicate
}
