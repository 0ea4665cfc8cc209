// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package cache provides a small thread-safe in-memory TTL cache.
//
// It backs the geocoder's address lookups, where repeated harvests resolve
// the same venue addresses over and over and every avoided request saves a
// one-second politeness slot. Entries expire passively on read and a
// background sweep reclaims memory from keys that are never read again.
package cache

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a string-keyed in-memory cache with a fixed per-entry TTL.
// Safe for concurrent use. A zero or negative TTL means entries never
// expire.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	hits      int64
	misses    int64
	evictions int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int64
}

// New creates a cache whose entries expire ttl after insertion. It starts
// a background goroutine that sweeps expired entries until Close is called.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Close stops the background sweep goroutine. The cache stays usable after
// Close; entries still expire on read. Safe to call more than once.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the cached value for key. Expired entries are removed and
// reported as misses. Note that a cached zero value (for pointer types,
// nil) returns ok=true: absence of data is itself cacheable.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return zero, false
	}

	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.misses++
		c.evictions++
		c.mu.Unlock()
		return zero, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores value under key, overwriting any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		delete(c.entries, key)
		c.evictions++
	}
	c.mu.Unlock()
}

// Len returns the number of entries, including ones that have expired but
// not yet been swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Keys:      int64(len(c.entries)),
	}
}

// sweep removes all expired entries.
func (c *Cache[V]) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
			c.evictions++
		}
	}
}

func (c *Cache[V]) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}
