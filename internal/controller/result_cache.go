/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// DispatchCacheConfig holds configuration for the entrypoint dispatch cache.
type DispatchCacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}

// dispatchEntry records that an entrypoint message was already published
// for a given Mission+attempt.
type dispatchEntry struct {
	dispatchedAt time.Time
}

// DispatchCache deduplicates entrypoint-message publishes keyed on
// Mission+FormationRef+attempt. MissionReconciler.handlePending can be
// invoked more than once for the same attempt under reconcile storms
// (requeue races, manager restarts), and a bus subscriber that treats a
// repeated entrypoint message as a second mission start would double-run
// the objective.
//
// Design decisions:
//   - In-memory only: restarts clear the cache (acceptable, since a
//     restart-time redelivery is at worst a harmless duplicate publish,
//     not a correctness bug — the Mission's Attempt counter is still the
//     source of truth).
//   - LRU eviction: when MaxEntries is exceeded, the oldest entry is
//     evicted.
type DispatchCache struct {
	mu      sync.RWMutex
	entries map[string]dispatchEntry
	order   []string
	config  DispatchCacheConfig
}

// NewDispatchCache creates a new dispatch cache with the given configuration.
func NewDispatchCache(cfg DispatchCacheConfig) *DispatchCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &DispatchCache{
		entries: make(map[string]dispatchEntry, cfg.MaxEntries),
		config:  cfg,
	}
}

// DispatchKey computes a cache key for a Mission's entrypoint dispatch at a
// given attempt number.
func DispatchKey(namespace, missionName string, attempt int) string {
	h := sha256.New()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(missionName))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte{byte(attempt)})
	return hex.EncodeToString(h.Sum(nil))
}

// Seen reports whether the given key was already dispatched within the TTL,
// and records it as dispatched if not.
func (c *DispatchCache) Seen(key string) bool {
	if !c.config.Enabled {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok && time.Since(entry.dispatchedAt) <= c.config.TTL {
		return true
	}

	for len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = dispatchEntry{dispatchedAt: time.Now()}
	c.order = append(c.order, key)
	return false
}

func (c *DispatchCache) evictOldestLocked() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, exists := c.entries[oldest]; exists {
			delete(c.entries, oldest)
			return
		}
	}
}

// Len returns the current number of entries.
func (c *DispatchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// shouldSkipDispatchCache reports whether a Mission has opted out of
// dispatch deduplication via annotation.
func shouldSkipDispatchCache(mission *cellforgev1alpha1.Mission) bool {
	if mission.Annotations == nil {
		return false
	}
	return mission.Annotations["cellforge.io/no-dispatch-cache"] == "true"
}
